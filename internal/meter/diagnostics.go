package meter

import "github.com/vk/opmeter/internal/stat"

// Diagnostics lists operations whose measurements are incomplete.
type Diagnostics struct {
	// NotCalled holds, per facet, the ids of measured operations that never
	// executed during the pass.
	NotCalled map[stat.Kind][]string
	// Unsupported holds the ids of leaves without a cost formula.
	Unsupported []string
}

// Diagnostics inspects the current measurement state of the tree.
func (m *Meter) Diagnostics() Diagnostics {
	d := Diagnostics{NotCalled: make(map[stat.Kind][]string)}
	for _, n := range m.tree.Nodes() {
		s := n.Stats
		id := n.IDString()
		if n.Leaf {
			if s.Cal.Measured() && !s.Cal.Called() {
				d.NotCalled[stat.KindCal] = append(d.NotCalled[stat.KindCal], id)
			}
			if s.Mem.Measured() && !s.Mem.Called() {
				d.NotCalled[stat.KindMem] = append(d.NotCalled[stat.KindMem], id)
			}
			if s.Cal.Unsupported() {
				d.Unsupported = append(d.Unsupported, id)
			}
		}
		if s.Ittp.Measured() && !s.Ittp.Called() {
			d.NotCalled[stat.KindIttp] = append(d.NotCalled[stat.KindIttp], id)
		}
	}
	return d
}
