package stat

import (
	"github.com/vk/opmeter/internal/accum"
	"github.com/vk/opmeter/internal/module"
)

// Facet is the behaviour shared by every statistic kind.
type Facet interface {
	Kind() Kind
	Measured() bool
	// Measure prepares the facet for one execution pass. The returned
	// handle, when non-nil, must be detached after the pass.
	Measure() (module.Detacher, error)
	// Reset discards every result and marks the facet unmeasured. It only
	// clears the facet's own cells, so it is meant to be applied to every
	// node of a tree at once.
	Reset()
}

// Coordinator measures one facet over a whole tree.
type Coordinator interface {
	MeasureAll(kind Kind) error
}

// Timing configures ittp sampling.
type Timing struct {
	Warmup int
	Repeat int
}

// DefaultTiming is used until a meter supplies its own options.
var DefaultTiming = Timing{Warmup: 2, Repeat: 10}

// Env is shared by every facet of one tree.
type Env struct {
	Arena       *accum.Arena
	Costs       *CostRegistry
	Timing      Timing
	Coordinator Coordinator
}

// NewEnv creates an environment with a fresh arena.
func NewEnv(costs *CostRegistry) *Env {
	if costs == nil {
		costs = DefaultCosts()
	}
	return &Env{
		Arena:  accum.NewArena(),
		Costs:  costs,
		Timing: DefaultTiming,
	}
}

// Identity names the operation a facet belongs to.
type Identity struct {
	ID   string
	Name string
	Type string
}

// Binding ties a facet to its node.
type Binding struct {
	Identity  Identity
	Component module.Component
	Leaf      bool
	Env       *Env
}

// ensure measures f through the coordinator when it has not been measured.
func (b Binding) ensure(f Facet) error {
	if f.Measured() {
		return nil
	}
	if b.Env == nil || b.Env.Coordinator == nil {
		if f.Kind().NeedsPass() {
			return ErrNoExecutionPass
		}
		_, err := f.Measure()
		return err
	}
	return b.Env.Coordinator.MeasureAll(f.Kind())
}

func ref(parent accum.Accumulator) accum.Ref {
	if !parent.Valid() {
		return accum.NoParent
	}
	return parent.Ref()
}
