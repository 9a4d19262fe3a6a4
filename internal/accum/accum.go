package accum

import (
	"fmt"

	"github.com/vk/opmeter/internal/unit"
)

// Ref is the index of a cell within an Arena.
type Ref int32

// NoParent marks a root cell.
const NoParent Ref = -1

type cell struct {
	val    int64
	parent Ref
}

// Arena owns every accumulator cell of one tree.
type Arena struct {
	cells []cell
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Len reports how many cells have been allocated.
func (a *Arena) Len() int {
	return len(a.cells)
}

// New allocates a cell, optionally linked to a parent cell, and returns a
// handle to it rendered with the given unit system.
func (a *Arena) New(parent Ref, system unit.System) Accumulator {
	if parent != NoParent && (parent < 0 || int(parent) >= len(a.cells)) {
		panic(fmt.Sprintf("accum: parent cell %d out of range", parent))
	}
	a.cells = append(a.cells, cell{parent: parent})
	return Accumulator{arena: a, ref: Ref(len(a.cells) - 1), system: system}
}

// Accumulator is a handle to one arena cell.
type Accumulator struct {
	arena  *Arena
	ref    Ref
	system unit.System
}

// Ref returns the underlying cell index.
func (acc Accumulator) Ref() Ref {
	return acc.ref
}

// Valid reports whether the handle points into an arena.
func (acc Accumulator) Valid() bool {
	return acc.arena != nil
}

// Add adds delta to the cell and to every ancestor cell.
func (acc Accumulator) Add(delta int64) {
	for r := acc.ref; r != NoParent; r = acc.arena.cells[r].parent {
		acc.arena.cells[r].val += delta
	}
}

// Clear sets the cell to zero. Ancestor cells are left unchanged.
func (acc Accumulator) Clear() {
	acc.arena.cells[acc.ref].val = 0
}

// Val returns the current value of the cell.
func (acc Accumulator) Val() int64 {
	return acc.arena.cells[acc.ref].val
}

// Parent returns the handle of the parent cell, if any.
func (acc Accumulator) Parent() (Accumulator, bool) {
	p := acc.arena.cells[acc.ref].parent
	if p == NoParent {
		return Accumulator{}, false
	}
	return Accumulator{arena: acc.arena, ref: p, system: acc.system}, true
}

// Value snapshots the cell as a supported Value.
func (acc Accumulator) Value() Value {
	return Of(acc.Val())
}

// String renders the value with its unit scaling, e.g. "1234 = 1.23 K".
func (acc Accumulator) String() string {
	if !acc.Valid() {
		return NotSupported.String()
	}
	return acc.system.Describe(acc.Val())
}
