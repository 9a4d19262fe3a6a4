package stat

import "fmt"

// Set holds one facet of each kind for a node.
type Set struct {
	Param *Param
	Cal   *Cal
	Mem   *Mem
	Ittp  *Ittp
}

// NewSet creates the facets of a node, linking the accumulating ones to the
// parent's set. parent is nil for the root.
func NewSet(b Binding, parent *Set) *Set {
	if b.Env == nil {
		panic("stat: binding without environment")
	}
	if b.Component == nil {
		panic(fmt.Sprintf("stat: operation %s has no component", b.Identity.ID))
	}
	var pp *Param
	var pc *Cal
	var pm *Mem
	if parent != nil {
		pp, pc, pm = parent.Param, parent.Cal, parent.Mem
	}
	return &Set{
		Param: NewParam(b, pp),
		Cal:   NewCal(b, pc),
		Mem:   NewMem(b, pm),
		Ittp:  NewIttp(b),
	}
}

// Facet returns the facet of the given kind.
func (s *Set) Facet(kind Kind) (Facet, error) {
	switch kind {
	case KindParam:
		return s.Param, nil
	case KindCal:
		return s.Cal, nil
	case KindMem:
		return s.Mem, nil
	case KindIttp:
		return s.Ittp, nil
	}
	return nil, fmt.Errorf("%w: '%s'", ErrUnknownFacet, kind)
}
