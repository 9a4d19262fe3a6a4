package stat

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownFacet is returned for a facet name that is not a Kind.
	ErrUnknownFacet = errors.New("unknown statistic facet")
	// ErrNoExecutionPass is returned when a facet that needs an execution
	// pass is read and no pass can be run.
	ErrNoExecutionPass = errors.New("no execution pass available")
)

// Kind names a statistic facet.
type Kind string

const (
	KindParam Kind = "param"
	KindCal   Kind = "cal"
	KindMem   Kind = "mem"
	KindIttp  Kind = "ittp"
)

// Kinds lists every facet in display order.
var Kinds = []Kind{KindParam, KindCal, KindMem, KindIttp}

// ParseKind validates a facet name.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == name {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: '%s' (valid: param, cal, mem, ittp)", ErrUnknownFacet, name)
}

// NeedsPass reports whether measuring k requires an execution pass.
func (k Kind) NeedsPass() bool {
	return k != KindParam
}
