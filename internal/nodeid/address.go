// internal/nodeid/address.go
package nodeid

import (
	"slices"
	"strconv"
	"strings"
)

// String serializes the Address into its canonical dotted representation.
func (a Address) String() string {
	if a.IsRoot() {
		return RootID
	}

	var sb strings.Builder
	for i, position := range a.Path {
		if i > 0 {
			sb.WriteRune('.')
		}
		sb.WriteString(strconv.Itoa(position))
	}
	return sb.String()
}

// Equal checks whether two addresses denote the same node.
func (a Address) Equal(other Address) bool {
	return slices.Equal(a.Path, other.Path)
}

// IsAncestorOf reports whether a is a strict ancestor of other.
func (a Address) IsAncestorOf(other Address) bool {
	if len(a.Path) >= len(other.Path) {
		return false
	}
	return slices.Equal(a.Path, other.Path[:len(a.Path)])
}
