// internal/nodeid/types.go
package nodeid

// RootID is the canonical string form of the root address.
const RootID = "0"

// Address is the structured representation of a node identifier. It is
// modeled as the path of 1-based sibling positions leading from the root.
// The root is the empty path.
type Address struct {
	Path []int
}

// Root returns the address of a tree root.
func Root() Address {
	return Address{}
}

// Child returns the address of the child at the given 1-based position.
func (a Address) Child(position int) Address {
	if position < 1 {
		panic("nodeid: child position must be 1-based")
	}
	path := make([]int, len(a.Path)+1)
	copy(path, a.Path)
	path[len(a.Path)] = position
	return Address{Path: path}
}

// IsRoot reports whether the address denotes a tree root.
func (a Address) IsRoot() bool {
	return len(a.Path) == 0
}

// Depth is the number of edges between the root and the addressed node.
func (a Address) Depth() int {
	return len(a.Path)
}

// Parent returns the parent address. The second result is false for the root.
func (a Address) Parent() (Address, bool) {
	if a.IsRoot() {
		return Address{}, false
	}
	n := len(a.Path) - 1
	return Address{Path: a.Path[:n:n]}, true
}

// Position returns the 1-based sibling position of the addressed node, or 0
// for the root.
func (a Address) Position() int {
	if a.IsRoot() {
		return 0
	}
	return a.Path[len(a.Path)-1]
}
