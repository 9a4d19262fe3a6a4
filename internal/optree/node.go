package optree

import (
	"github.com/vk/opmeter/internal/module"
	"github.com/vk/opmeter/internal/nodeid"
	"github.com/vk/opmeter/internal/stat"
)

const noParent = -1

// Member identifies one node of a repeated window.
type Member struct {
	ID   string
	Name string
}

// Repeat is the repeat metadata of a node. Only run leaders carry Members.
type Repeat struct {
	WindowSize int
	RepeatTime int
	Members    []Member
}

// IsRun reports whether the node leads a repeated run.
func (r Repeat) IsRun() bool {
	return r.RepeatTime > 1
}

// Node is one operation of the tree.
type Node struct {
	ID        nodeid.Address
	Name      string
	Type      string
	Component module.Component
	Leaf      bool
	Repeat    Repeat
	// Folded marks a node represented by its run leader.
	Folded bool
	// RenderWhenRepeat is false for nodes inside a later copy of a run.
	RenderWhenRepeat bool
	Stats            *stat.Set

	tree     *Tree
	index    int
	parent   int
	position int
	children []int
}

// IDString returns the dotted id.
func (n *Node) IDString() string {
	return n.ID.String()
}

// Depth returns the distance from the root.
func (n *Node) Depth() int {
	return n.ID.Depth()
}

// IsRoot reports whether n is the tree root.
func (n *Node) IsRoot() bool {
	return n.parent == noParent
}

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node {
	if n.parent == noParent {
		return nil
	}
	return n.tree.nodes[n.parent]
}

// Children returns the direct children in sibling order.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	for i, c := range n.children {
		out[i] = n.tree.nodes[c]
	}
	return out
}

// VisibleChildren returns the children a renderer should list. With fold
// enabled, folded nodes are omitted.
func (n *Node) VisibleChildren(fold bool) []*Node {
	all := n.Children()
	if !fold {
		return all
	}
	out := make([]*Node, 0, len(all))
	for _, c := range all {
		if !c.Folded {
			out = append(out, c)
		}
	}
	return out
}

// Path returns the nodes from n up to the root.
func (n *Node) Path() []*Node {
	var path []*Node
	for cur := n; cur != nil; cur = cur.Parent() {
		path = append(path, cur)
	}
	return path
}

// Label renders "(id) name".
func (n *Node) Label() string {
	return "(" + n.ID.String() + ") " + n.Name
}
