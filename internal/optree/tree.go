package optree

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/opmeter/internal/ctxlog"
	"github.com/vk/opmeter/internal/module"
	"github.com/vk/opmeter/internal/nodeid"
	"github.com/vk/opmeter/internal/stat"
	"github.com/vk/opmeter/internal/traverse"
)

// ErrNodeNotFound is returned when an id names no node of the tree.
var ErrNodeNotFound = errors.New("operation not found")

// Options configures tree construction.
type Options struct {
	// Name labels the root node. The root component's type is used when
	// empty.
	Name string
	// Costs supplies compute cost formulas. stat.DefaultCosts is used when
	// nil.
	Costs *stat.CostRegistry
}

// PassFunc measures one facet over the whole tree with an execution pass.
type PassFunc func(kind stat.Kind) error

// Tree is the operation tree of one module graph.
type Tree struct {
	nodes []*Node
	byID  map[string]int
	env   *stat.Env
	pass  PassFunc
}

// childRef is a sub-component as seen from its parent during construction.
type childRef struct {
	position int
	name     string
	comp     module.Component
}

// Build constructs the operation tree of root and detects repeated runs.
// Malformed input such as a nil component panics.
func Build(ctx context.Context, root module.Component, opts Options) *Tree {
	if root == nil {
		panic("optree: nil root component")
	}
	name := opts.Name
	if name == "" {
		name = root.Type()
	}

	t := &Tree{
		byID: make(map[string]int),
		env:  stat.NewEnv(opts.Costs),
	}
	t.env.Coordinator = t

	traverse.DFS(
		childRef{name: name, comp: root},
		func(r childRef) []childRef {
			children := r.comp.Children()
			refs := make([]childRef, len(children))
			for i, c := range children {
				if c.Component == nil {
					panic(fmt.Sprintf("optree: child '%s' of '%s' has no component", c.Name, r.name))
				}
				refs[i] = childRef{position: i + 1, name: c.Name, comp: c.Component}
			}
			return refs
		},
		func(r childRef) module.Component { return r.comp },
		t.wrap,
		noParent,
	)
	t.check()

	runs := t.foldRepeats()
	ctxlog.FromContext(ctx).Debug("Built operation tree.", "root", name, "nodes", len(t.nodes), "repeatRuns", runs)
	return t
}

// wrap creates the node of one component and returns its arena index.
func (t *Tree) wrap(r childRef, parent int) int {
	n := &Node{
		Name:             r.name,
		Type:             r.comp.Type(),
		Component:        r.comp,
		Leaf:             !module.HasChildren(r.comp),
		Repeat:           Repeat{WindowSize: 1, RepeatTime: 1},
		RenderWhenRepeat: true,
		tree:             t,
		index:            len(t.nodes),
		parent:           parent,
		position:         r.position,
	}

	var parentStats *stat.Set
	if parent == noParent {
		n.ID = nodeid.Root()
	} else {
		p := t.nodes[parent]
		n.ID = p.ID.Child(r.position)
		parentStats = p.Stats
		p.children = append(p.children, n.index)
	}

	id := n.ID.String()
	if _, dup := t.byID[id]; dup {
		panic(fmt.Sprintf("optree: duplicate operation id %s", id))
	}
	n.Stats = stat.NewSet(stat.Binding{
		Identity:  stat.Identity{ID: id, Name: n.Name, Type: n.Type},
		Component: n.Component,
		Leaf:      n.Leaf,
		Env:       t.env,
	}, parentStats)

	t.byID[id] = n.index
	t.nodes = append(t.nodes, n)
	return n.index
}

// check panics when parent links and ids disagree.
func (t *Tree) check() {
	for i, n := range t.nodes {
		if n.index != i {
			panic(fmt.Sprintf("optree: node %s stored at %d, expected %d", n.ID, i, n.index))
		}
		if n.parent == noParent {
			if i != 0 || !n.ID.IsRoot() {
				panic(fmt.Sprintf("optree: unexpected root %s", n.ID))
			}
			continue
		}
		if n.parent < 0 || n.parent >= i {
			panic(fmt.Sprintf("optree: node %s has broken parent link %d", n.ID, n.parent))
		}
		if !n.ID.Equal(t.nodes[n.parent].ID.Child(n.position)) {
			panic(fmt.Sprintf("optree: node %s does not match its position %d", n.ID, n.position))
		}
	}
}

// Root returns the root node.
func (t *Tree) Root() *Node {
	return t.nodes[0]
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Nodes returns every node in pre-order, root first.
func (t *Tree) Nodes() []*Node {
	out := make([]*Node, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// Node looks up a node by its dotted id.
func (t *Tree) Node(id string) (*Node, bool) {
	i, ok := t.byID[id]
	if !ok {
		return nil, false
	}
	return t.nodes[i], true
}

// Find validates id and looks it up.
func (t *Tree) Find(id string) (*Node, error) {
	addr, err := nodeid.Parse(id)
	if err != nil {
		return nil, err
	}
	n, ok := t.Node(addr.String())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, addr)
	}
	return n, nil
}

// Subnodes lists every node as "(id) name" in pre-order.
func (t *Tree) Subnodes() []string {
	out := make([]string, len(t.nodes))
	for i, n := range t.nodes {
		out[i] = n.Label()
	}
	return out
}

// Visible returns, in pre-order, the nodes a renderer should show.
func (t *Tree) Visible(fold bool) []*Node {
	return t.walk(func(n *Node) []*Node { return n.VisibleChildren(fold) })
}

// Leaves returns every leaf node in pre-order.
func (t *Tree) Leaves() []*Node {
	var out []*Node
	for _, n := range t.nodes {
		if n.Leaf {
			out = append(out, n)
		}
	}
	return out
}

func (t *Tree) walk(adj func(*Node) []*Node) []*Node {
	var out []*Node
	traverse.DFS(t.Root(), adj,
		func(n *Node) int { return n.index },
		func(n *Node, _ struct{}) struct{} {
			out = append(out, n)
			return struct{}{}
		}, struct{}{})
	return out
}

// Env returns the statistic environment shared by every node.
func (t *Tree) Env() *stat.Env {
	return t.env
}

// SetPass installs the function used to measure pass-based facets on read.
func (t *Tree) SetPass(fn PassFunc) {
	t.pass = fn
}

// MeasureAll implements stat.Coordinator. param is measured directly; every
// other facet needs the installed pass.
func (t *Tree) MeasureAll(kind stat.Kind) error {
	if !kind.NeedsPass() {
		for _, n := range t.nodes {
			if _, err := n.Stats.Param.Measure(); err != nil {
				return fmt.Errorf("measuring %s: %w", n.ID, err)
			}
		}
		return nil
	}
	if t.pass == nil {
		return fmt.Errorf("measuring %s: %w", kind, stat.ErrNoExecutionPass)
	}
	return t.pass(kind)
}
