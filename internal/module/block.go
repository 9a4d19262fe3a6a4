package module

import (
	"slices"

	"github.com/zclconf/go-cty/cty"
)

// Block is an in-memory Component. A block with children runs them in order,
// feeding each child's output to the next; a leaf produces its declared
// Output shape, or passes its first input through when none is declared.
type Block struct {
	Kind      string
	Settings  cty.Value
	Params    []Parameter
	Bufs      []Buffer
	Output    Shape
	ElemBytes int
	// Skip marks a block that is defined but never executed by its parent.
	Skip bool

	children []Child
	hooks    []hookEntry
	nextHook int
}

type hookEntry struct {
	id int
	fn Hook
}

// NewBlock creates a block of the given type with an empty configuration.
func NewBlock(kind string) *Block {
	return &Block{Kind: kind, Settings: cty.EmptyObjectVal, ElemBytes: 4}
}

// Add appends a named child and returns b for chaining.
func (b *Block) Add(name string, c Component) *Block {
	if c == nil {
		panic("module: nil child component '" + name + "'")
	}
	b.children = append(b.children, Child{Name: name, Component: c})
	return b
}

// Type implements Component.
func (b *Block) Type() string { return b.Kind }

// Children implements Component.
func (b *Block) Children() []Child { return slices.Clone(b.children) }

// Config implements Component.
func (b *Block) Config() cty.Value {
	if b.Settings.IsNull() {
		return cty.EmptyObjectVal
	}
	return b.Settings
}

// Parameters implements Component.
func (b *Block) Parameters() []Parameter { return slices.Clone(b.Params) }

// Buffers implements Component.
func (b *Block) Buffers() []Buffer { return slices.Clone(b.Bufs) }

// DeclaredOutput implements OutputDeclarer.
func (b *Block) DeclaredOutput() Shape { return b.Output }

// AttachHook implements Component.
func (b *Block) AttachHook(h Hook) Detacher {
	id := b.nextHook
	b.nextHook++
	b.hooks = append(b.hooks, hookEntry{id: id, fn: h})
	return DetachFunc(func() {
		b.hooks = slices.DeleteFunc(b.hooks, func(e hookEntry) bool { return e.id == id })
	})
}

// HookCount reports how many hooks are currently attached.
func (b *Block) HookCount() int {
	return len(b.hooks)
}

func (b *Block) fire(inv Invocation) {
	// Hooks may detach themselves while firing.
	for _, e := range slices.Clone(b.hooks) {
		e.fn(inv)
	}
}
