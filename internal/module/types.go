package module

import (
	"context"
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Shape is the dimension list of a tensor-like value.
type Shape []int

// Elements returns the product of the dimensions. An empty shape holds no
// elements.
func (s Shape) Elements() int64 {
	if len(s) == 0 {
		return 0
	}
	n := int64(1)
	for _, d := range s {
		n *= int64(d)
	}
	return n
}

// String renders the shape as "[1 16]".
func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = fmt.Sprint(d)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Parameter is a named weight tensor owned directly by a component.
type Parameter struct {
	Name      string
	Shape     Shape
	Trainable bool
	ElemBytes int
}

// Bytes returns the storage cost of the parameter.
func (p Parameter) Bytes() int64 {
	return p.Shape.Elements() * int64(p.ElemBytes)
}

// Buffer is a named non-trainable state tensor owned directly by a component.
type Buffer struct {
	Name      string
	Shape     Shape
	ElemBytes int
}

// Bytes returns the storage cost of the buffer.
func (b Buffer) Bytes() int64 {
	return b.Shape.Elements() * int64(b.ElemBytes)
}

// Child is one named direct sub-component.
type Child struct {
	Name      string
	Component Component
}

// Invocation describes one execution of a component observed by a hook.
type Invocation struct {
	Inputs    []Shape
	Output    Shape
	ElemBytes int
	// Replay executes the component again with the same inputs. Hooks do not
	// fire during a replay.
	Replay func() error
}

// Hook observes executions of the component it is attached to.
type Hook func(Invocation)

// Detacher removes a previously attached hook.
type Detacher interface {
	Detach()
}

// DetachFunc adapts a function to a Detacher.
type DetachFunc func()

// Detach calls f.
func (f DetachFunc) Detach() { f() }

// Detachers collects handles so they can be removed together.
type Detachers []Detacher

// Detach removes every collected handle. Nil entries are ignored.
func (ds Detachers) Detach() {
	for _, d := range ds {
		if d != nil {
			d.Detach()
		}
	}
}

// Component is a node of the measured module graph. Implementations must be
// comparable; pointer types are expected since instance identity matters.
type Component interface {
	Type() string
	Children() []Child
	Config() cty.Value
	Parameters() []Parameter
	Buffers() []Buffer
	AttachHook(Hook) Detacher
}

// HasChildren reports whether c has at least one direct sub-component.
func HasChildren(c Component) bool {
	return len(c.Children()) > 0
}

// Runner performs one full execution pass over a module graph.
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerFunc adapts a function to a Runner.
type RunnerFunc func(ctx context.Context) error

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context) error { return f(ctx) }
