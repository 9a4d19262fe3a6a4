package module

import (
	"context"
	"fmt"
	"slices"

	"github.com/vk/opmeter/internal/ctxlog"
)

// SequentialRunner executes a Block tree once per Run.
type SequentialRunner struct {
	root  *Block
	input Shape
	runs  int
}

// NewSequentialRunner creates a runner that feeds input into root.
func NewSequentialRunner(root *Block, input Shape) *SequentialRunner {
	if root == nil {
		panic("module: nil root block")
	}
	return &SequentialRunner{root: root, input: slices.Clone(input)}
}

// Runs reports how many passes have completed.
func (r *SequentialRunner) Runs() int {
	return r.runs
}

// Run implements Runner.
func (r *SequentialRunner) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting execution pass.", "root", r.root.Kind, "input", r.input.String())

	if _, err := execute(ctx, r.root, []Shape{r.input}, true); err != nil {
		return fmt.Errorf("execution pass failed: %w", err)
	}
	r.runs++
	return nil
}

func execute(ctx context.Context, b *Block, inputs []Shape, withHooks bool) (Shape, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out Shape
	if len(b.children) == 0 {
		switch {
		case b.Output != nil:
			out = slices.Clone(b.Output)
		case len(inputs) > 0:
			out = slices.Clone(inputs[0])
		}
	} else {
		x := inputs
		for _, child := range b.children {
			cb, ok := child.Component.(*Block)
			if !ok {
				return nil, fmt.Errorf("child '%s' of '%s' is a %T, not a *Block", child.Name, b.Kind, child.Component)
			}
			if cb.Skip {
				continue
			}
			y, err := execute(ctx, cb, x, withHooks)
			if err != nil {
				return nil, fmt.Errorf("child '%s': %w", child.Name, err)
			}
			x = []Shape{y}
		}
		if len(x) > 0 {
			out = x[0]
		}
	}

	if withHooks && len(b.hooks) > 0 {
		captured := cloneShapes(inputs)
		b.fire(Invocation{
			Inputs:    captured,
			Output:    slices.Clone(out),
			ElemBytes: b.ElemBytes,
			Replay: func() error {
				_, err := execute(ctx, b, captured, false)
				return err
			},
		})
	}
	return out, nil
}

func cloneShapes(in []Shape) []Shape {
	out := make([]Shape, len(in))
	for i, s := range in {
		out[i] = slices.Clone(s)
	}
	return out
}
