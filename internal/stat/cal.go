package stat

import (
	"slices"

	"github.com/vk/opmeter/internal/accum"
	"github.com/vk/opmeter/internal/module"
	"github.com/vk/opmeter/internal/unit"
)

// CalRecord is the compute cost of one leaf invocation.
type CalRecord struct {
	OperationID   string
	OperationType string
	OperationName string
	Inputs        []module.Shape
	Output        module.Shape
	MACs          accum.Value
	FLOPs         accum.Value
}

// CalSummary is the compute cost of a node and everything beneath it.
type CalSummary struct {
	OperationID   string
	OperationType string
	OperationName string
	MACs          accum.Accumulator
	FLOPs         accum.Accumulator
}

// Cal estimates compute cost per invocation.
type Cal struct {
	b           Binding
	macs        accum.Accumulator
	flops       accum.Accumulator
	measured    bool
	called      bool
	unsupported bool
	rows        []CalRecord
}

// NewCal creates the cal facet of a node. parent is nil for the root.
func NewCal(b Binding, parent *Cal) *Cal {
	c := &Cal{b: b}
	var pm, pf accum.Accumulator
	if parent != nil {
		pm, pf = parent.macs, parent.flops
	}
	c.macs = b.Env.Arena.New(ref(pm), unit.Decimal)
	c.flops = b.Env.Arena.New(ref(pf), unit.Decimal)
	return c
}

// Kind implements Facet.
func (c *Cal) Kind() Kind { return KindCal }

// Measured implements Facet.
func (c *Cal) Measured() bool { return c.measured }

// Called reports whether the leaf executed during the pass.
func (c *Cal) Called() bool { return c.called }

// Unsupported reports whether the leaf's type has no cost formula. It is
// known only after the leaf executed.
func (c *Cal) Unsupported() bool { return c.unsupported }

// Measure attaches the cost callback to a leaf.
func (c *Cal) Measure() (module.Detacher, error) {
	if c.measured {
		return nil, nil
	}
	c.measured = true
	if !c.b.Leaf {
		return nil, nil
	}
	return c.b.Component.AttachHook(c.observe), nil
}

// Reset implements Facet.
func (c *Cal) Reset() {
	c.macs.Clear()
	c.flops.Clear()
	c.measured, c.called, c.unsupported = false, false, false
	c.rows = nil
}

func (c *Cal) observe(inv module.Invocation) {
	c.called = true
	rec := CalRecord{
		OperationID:   c.b.Identity.ID,
		OperationType: c.b.Identity.Type,
		OperationName: c.b.Identity.Name,
		Inputs:        inv.Inputs,
		Output:        inv.Output,
		MACs:          accum.NotSupported,
		FLOPs:         accum.NotSupported,
	}

	fn, ok := c.b.Env.Costs.Lookup(c.b.Identity.Type)
	if !ok {
		c.unsupported = true
		c.rows = append(c.rows, rec)
		return
	}
	macs, flops := fn(c.b.Component, inv)
	rec.MACs, rec.FLOPs = accum.Of(macs), accum.Of(flops)
	c.macs.Add(macs)
	c.flops.Add(flops)
	c.rows = append(c.rows, rec)
}

// DetailVal returns one record per observed invocation.
func (c *Cal) DetailVal() ([]CalRecord, error) {
	if err := c.b.ensure(c); err != nil {
		return nil, err
	}
	return slices.Clone(c.rows), nil
}

// Val returns the aggregated compute cost.
func (c *Cal) Val() (CalSummary, error) {
	if err := c.b.ensure(c); err != nil {
		return CalSummary{}, err
	}
	return CalSummary{
		OperationID:   c.b.Identity.ID,
		OperationType: c.b.Identity.Type,
		OperationName: c.b.Identity.Name,
		MACs:          c.macs,
		FLOPs:         c.flops,
	}, nil
}

// MACs returns the multiply-accumulate accumulator without measuring.
func (c *Cal) MACs() accum.Accumulator { return c.macs }

// FLOPs returns the floating point operation accumulator without measuring.
func (c *Cal) FLOPs() accum.Accumulator { return c.flops }
