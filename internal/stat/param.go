package stat

import (
	"slices"

	"github.com/vk/opmeter/internal/accum"
	"github.com/vk/opmeter/internal/module"
	"github.com/vk/opmeter/internal/unit"
)

// ParamRecord describes one parameter of a leaf operation.
type ParamRecord struct {
	OperationID   string
	OperationType string
	ParamName     string
	Trainable     bool
	Elements      int64
}

// ParamSummary is the element count of a node and everything beneath it.
type ParamSummary struct {
	OperationID   string
	OperationType string
	OperationName string
	Total         accum.Accumulator
	Trainable     accum.Accumulator
}

// Param counts parameter elements.
type Param struct {
	b         Binding
	total     accum.Accumulator
	trainable accum.Accumulator
	measured  bool
	rows      []ParamRecord
}

// NewParam creates the param facet of a node. parent is nil for the root.
func NewParam(b Binding, parent *Param) *Param {
	p := &Param{b: b}
	var pt, ptr accum.Accumulator
	if parent != nil {
		pt, ptr = parent.total, parent.trainable
	}
	p.total = b.Env.Arena.New(ref(pt), unit.Decimal)
	p.trainable = b.Env.Arena.New(ref(ptr), unit.Decimal)
	return p
}

// Kind implements Facet.
func (p *Param) Kind() Kind { return KindParam }

// Measured implements Facet.
func (p *Param) Measured() bool { return p.measured }

// Measure counts the parameters of a leaf immediately. It never returns a
// detacher.
func (p *Param) Measure() (module.Detacher, error) {
	if p.measured {
		return nil, nil
	}
	p.measured = true
	if !p.b.Leaf {
		return nil, nil
	}

	params := p.b.Component.Parameters()
	if len(params) == 0 {
		p.rows = append(p.rows, ParamRecord{
			OperationID:   p.b.Identity.ID,
			OperationType: p.b.Identity.Type,
			ParamName:     "-",
		})
		return nil, nil
	}
	for _, prm := range params {
		n := prm.Shape.Elements()
		p.rows = append(p.rows, ParamRecord{
			OperationID:   p.b.Identity.ID,
			OperationType: p.b.Identity.Type,
			ParamName:     prm.Name,
			Trainable:     prm.Trainable,
			Elements:      n,
		})
		p.total.Add(n)
		if prm.Trainable {
			p.trainable.Add(n)
		}
	}
	return nil, nil
}

// Reset implements Facet.
func (p *Param) Reset() {
	p.total.Clear()
	p.trainable.Clear()
	p.measured = false
	p.rows = nil
}

// DetailVal returns one record per parameter.
func (p *Param) DetailVal() ([]ParamRecord, error) {
	if err := p.b.ensure(p); err != nil {
		return nil, err
	}
	return slices.Clone(p.rows), nil
}

// Val returns the aggregated element counts.
func (p *Param) Val() (ParamSummary, error) {
	if err := p.b.ensure(p); err != nil {
		return ParamSummary{}, err
	}
	return ParamSummary{
		OperationID:   p.b.Identity.ID,
		OperationType: p.b.Identity.Type,
		OperationName: p.b.Identity.Name,
		Total:         p.total,
		Trainable:     p.trainable,
	}, nil
}

// Total returns the total element accumulator without measuring.
func (p *Param) Total() accum.Accumulator { return p.total }

// Trainable returns the trainable element accumulator without measuring.
func (p *Param) Trainable() accum.Accumulator { return p.trainable }
