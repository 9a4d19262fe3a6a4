package stat

import (
	"slices"

	"github.com/vk/opmeter/internal/accum"
	"github.com/vk/opmeter/internal/module"
	"github.com/vk/opmeter/internal/unit"
)

// MemRecord is the memory cost of one leaf invocation, in bytes. Parameter
// and buffer storage is charged on the first invocation only.
type MemRecord struct {
	OperationID    string
	OperationType  string
	OperationName  string
	ParamCost      int64
	BufferCost     int64
	FeatureMapCost int64
	Total          int64
}

// MemSummary is the memory cost of a node and everything beneath it.
type MemSummary struct {
	OperationID    string
	OperationType  string
	OperationName  string
	ParamCost      accum.Accumulator
	BufferCost     accum.Accumulator
	FeatureMapCost accum.Accumulator
	Total          accum.Accumulator
}

// Mem accounts memory cost per invocation.
type Mem struct {
	b        Binding
	param    accum.Accumulator
	buffer   accum.Accumulator
	fmap     accum.Accumulator
	total    accum.Accumulator
	measured bool
	called   bool
	rows     []MemRecord
}

// NewMem creates the mem facet of a node. parent is nil for the root.
func NewMem(b Binding, parent *Mem) *Mem {
	m := &Mem{b: b}
	var pp, pb, pf, pt accum.Accumulator
	if parent != nil {
		pp, pb, pf, pt = parent.param, parent.buffer, parent.fmap, parent.total
	}
	a := b.Env.Arena
	m.param = a.New(ref(pp), unit.Binary)
	m.buffer = a.New(ref(pb), unit.Binary)
	m.fmap = a.New(ref(pf), unit.Binary)
	m.total = a.New(ref(pt), unit.Binary)
	return m
}

// Kind implements Facet.
func (m *Mem) Kind() Kind { return KindMem }

// Measured implements Facet.
func (m *Mem) Measured() bool { return m.measured }

// Called reports whether the leaf executed during the pass.
func (m *Mem) Called() bool { return m.called }

// Measure attaches the memory callback to a leaf.
func (m *Mem) Measure() (module.Detacher, error) {
	if m.measured {
		return nil, nil
	}
	m.measured = true
	if !m.b.Leaf {
		return nil, nil
	}
	return m.b.Component.AttachHook(m.observe), nil
}

// Reset implements Facet.
func (m *Mem) Reset() {
	for _, acc := range []accum.Accumulator{m.param, m.buffer, m.fmap, m.total} {
		acc.Clear()
	}
	m.measured, m.called = false, false
	m.rows = nil
}

func (m *Mem) observe(inv module.Invocation) {
	rec := MemRecord{
		OperationID:    m.b.Identity.ID,
		OperationType:  m.b.Identity.Type,
		OperationName:  m.b.Identity.Name,
		FeatureMapCost: inv.Output.Elements() * int64(inv.ElemBytes),
	}
	if !m.called {
		for _, p := range m.b.Component.Parameters() {
			rec.ParamCost += p.Bytes()
		}
		for _, b := range m.b.Component.Buffers() {
			rec.BufferCost += b.Bytes()
		}
	}
	m.called = true
	rec.Total = rec.ParamCost + rec.BufferCost + rec.FeatureMapCost

	m.param.Add(rec.ParamCost)
	m.buffer.Add(rec.BufferCost)
	m.fmap.Add(rec.FeatureMapCost)
	m.total.Add(rec.Total)
	m.rows = append(m.rows, rec)
}

// DetailVal returns one record per observed invocation.
func (m *Mem) DetailVal() ([]MemRecord, error) {
	if err := m.b.ensure(m); err != nil {
		return nil, err
	}
	return slices.Clone(m.rows), nil
}

// Val returns the aggregated memory cost.
func (m *Mem) Val() (MemSummary, error) {
	if err := m.b.ensure(m); err != nil {
		return MemSummary{}, err
	}
	return MemSummary{
		OperationID:    m.b.Identity.ID,
		OperationType:  m.b.Identity.Type,
		OperationName:  m.b.Identity.Name,
		ParamCost:      m.param,
		BufferCost:     m.buffer,
		FeatureMapCost: m.fmap,
		Total:          m.total,
	}, nil
}

// Total returns the total byte accumulator without measuring.
func (m *Mem) Total() accum.Accumulator { return m.total }
