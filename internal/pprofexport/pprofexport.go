// Package pprofexport converts measured operation trees into pprof
// profiles so they can be explored with `go tool pprof`.
package pprofexport

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/pprof/profile"

	"github.com/vk/opmeter/internal/optree"
)

// ErrNoMetrics is returned by Build when no metric is selected.
var ErrNoMetrics = errors.New("no metrics selected")

// Metric is one sample type of the profile. Value is read on leaves only.
type Metric struct {
	Type  string
	Unit  string
	Value func(n *optree.Node) (int64, error)
}

// Params counts total parameter elements.
var Params = Metric{Type: "params", Unit: "count", Value: func(n *optree.Node) (int64, error) {
	v, err := n.Stats.Param.Val()
	if err != nil {
		return 0, err
	}
	return v.Total.Val(), nil
}}

// MACs counts multiply-accumulates.
var MACs = Metric{Type: "macs", Unit: "count", Value: func(n *optree.Node) (int64, error) {
	v, err := n.Stats.Cal.Val()
	if err != nil {
		return 0, err
	}
	return v.MACs.Val(), nil
}}

// FLOPs counts floating point operations.
var FLOPs = Metric{Type: "flops", Unit: "count", Value: func(n *optree.Node) (int64, error) {
	v, err := n.Stats.Cal.Val()
	if err != nil {
		return 0, err
	}
	return v.FLOPs.Val(), nil
}}

// Memory counts total bytes.
var Memory = Metric{Type: "memory", Unit: "bytes", Value: func(n *optree.Node) (int64, error) {
	v, err := n.Stats.Mem.Val()
	if err != nil {
		return 0, err
	}
	return v.Total.Val(), nil
}}

// Build creates a profile with one sample per leaf. A sample's stack is the
// path from the leaf up to the root, so every frame's cumulative value
// equals the node's accumulator.
func Build(tree *optree.Tree, metrics ...Metric) (*profile.Profile, error) {
	if len(metrics) == 0 {
		return nil, ErrNoMetrics
	}

	p := &profile.Profile{}
	for _, m := range metrics {
		p.SampleType = append(p.SampleType, &profile.ValueType{Type: m.Type, Unit: m.Unit})
	}
	p.DefaultSampleType = metrics[0].Type

	locations := make(map[string]*profile.Location, tree.Len())
	for _, n := range tree.Nodes() {
		id := uint64(len(p.Function) + 1)
		fn := &profile.Function{
			ID:         id,
			Name:       n.Label(),
			SystemName: n.IDString(),
			Filename:   n.Type,
		}
		loc := &profile.Location{
			ID:   id,
			Line: []profile.Line{{Function: fn, Line: int64(n.Depth())}},
		}
		p.Function = append(p.Function, fn)
		p.Location = append(p.Location, loc)
		locations[n.IDString()] = loc
	}

	for _, leaf := range tree.Leaves() {
		values := make([]int64, len(metrics))
		for i, m := range metrics {
			v, err := m.Value(leaf)
			if err != nil {
				return nil, fmt.Errorf("metric %s of operation %s: %w", m.Type, leaf.IDString(), err)
			}
			values[i] = v
		}

		path := leaf.Path()
		stack := make([]*profile.Location, len(path))
		for i, n := range path {
			stack[i] = locations[n.IDString()]
		}
		p.Sample = append(p.Sample, &profile.Sample{
			Location: stack,
			Value:    values,
			Label: map[string][]string{
				"type": {leaf.Type},
				"id":   {leaf.IDString()},
			},
		})
	}

	if err := p.CheckValid(); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}
	return p, nil
}

// Write serializes p in the gzip-compressed protobuf format.
func Write(w io.Writer, p *profile.Profile) error {
	if err := p.Write(w); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}
	return nil
}
