// Package meter coordinates measurement of an operation tree against one
// execution pass of its host.
package meter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vk/opmeter/internal/ctxlog"
	"github.com/vk/opmeter/internal/module"
	"github.com/vk/opmeter/internal/optree"
	"github.com/vk/opmeter/internal/stat"
)

// Meter owns the operation tree of a component and the runner that executes
// its host.
type Meter struct {
	tree   *optree.Tree
	runner module.Runner
	opts   Options
	logger *slog.Logger
	ctx    context.Context
}

// New builds the operation tree of root. runner may be nil, in which case
// only param can be measured. ctx stays in effect for passes started lazily
// by facet reads, so cancelling it fails those reads.
func New(ctx context.Context, root module.Component, runner module.Runner, opts Options) (*Meter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	m := &Meter{
		runner: runner,
		opts:   opts,
		logger: ctxlog.FromContext(ctx),
		ctx:    ctx,
	}
	m.tree = optree.Build(ctx, root, optree.Options{Name: opts.Name, Costs: opts.Costs})
	m.tree.Env().Timing = stat.Timing{Warmup: opts.Warmup, Repeat: opts.BenchmarkRepeat}
	m.tree.SetPass(func(kind stat.Kind) error {
		return m.measure(m.ctx, kind)
	})
	return m, nil
}

// Tree returns the operation tree.
func (m *Meter) Tree() *optree.Tree {
	return m.tree
}

// Options returns the options the meter was created with.
func (m *Meter) Options() Options {
	return m.opts
}

// Measure measures the given facets over the whole tree. Each pass-based
// facet costs one execution pass unless it is already measured; ittp is
// always re-sampled.
func (m *Meter) Measure(ctx context.Context, kinds ...stat.Kind) error {
	for _, k := range kinds {
		if err := m.measure(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

func (m *Meter) measure(ctx context.Context, kind stat.Kind) error {
	if !kind.NeedsPass() {
		return m.tree.MeasureAll(kind)
	}
	if m.runner == nil {
		return fmt.Errorf("measuring %s: %w", kind, stat.ErrNoExecutionPass)
	}

	var handles module.Detachers
	defer func() { handles.Detach() }()

	for _, n := range m.tree.Nodes() {
		f, err := n.Stats.Facet(kind)
		if err != nil {
			return err
		}
		if kind != stat.KindIttp && f.Measured() {
			continue
		}
		d, err := f.Measure()
		if err != nil {
			m.discard(kind)
			return fmt.Errorf("preparing %s of operation %s: %w", kind, n.IDString(), err)
		}
		if d != nil {
			handles = append(handles, d)
		}
	}
	if len(handles) == 0 {
		return nil
	}

	ctx = ctxlog.WithLogger(ctx, m.logger)
	m.logger.Debug("Running execution pass.", "facet", kind, "hooks", len(handles))
	if err := m.runner.Run(ctx); err != nil {
		m.discard(kind)
		return fmt.Errorf("measuring %s: %w", kind, err)
	}
	m.report(kind)
	return nil
}

// discard drops the partial results of a failed pass so that the next read
// measures again.
func (m *Meter) discard(kind stat.Kind) {
	for _, n := range m.tree.Nodes() {
		if f, err := n.Stats.Facet(kind); err == nil {
			f.Reset()
		}
	}
	m.logger.Debug("Discarded results of a failed pass.", "facet", kind)
}

// report logs the structural warnings of a finished pass.
func (m *Meter) report(kind stat.Kind) {
	d := m.Diagnostics()
	if ids := d.NotCalled[kind]; len(ids) > 0 {
		m.logger.Warn("Operations were not executed during the pass.", "facet", kind, "ids", ids)
	}
	if kind == stat.KindCal && len(d.Unsupported) > 0 {
		m.logger.Debug("Operations without a cost formula.", "ids", d.Unsupported)
	}
}

// Param measures and returns the root element counts.
func (m *Meter) Param(ctx context.Context) (stat.ParamSummary, error) {
	if err := m.measure(ctx, stat.KindParam); err != nil {
		return stat.ParamSummary{}, err
	}
	return m.tree.Root().Stats.Param.Val()
}

// Cal measures and returns the root compute cost.
func (m *Meter) Cal(ctx context.Context) (stat.CalSummary, error) {
	if err := m.measure(ctx, stat.KindCal); err != nil {
		return stat.CalSummary{}, err
	}
	return m.tree.Root().Stats.Cal.Val()
}

// Mem measures and returns the root memory cost.
func (m *Meter) Mem(ctx context.Context) (stat.MemSummary, error) {
	if err := m.measure(ctx, stat.KindMem); err != nil {
		return stat.MemSummary{}, err
	}
	return m.tree.Root().Stats.Mem.Val()
}

// Ittp re-samples inference timing and returns the root summary.
func (m *Meter) Ittp(ctx context.Context) (stat.IttpSummary, error) {
	if err := m.measure(ctx, stat.KindIttp); err != nil {
		return stat.IttpSummary{}, err
	}
	return m.tree.Root().Stats.Ittp.Val()
}

// Facet measures the named facet and returns the root's instance of it.
func (m *Meter) Facet(ctx context.Context, name string) (stat.Facet, error) {
	kind, err := stat.ParseKind(name)
	if err != nil {
		return nil, err
	}
	if err := m.measure(ctx, kind); err != nil {
		return nil, err
	}
	return m.tree.Root().Stats.Facet(kind)
}

// Rebase returns a meter over the subtree rooted at id. The new tree is
// numbered from "0" again and shares this meter's runner, options and
// logger.
func (m *Meter) Rebase(ctx context.Context, id string) (*Meter, error) {
	n, err := m.tree.Find(id)
	if err != nil {
		return nil, fmt.Errorf("rebase: %w", err)
	}
	opts := m.opts
	opts.Name = n.Name
	m.logger.Debug("Rebasing meter.", "id", id, "name", n.Name)
	return New(ctxlog.WithLogger(ctx, m.logger), n.Component, m.runner, opts)
}

// Subnodes lists every operation as "(id) name".
func (m *Meter) Subnodes() []string {
	return m.tree.Subnodes()
}

// Rows returns the operations to display, honouring FoldRepeat.
func (m *Meter) Rows() []*optree.Node {
	return m.tree.Visible(m.opts.FoldRepeat)
}
