package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/vk/opmeter/internal/ctxlog"
	"github.com/vk/opmeter/internal/hclgraph"
	"github.com/vk/opmeter/internal/meter"
	"github.com/vk/opmeter/internal/pprofexport"
	"github.com/vk/opmeter/internal/stat"
)

// ErrNoModels is returned when the configured paths hold no model blocks.
var ErrNoModels = errors.New("no models found")

// Run loads every configured graph, measures the graphs concurrently, and
// writes their reports in load order.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	graphs, err := hclgraph.Load(ctx, a.config.GraphPaths...)
	if err != nil {
		return fmt.Errorf("failed to load graphs: %w", err)
	}
	if len(graphs) == 0 {
		return fmt.Errorf("%w in %v", ErrNoModels, a.config.GraphPaths)
	}
	a.logger.Info("Graphs loaded.", "count", len(graphs))

	if a.config.ProfileDir != "" {
		if err := os.MkdirAll(a.config.ProfileDir, 0o755); err != nil {
			return fmt.Errorf("creating profile directory: %w", err)
		}
	}

	reports := make([]bytes.Buffer, len(graphs))
	g, gctx := errgroup.WithContext(ctx)
	for i, graph := range graphs {
		g.Go(func() error {
			if err := a.profile(gctx, graph, &reports[i]); err != nil {
				return fmt.Errorf("model '%s': %w", graph.Name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i := range reports {
		if _, err := reports[i].WriteTo(a.outW); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}

// profile measures one graph and renders its report into buf.
func (a *App) profile(ctx context.Context, graph *hclgraph.Graph, buf *bytes.Buffer) error {
	logger := ctxlog.FromContext(ctx).With("model", graph.Name)
	ctx = ctxlog.WithLogger(ctx, logger)

	opts := a.options(graph.Options(meter.DefaultOptions()))
	m, err := meter.New(ctx, graph.Root, graph.Runner(), opts)
	if err != nil {
		return err
	}
	if a.config.Rebase != "" {
		if m, err = m.Rebase(ctx, a.config.Rebase); err != nil {
			return err
		}
	}

	if err := m.Measure(ctx, a.config.Facets...); err != nil {
		return err
	}
	logger.Info("Model measured.", "operations", m.Tree().Len(), "facets", a.config.Facets)

	if err := writeReport(buf, graph, m, a.config.Facets); err != nil {
		return err
	}
	if a.config.ProfileDir != "" {
		return a.writeProfile(ctx, graph.Name, m)
	}
	return nil
}

func (a *App) writeProfile(ctx context.Context, name string, m *meter.Meter) error {
	logger := ctxlog.FromContext(ctx)

	var metrics []pprofexport.Metric
	for _, k := range a.config.Facets {
		switch k {
		case stat.KindParam:
			metrics = append(metrics, pprofexport.Params)
		case stat.KindCal:
			metrics = append(metrics, pprofexport.MACs, pprofexport.FLOPs)
		case stat.KindMem:
			metrics = append(metrics, pprofexport.Memory)
		}
	}
	if len(metrics) == 0 {
		logger.Warn("No profile written: ittp has no additive sample type.")
		return nil
	}

	p, err := pprofexport.Build(m.Tree(), metrics...)
	if err != nil {
		return err
	}
	path := filepath.Join(a.config.ProfileDir, name+".pb.gz")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating profile file: %w", err)
	}
	if err := pprofexport.Write(f, p); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing profile file: %w", err)
	}
	logger.Info("Profile written.", "path", path)
	return nil
}
