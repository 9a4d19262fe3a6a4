package hclgraph

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/opmeter/internal/ctxlog"
	"github.com/vk/opmeter/internal/fsutil"
	"github.com/vk/opmeter/internal/meter"
	"github.com/vk/opmeter/internal/module"
)

// Graph is one loaded model.
type Graph struct {
	Name  string
	File  string
	Input module.Shape
	Root  *module.Block
	Meter *MeterBlock
}

// Runner returns a runner that executes the graph with its declared input.
func (g *Graph) Runner() *module.SequentialRunner {
	return module.NewSequentialRunner(g.Root, g.Input)
}

// Options overlays the file's meter block onto base.
func (g *Graph) Options(base meter.Options) meter.Options {
	opts := base
	opts.Name = g.Name
	if g.Meter == nil {
		return opts
	}
	opts.FoldRepeat = boolOr(g.Meter.FoldRepeat, opts.FoldRepeat)
	opts.Warmup = intOr(g.Meter.Warmup, opts.Warmup)
	opts.BenchmarkRepeat = intOr(g.Meter.BenchmarkRepeat, opts.BenchmarkRepeat)
	return opts
}

// Load parses every .hcl file under the given paths. Paths that do not
// exist are skipped; model names must be unique across all files.
func Load(ctx context.Context, paths ...string) ([]*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFilesByExtension(".hcl", paths...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	var graphs []*Graph
	names := make(map[string]string)
	for _, file := range files {
		f, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		loaded, err := decodeFile(ctx, file, f)
		if err != nil {
			return nil, err
		}
		for _, g := range loaded {
			if prev, dup := names[g.Name]; dup {
				return nil, fmt.Errorf("model '%s' defined in both %s and %s", g.Name, prev, file)
			}
			names[g.Name] = file
		}
		graphs = append(graphs, loaded...)
	}

	logger.Debug("HCL loading complete.", "models", len(graphs))
	return graphs, nil
}

// Parse decodes the models of one in-memory source.
func Parse(ctx context.Context, filename string, src []byte) ([]*Graph, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	return decodeFile(ctx, filename, f)
}

func decodeFile(ctx context.Context, filename string, f *hcl.File) ([]*Graph, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(f.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	graphs := make([]*Graph, 0, len(root.Models))
	for _, m := range root.Models {
		b, err := translateModel(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		graphs = append(graphs, &Graph{
			Name:  m.Name,
			File:  filename,
			Input: module.Shape(m.Input),
			Root:  b,
			Meter: root.Meter,
		})
	}
	return graphs, nil
}
