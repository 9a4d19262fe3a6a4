package hclgraph

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/opmeter/internal/module"
)

const (
	defaultRootType  = "Sequential"
	defaultElemBytes = 4
)

// translateModel converts a decoded model block into a Block tree.
func translateModel(ctx context.Context, m *ModelBlock) (*module.Block, error) {
	if len(m.Input) == 0 {
		return nil, fmt.Errorf("model '%s': input shape must not be empty", m.Name)
	}
	elemBytes := intOr(m.ElemBytes, defaultElemBytes)
	if elemBytes < 1 {
		return nil, fmt.Errorf("model '%s': elem_bytes must be >= 1, got %d", m.Name, elemBytes)
	}

	root := module.NewBlock(defaultRootType)
	if m.Type != nil {
		root.Kind = *m.Type
	}
	root.ElemBytes = elemBytes

	if err := addModules(ctx, root, m.Modules, elemBytes, m.Name); err != nil {
		return nil, err
	}
	return root, nil
}

// addModules appends the expanded children of one block.
func addModules(ctx context.Context, parent *module.Block, defs []*ModuleBlock, elemBytes int, path string) error {
	seen := make(map[string]struct{})
	for _, def := range defs {
		if _, dup := seen[def.Name]; dup {
			return fmt.Errorf("%s: duplicate module '%s'", path, def.Name)
		}
		seen[def.Name] = struct{}{}

		count := intOr(def.Repeat, 1)
		if count < 1 {
			return fmt.Errorf("%s.%s: repeat must be >= 1, got %d", path, def.Name, count)
		}
		for i := range count {
			name := def.Name
			if def.Repeat != nil {
				name = fmt.Sprintf("%s.%d", def.Name, i)
			}
			b, err := translateModule(ctx, def, elemBytes, path+"."+name)
			if err != nil {
				return err
			}
			parent.Add(name, b)
		}
	}
	return nil
}

// translateModule builds one fresh Block instance from its definition.
func translateModule(ctx context.Context, def *ModuleBlock, elemBytes int, path string) (*module.Block, error) {
	b := module.NewBlock(def.Type)
	b.ElemBytes = elemBytes
	b.Skip = def.Skip
	if def.Output != nil {
		b.Output = module.Shape(def.Output)
	}

	cfg, err := decodeConfig(ctx, def.Config, path)
	if err != nil {
		return nil, err
	}
	b.Settings = cfg

	for _, p := range def.Params {
		b.Params = append(b.Params, module.Parameter{
			Name:      p.Name,
			Shape:     module.Shape(p.Shape),
			Trainable: boolOr(p.Trainable, true),
			ElemBytes: elemBytes,
		})
	}
	for _, buf := range def.Buffers {
		b.Bufs = append(b.Bufs, module.Buffer{
			Name:      buf.Name,
			Shape:     module.Shape(buf.Shape),
			ElemBytes: elemBytes,
		})
	}

	if err := addModules(ctx, b, def.Modules, elemBytes, path); err != nil {
		return nil, err
	}
	return b, nil
}

// decodeConfig evaluates the config attribute into an object value.
func decodeConfig(ctx context.Context, expr hcl.Expression, path string) (cty.Value, error) {
	if !isExprDefined(ctx, expr, "config") {
		return cty.EmptyObjectVal, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("%s: invalid config: %w", path, diags)
	}
	if val.IsNull() {
		return cty.EmptyObjectVal, nil
	}
	if !val.Type().IsObjectType() {
		return cty.NilVal, fmt.Errorf("%s: config must be an object, got %s", path, val.Type().FriendlyName())
	}
	if !val.IsWhollyKnown() {
		return cty.NilVal, fmt.Errorf("%s: config must be fully known", path)
	}
	return val, nil
}
