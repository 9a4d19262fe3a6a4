package stat

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/opmeter/internal/module"
)

// CostFunc estimates the compute cost of one invocation.
type CostFunc func(c module.Component, inv module.Invocation) (macs, flops int64)

// CostRegistry maps component types to cost formulas.
type CostRegistry struct {
	funcs map[string]CostFunc
}

// NewCostRegistry creates a registry with no formulas.
func NewCostRegistry() *CostRegistry {
	return &CostRegistry{funcs: make(map[string]CostFunc)}
}

// Register adds a formula for a component type. Registering a type twice is
// a programmer error.
func (r *CostRegistry) Register(typ string, fn CostFunc) {
	if _, exists := r.funcs[typ]; exists {
		panic(fmt.Sprintf("cost formula for type '%s' already registered", typ))
	}
	slog.Debug("Registering cost formula.", "type", typ)
	r.funcs[typ] = fn
}

// Lookup returns the formula for a component type.
func (r *CostRegistry) Lookup(typ string) (CostFunc, bool) {
	fn, ok := r.funcs[typ]
	return fn, ok
}

// Types returns the registered types in sorted order.
func (r *CostRegistry) Types() []string {
	return slices.Sorted(maps.Keys(r.funcs))
}

// DefaultCosts returns a registry with reference formulas for a handful of
// common operation types.
func DefaultCosts() *CostRegistry {
	r := NewCostRegistry()
	r.Register("Linear", linearCost)
	r.Register("ReLU", elementwiseCost)
	r.Register("Identity", freeCost)
	r.Register("Dropout", freeCost)
	r.Register("Add", addCost)
	return r
}

func freeCost(module.Component, module.Invocation) (int64, int64) { return 0, 0 }

func elementwiseCost(_ module.Component, inv module.Invocation) (int64, int64) {
	return 0, inv.Output.Elements()
}

func addCost(_ module.Component, inv module.Invocation) (int64, int64) {
	if len(inv.Inputs) < 2 {
		return 0, 0
	}
	return 0, inv.Output.Elements() * int64(len(inv.Inputs)-1)
}

// linearCost treats the last dimension of the input as in_features and the
// last dimension of the output as out_features.
func linearCost(c module.Component, inv module.Invocation) (int64, int64) {
	if len(inv.Inputs) == 0 || len(inv.Inputs[0]) == 0 || len(inv.Output) == 0 {
		return 0, 0
	}
	in := int64(inv.Inputs[0][len(inv.Inputs[0])-1])
	out := int64(inv.Output[len(inv.Output)-1])
	if out == 0 {
		return 0, 0
	}
	rows := inv.Output.Elements() / out

	macs := in * out * rows
	flops := (2*in - 1) * out * rows
	if configBool(c.Config(), "bias", true) {
		flops += out * rows
	}
	return macs, flops
}

func configBool(cfg cty.Value, name string, fallback bool) bool {
	if cfg.IsNull() || !cfg.Type().IsObjectType() || !cfg.Type().HasAttribute(name) {
		return fallback
	}
	var v bool
	if err := gocty.FromCtyValue(cfg.GetAttr(name), &v); err != nil {
		return fallback
	}
	return v
}
