package hclgraph

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes every top-level block of a file.
type fileRoot struct {
	Meter  *MeterBlock   `hcl:"meter,block"`
	Models []*ModelBlock `hcl:"model,block"`
	Remain hcl.Body      `hcl:",remain"`
}

// MeterBlock holds per-file measurement defaults.
type MeterBlock struct {
	FoldRepeat      *bool `hcl:"fold_repeat,optional"`
	Warmup          *int  `hcl:"warmup,optional"`
	BenchmarkRepeat *int  `hcl:"benchmark_repeat,optional"`
}

// ModelBlock is the root of one module graph.
type ModelBlock struct {
	Name      string         `hcl:"name,label"`
	Type      *string        `hcl:"type,optional"`
	Input     []int          `hcl:"input"`
	ElemBytes *int           `hcl:"elem_bytes,optional"`
	Modules   []*ModuleBlock `hcl:"module,block"`
}

// ModuleBlock declares one component.
type ModuleBlock struct {
	Name    string         `hcl:"name,label"`
	Type    string         `hcl:"type"`
	Repeat  *int           `hcl:"repeat,optional"`
	Config  hcl.Expression `hcl:"config,optional"`
	Output  []int          `hcl:"output,optional"`
	Skip    bool           `hcl:"skip,optional"`
	Params  []*TensorBlock `hcl:"param,block"`
	Buffers []*TensorBlock `hcl:"buffer,block"`
	Modules []*ModuleBlock `hcl:"module,block"`
}

// TensorBlock declares a parameter or buffer.
type TensorBlock struct {
	Name      string `hcl:"name,label"`
	Shape     []int  `hcl:"shape"`
	Trainable *bool  `hcl:"trainable,optional"`
}
