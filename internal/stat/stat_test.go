package stat

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/opmeter/internal/accum"
	"github.com/vk/opmeter/internal/module"
)

type fixture struct {
	env    *Env
	root   *module.Block
	fc     *module.Block
	act    *module.Block
	rootFs *Set
	fcFs   *Set
	actFs  *Set
}

func linearBlock(in, out int, bias bool) *module.Block {
	b := module.NewBlock("Linear")
	b.Settings = cty.ObjectVal(map[string]cty.Value{
		"in_features":  cty.NumberIntVal(int64(in)),
		"out_features": cty.NumberIntVal(int64(out)),
		"bias":         cty.BoolVal(bias),
	})
	b.Output = module.Shape{1, out}
	b.Params = []module.Parameter{{Name: "weight", Shape: module.Shape{out, in}, Trainable: true, ElemBytes: 4}}
	if bias {
		b.Params = append(b.Params, module.Parameter{Name: "bias", Shape: module.Shape{out}, Trainable: true, ElemBytes: 4})
	}
	return b
}

func newFixture(t *testing.T, fc *module.Block) *fixture {
	t.Helper()
	f := &fixture{env: NewEnv(DefaultCosts()), fc: fc, act: module.NewBlock("ReLU")}
	f.root = module.NewBlock("Sequential").Add("fc", f.fc).Add("act", f.act)
	f.rootFs = NewSet(Binding{Identity: Identity{ID: "0", Name: "Net", Type: "Sequential"}, Component: f.root, Env: f.env}, nil)
	f.fcFs = NewSet(Binding{Identity: Identity{ID: "1", Name: "fc", Type: fc.Kind}, Component: f.fc, Leaf: true, Env: f.env}, f.rootFs)
	f.actFs = NewSet(Binding{Identity: Identity{ID: "2", Name: "act", Type: "ReLU"}, Component: f.act, Leaf: true, Env: f.env}, f.rootFs)
	return f
}

func (f *fixture) sets() []*Set { return []*Set{f.rootFs, f.fcFs, f.actFs} }

// pass measures kind on every set and runs one execution pass.
func (f *fixture) pass(t *testing.T, kind Kind) {
	t.Helper()
	var ds module.Detachers
	for _, s := range f.sets() {
		facet, err := s.Facet(kind)
		require.NoError(t, err)
		d, err := facet.Measure()
		require.NoError(t, err)
		ds = append(ds, d)
	}
	defer ds.Detach()
	require.NoError(t, module.NewSequentialRunner(f.root, module.Shape{1, 16}).Run(context.Background()))
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("latency")
	assert.ErrorIs(t, err, ErrUnknownFacet)

	_, err = (&Set{}).Facet("nope")
	assert.ErrorIs(t, err, ErrUnknownFacet)
}

func TestParam(t *testing.T) {
	f := newFixture(t, linearBlock(16, 8, true))
	f.pass(t, KindParam)

	rows, err := f.fcFs.Param.DetailVal()
	require.NoError(t, err)
	want := []ParamRecord{
		{OperationID: "1", OperationType: "Linear", ParamName: "weight", Trainable: true, Elements: 128},
		{OperationID: "1", OperationType: "Linear", ParamName: "bias", Trainable: true, Elements: 8},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("param rows mismatch (-want +got):\n%s", diff)
	}

	rows, err = f.actFs.Param.DetailVal()
	require.NoError(t, err)
	assert.Equal(t, []ParamRecord{{OperationID: "2", OperationType: "ReLU", ParamName: "-"}}, rows)

	rootRows, err := f.rootFs.Param.DetailVal()
	require.NoError(t, err)
	assert.Empty(t, rootRows, "only leaves contribute rows")

	sum, err := f.rootFs.Param.Val()
	require.NoError(t, err)
	assert.Equal(t, int64(136), sum.Total.Val())
	assert.Equal(t, int64(136), sum.Trainable.Val())
	assert.Equal(t, "Net", sum.OperationName)
}

func TestParam_Idempotent(t *testing.T) {
	f := newFixture(t, linearBlock(4, 2, false))
	d, err := f.fcFs.Param.Measure()
	require.NoError(t, err)
	assert.Nil(t, d)
	_, err = f.fcFs.Param.Measure()
	require.NoError(t, err)

	rows, err := f.fcFs.Param.DetailVal()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, int64(8), f.rootFs.Param.Total().Val())
}

func TestParam_StandaloneReadMeasuresSelf(t *testing.T) {
	f := newFixture(t, linearBlock(4, 2, false))
	sum, err := f.fcFs.Param.Val()
	require.NoError(t, err)
	assert.Equal(t, int64(8), sum.Total.Val())
	assert.True(t, f.fcFs.Param.Measured())
}

func TestCal(t *testing.T) {
	t.Run("registered types", func(t *testing.T) {
		f := newFixture(t, linearBlock(16, 8, true))
		f.pass(t, KindCal)

		rows, err := f.fcFs.Cal.DetailVal()
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, accum.Of(128), rows[0].MACs)
		assert.Equal(t, accum.Of(256), rows[0].FLOPs)
		assert.Equal(t, []module.Shape{{1, 16}}, rows[0].Inputs)
		assert.Equal(t, module.Shape{1, 8}, rows[0].Output)

		sum, err := f.rootFs.Cal.Val()
		require.NoError(t, err)
		assert.Equal(t, int64(128), sum.MACs.Val())
		assert.Equal(t, int64(256+8), sum.FLOPs.Val())
		assert.True(t, f.actFs.Cal.Called())
		assert.False(t, f.fcFs.Cal.Unsupported())
	})

	t.Run("bias disabled", func(t *testing.T) {
		f := newFixture(t, linearBlock(16, 8, false))
		f.pass(t, KindCal)
		assert.Equal(t, int64(248), f.fcFs.Cal.FLOPs().Val())
	})

	t.Run("unsupported type", func(t *testing.T) {
		conv := module.NewBlock("Conv2d")
		conv.Output = module.Shape{1, 4, 4}
		f := newFixture(t, conv)
		f.pass(t, KindCal)

		rows, err := f.fcFs.Cal.DetailVal()
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Conv2d", rows[0].OperationType)
		assert.Equal(t, module.Shape{1, 4, 4}, rows[0].Output)
		assert.Equal(t, accum.NotSupported, rows[0].MACs)
		assert.Equal(t, accum.NotSupported, rows[0].FLOPs)
		assert.True(t, f.fcFs.Cal.Unsupported())
		assert.Equal(t, int64(0), f.fcFs.Cal.MACs().Val())
	})

	t.Run("idempotent", func(t *testing.T) {
		f := newFixture(t, linearBlock(16, 8, true))
		f.pass(t, KindCal)
		f.pass(t, KindCal)

		rows, err := f.fcFs.Cal.DetailVal()
		require.NoError(t, err)
		assert.Len(t, rows, 1)
		assert.Equal(t, int64(128), f.rootFs.Cal.MACs().Val())
		assert.Equal(t, 0, f.fc.HookCount())
	})

	t.Run("no execution pass", func(t *testing.T) {
		f := newFixture(t, linearBlock(16, 8, true))
		_, err := f.fcFs.Cal.DetailVal()
		assert.ErrorIs(t, err, ErrNoExecutionPass)
		_, err = f.fcFs.Mem.Val()
		assert.ErrorIs(t, err, ErrNoExecutionPass)
		_, err = f.fcFs.Ittp.Val()
		assert.ErrorIs(t, err, ErrNoExecutionPass)
	})
}

func TestMem(t *testing.T) {
	f := newFixture(t, linearBlock(16, 8, true))
	f.act.Bufs = []module.Buffer{{Name: "mask", Shape: module.Shape{8}, ElemBytes: 1}}
	f.pass(t, KindMem)

	rows, err := f.fcFs.Mem.DetailVal()
	require.NoError(t, err)
	assert.Equal(t, []MemRecord{{
		OperationID:    "1",
		OperationType:  "Linear",
		OperationName:  "fc",
		ParamCost:      544,
		FeatureMapCost: 32,
		Total:          576,
	}}, rows)

	sum, err := f.rootFs.Mem.Val()
	require.NoError(t, err)
	assert.Equal(t, int64(544), sum.ParamCost.Val())
	assert.Equal(t, int64(8), sum.BufferCost.Val())
	assert.Equal(t, int64(64), sum.FeatureMapCost.Val())
	assert.Equal(t, int64(616), sum.Total.Val())
	assert.Equal(t, "616 = 616.00 B", sum.Total.String())
}

func TestIttp(t *testing.T) {
	f := newFixture(t, linearBlock(16, 8, true))
	f.env.Timing = Timing{Warmup: 1, Repeat: 3}
	f.pass(t, KindIttp)

	for _, s := range f.sets() {
		assert.True(t, s.Ittp.Called())
		sum, err := s.Ittp.Val()
		require.NoError(t, err)
		assert.Equal(t, 3, sum.Samples)
		assert.Greater(t, sum.InferTime, 0.0)
		assert.Greater(t, sum.Throughput, 0.0)
	}

	rows, err := f.rootFs.Ittp.DetailVal()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.InDelta(t, 1/rows[2].Latency, rows[2].Throughput, 1e-6)

	// A second measurement replaces the samples.
	f.env.Timing = Timing{Repeat: 2}
	f.pass(t, KindIttp)
	sum, err := f.rootFs.Ittp.Val()
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Samples)
}

func TestIttp_NotCalled(t *testing.T) {
	f := newFixture(t, linearBlock(16, 8, true))
	f.act.Skip = true
	f.pass(t, KindIttp)

	assert.False(t, f.actFs.Ittp.Called())
	sum, err := f.actFs.Ittp.Val()
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Samples)
	assert.True(t, math.IsNaN(sum.InferTime))
}

type countingCoordinator struct {
	calls map[Kind]int
	set   *Set
}

func (c *countingCoordinator) MeasureAll(kind Kind) error {
	c.calls[kind]++
	if kind.NeedsPass() {
		return ErrNoExecutionPass
	}
	_, err := c.set.Param.Measure()
	return err
}

func TestCoordinatorOnRead(t *testing.T) {
	f := newFixture(t, linearBlock(4, 2, false))
	coord := &countingCoordinator{calls: map[Kind]int{}, set: f.fcFs}
	f.env.Coordinator = coord

	_, err := f.fcFs.Param.Val()
	require.NoError(t, err)
	_, err = f.fcFs.Param.DetailVal()
	require.NoError(t, err)
	assert.Equal(t, 1, coord.calls[KindParam], "measured facets do not call back")

	_, err = f.fcFs.Cal.Val()
	assert.ErrorIs(t, err, ErrNoExecutionPass)
	assert.Equal(t, 1, coord.calls[KindCal])
}

func TestReset(t *testing.T) {
	cases := []struct {
		kind  Kind
		total func(*Set) accum.Accumulator
		rows  func(*Set) int
	}{
		{KindParam, func(s *Set) accum.Accumulator { return s.Param.Total() }, func(s *Set) int { return len(s.Param.rows) }},
		{KindCal, func(s *Set) accum.Accumulator { return s.Cal.FLOPs() }, func(s *Set) int { return len(s.Cal.rows) }},
		{KindMem, func(s *Set) accum.Accumulator { return s.Mem.Total() }, func(s *Set) int { return len(s.Mem.rows) }},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			f := newFixture(t, linearBlock(4, 2, true))
			f.pass(t, tc.kind)
			want, wantRows := tc.total(f.rootFs).Val(), tc.rows(f.fcFs)
			require.Positive(t, want)

			for _, s := range f.sets() {
				facet, err := s.Facet(tc.kind)
				require.NoError(t, err)
				facet.Reset()
				assert.False(t, facet.Measured())
				assert.Equal(t, int64(0), tc.total(s).Val())
			}
			assert.Equal(t, 0, tc.rows(f.fcFs))

			f.pass(t, tc.kind)
			assert.Equal(t, want, tc.total(f.rootFs).Val(), "a new pass does not add to stale values")
			assert.Equal(t, wantRows, tc.rows(f.fcFs))
		})
	}

	t.Run("ittp", func(t *testing.T) {
		f := newFixture(t, linearBlock(4, 2, true))
		f.pass(t, KindIttp)
		f.fcFs.Ittp.Reset()
		assert.False(t, f.fcFs.Ittp.Called())
		_, err := f.fcFs.Ittp.Val()
		assert.ErrorIs(t, err, ErrNoExecutionPass)
	})
}

func TestCostRegistry(t *testing.T) {
	r := NewCostRegistry()
	_, ok := r.Lookup("Linear")
	assert.False(t, ok)

	assert.Equal(t, []string{"Add", "Dropout", "Identity", "Linear", "ReLU"}, DefaultCosts().Types())

	r.Register("Foo", freeCost)
	assert.Panics(t, func() { r.Register("Foo", freeCost) })

	macs, flops := addCost(nil, module.Invocation{
		Inputs: []module.Shape{{2, 3}, {2, 3}, {2, 3}},
		Output: module.Shape{2, 3},
	})
	assert.Equal(t, int64(0), macs)
	assert.Equal(t, int64(12), flops)
}

func TestNewSet_Panics(t *testing.T) {
	assert.Panics(t, func() { NewSet(Binding{Component: module.NewBlock("X")}, nil) })
	assert.Panics(t, func() { NewSet(Binding{Env: NewEnv(nil)}, nil) })
}
