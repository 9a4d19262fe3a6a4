package optree

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/opmeter/internal/module"
	"github.com/vk/opmeter/internal/nodeid"
	"github.com/vk/opmeter/internal/stat"
)

func linear(in, out int) *module.Block {
	b := module.NewBlock("Linear")
	b.Settings = cty.ObjectVal(map[string]cty.Value{
		"in_features":  cty.NumberIntVal(int64(in)),
		"out_features": cty.NumberIntVal(int64(out)),
	})
	b.Output = module.Shape{1, out}
	b.Params = []module.Parameter{
		{Name: "weight", Shape: module.Shape{out, in}, Trainable: true, ElemBytes: 4},
		{Name: "bias", Shape: module.Shape{out}, Trainable: true, ElemBytes: 4},
	}
	return b
}

func ids(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.IDString()
	}
	return out
}

func TestBuild_Ids(t *testing.T) {
	inner := module.NewBlock("Sequential").
		Add("fc", linear(4, 4)).
		Add("act", module.NewBlock("ReLU"))
	root := module.NewBlock("Net").
		Add("stem", linear(4, 4)).
		Add("body", inner).
		Add("head", linear(4, 2))

	tree := Build(context.Background(), root, Options{})

	assert.Equal(t, []string{"0", "1", "2", "2.1", "2.2", "3"}, ids(tree.Nodes()))
	assert.Equal(t, []string{
		"(0) Net",
		"(1) stem",
		"(2) body",
		"(2.1) fc",
		"(2.2) act",
		"(3) head",
	}, tree.Subnodes())

	body, ok := tree.Node("2")
	require.True(t, ok)
	assert.False(t, body.Leaf)
	assert.Equal(t, "Sequential", body.Type)
	assert.Equal(t, []string{"2.1", "2.2"}, ids(body.Children()))
	assert.Same(t, tree.Root(), body.Parent())
	assert.Nil(t, tree.Root().Parent())
	assert.True(t, tree.Root().IsRoot())

	act, _ := tree.Node("2.2")
	assert.True(t, act.Leaf)
	assert.Equal(t, 2, act.Depth())
	assert.Equal(t, []string{"2.2", "2", "0"}, ids(act.Path()))
	assert.Len(t, tree.Leaves(), 4)
}

func TestBuild_NamedRoot(t *testing.T) {
	tree := Build(context.Background(), module.NewBlock("Sequential"), Options{Name: "Model"})
	assert.Equal(t, "Model", tree.Root().Name)
}

func TestBuild_SingleLeaf(t *testing.T) {
	tree := Build(context.Background(), linear(2, 2), Options{})
	require.Equal(t, 1, tree.Len())
	assert.True(t, tree.Root().Leaf)
	assert.Equal(t, "0", tree.Root().IDString())
	assert.Equal(t, "Linear", tree.Root().Name)
}

func TestBuild_SharedInstanceWrappedOnce(t *testing.T) {
	shared := linear(3, 3)
	root := module.NewBlock("Net").
		Add("a", shared).
		Add("b", module.NewBlock("ReLU")).
		Add("c", shared).
		Add("d", module.NewBlock("Sequential").Add("again", shared).Add("x", module.NewBlock("Identity")))

	tree := Build(context.Background(), root, Options{})

	assert.Equal(t, []string{"0", "1", "2", "4", "4.2"}, ids(tree.Nodes()))
	_, ok := tree.Node("3")
	assert.False(t, ok, "a skipped shared instance leaves a gap")

	total, err := tree.Root().Stats.Param.Val()
	require.NoError(t, err)
	assert.Equal(t, int64(12), total.Total.Val(), "shared parameters are counted once")
}

func TestBuild_IdsIgnoreFolding(t *testing.T) {
	root := module.NewBlock("Net")
	for _, name := range []string{"l0", "l1", "l2", "l3"} {
		root.Add(name, linear(8, 8))
	}
	tree := Build(context.Background(), root, Options{})

	for i, n := range tree.Root().Children() {
		assert.Equal(t, nodeid.Root().Child(i+1), n.ID)
	}
	assert.Equal(t, []string{"0", "1"}, ids(tree.Visible(true)))
	assert.Equal(t, []string{"0", "1", "2", "3", "4"}, ids(tree.Visible(false)))
}

func TestBuild_SevenRepeatedPlusTwo(t *testing.T) {
	root := module.NewBlock("Sequential")
	for _, name := range []string{"layer.0", "layer.1", "layer.2", "layer.3", "layer.4", "layer.5", "layer.6"} {
		root.Add(name, linear(16, 16))
	}
	root.Add("act", module.NewBlock("ReLU"))
	root.Add("drop", module.NewBlock("Dropout"))

	tree := Build(context.Background(), root, Options{})

	assert.Len(t, tree.Root().VisibleChildren(true), 3)
	assert.Len(t, tree.Root().VisibleChildren(false), 9)

	leader, _ := tree.Node("1")
	assert.Equal(t, Repeat{
		WindowSize: 1,
		RepeatTime: 7,
		Members:    []Member{{ID: "1", Name: "layer.0"}},
	}, leader.Repeat)
	assert.True(t, leader.Repeat.IsRun())
	assert.False(t, leader.Folded)

	for _, id := range []string{"2", "3", "4", "5", "6", "7"} {
		n, _ := tree.Node(id)
		assert.True(t, n.Folded, id)
		assert.False(t, n.RenderWhenRepeat, id)
	}
	for _, id := range []string{"8", "9"} {
		n, _ := tree.Node(id)
		assert.False(t, n.Folded, id)
		assert.Equal(t, Repeat{WindowSize: 1, RepeatTime: 1}, n.Repeat)
	}
}

func TestBuild_RenderEligibilityCascades(t *testing.T) {
	block := func() *module.Block {
		return module.NewBlock("Sequential").Add("fc", linear(4, 4)).Add("act", module.NewBlock("ReLU"))
	}
	root := module.NewBlock("Net").Add("b0", block()).Add("b1", block())
	tree := Build(context.Background(), root, Options{})

	for id, want := range map[string]bool{
		"1": true, "1.1": true, "1.2": true,
		"2": false, "2.1": false, "2.2": false,
	} {
		n, ok := tree.Node(id)
		require.True(t, ok, id)
		assert.Equal(t, want, n.RenderWhenRepeat, id)
	}

	first, _ := tree.Node("1")
	assert.Equal(t, 2, first.Repeat.RepeatTime)
	inner, _ := tree.Node("1.1")
	assert.False(t, inner.Repeat.IsRun())
}

func TestTree_Find(t *testing.T) {
	root := module.NewBlock("Net").Add("a", module.NewBlock("Sequential").Add("b", linear(1, 1)))
	tree := Build(context.Background(), root, Options{})

	n, err := tree.Find("1.1")
	require.NoError(t, err)
	assert.Equal(t, "b", n.Name)

	_, err = tree.Find("1.9")
	assert.ErrorIs(t, err, ErrNodeNotFound)

	_, err = tree.Find("1..2")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNodeNotFound))
}

type brokenComponent struct{}

func (*brokenComponent) Type() string { return "Broken" }
func (*brokenComponent) Children() []module.Child {
	return []module.Child{{Name: "ghost"}}
}
func (*brokenComponent) Config() cty.Value                      { return cty.EmptyObjectVal }
func (*brokenComponent) Parameters() []module.Parameter         { return nil }
func (*brokenComponent) Buffers() []module.Buffer               { return nil }
func (*brokenComponent) AttachHook(module.Hook) module.Detacher { return nil }

func TestBuild_Panics(t *testing.T) {
	assert.Panics(t, func() { Build(context.Background(), nil, Options{}) })
	assert.Panics(t, func() { Build(context.Background(), &brokenComponent{}, Options{}) })
}

func TestTree_MeasureAll(t *testing.T) {
	root := module.NewBlock("Net").
		Add("a", linear(4, 4)).
		Add("b", module.NewBlock("Sequential").Add("c", linear(4, 2)))
	tree := Build(context.Background(), root, Options{})

	sum, err := tree.Root().Stats.Param.Val()
	require.NoError(t, err)
	assert.Equal(t, int64(20+10), sum.Total.Val())
	for _, n := range tree.Nodes() {
		assert.True(t, n.Stats.Param.Measured(), n.IDString())
	}

	_, err = tree.Root().Stats.Cal.Val()
	assert.ErrorIs(t, err, stat.ErrNoExecutionPass)

	var asked []stat.Kind
	tree.SetPass(func(k stat.Kind) error {
		asked = append(asked, k)
		return nil
	})
	require.NoError(t, tree.MeasureAll(stat.KindMem))
	assert.Equal(t, []stat.Kind{stat.KindMem}, asked)
}
