package traverse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type item struct {
	name     string
	children []*item
}

func children(i *item) []*item { return i.children }
func self(i *item) *item       { return i }

func TestDFS_PreOrder(t *testing.T) {
	leafA := &item{name: "a"}
	leafB := &item{name: "b"}
	mid := &item{name: "mid", children: []*item{leafA, leafB}}
	leafC := &item{name: "c"}
	root := &item{name: "root", children: []*item{mid, leafC}}

	var order []string
	DFS(root, children, self, func(i *item, _ struct{}) struct{} {
		order = append(order, i.name)
		return struct{}{}
	}, struct{}{})

	assert.Equal(t, []string{"root", "mid", "a", "b", "c"}, order)
}

func TestDFS_ThreadsParentResult(t *testing.T) {
	root := &item{name: "r", children: []*item{
		{name: "x", children: []*item{{name: "y"}}},
		{name: "z"},
	}}

	paths := map[string]string{}
	res := DFS(root, children, self, func(i *item, up string) string {
		p := strings.TrimPrefix(up+"/"+i.name, "/")
		paths[i.name] = p
		return p
	}, "")

	assert.Equal(t, "r", res)
	assert.Equal(t, map[string]string{
		"r": "r",
		"x": "r/x",
		"y": "r/x/y",
		"z": "r/z",
	}, paths)
}

func TestDFS_VisitsSharedSubjectOnce(t *testing.T) {
	shared := &item{name: "shared", children: []*item{{name: "inner"}}}
	root := &item{name: "root", children: []*item{shared, {name: "mid", children: []*item{shared}}, shared}}

	counts := map[string]int{}
	DFS(root, children, self, func(i *item, _ int) int {
		counts[i.name]++
		return 0
	}, 0)

	assert.Equal(t, 1, counts["shared"])
	assert.Equal(t, 1, counts["inner"])
	assert.Equal(t, 1, counts["mid"])
}

func TestDFS_AdjacencyIsLazy(t *testing.T) {
	root := &item{name: "root", children: []*item{{name: "a"}}}
	var log []string
	DFS(root,
		func(i *item) []*item {
			log = append(log, "adj:"+i.name)
			return i.children
		},
		self,
		func(i *item, _ int) int {
			log = append(log, "task:"+i.name)
			return 0
		}, 0)

	assert.Equal(t, []string{"task:root", "adj:root", "task:a", "adj:a"}, log)
}
