package optree

import (
	"slices"

	"github.com/vk/opmeter/internal/module"
	"github.com/vk/opmeter/internal/traverse"
)

// foldRepeats runs repeat detection over the children of every node, top
// down, and returns the number of runs found.
func (t *Tree) foldRepeats() int {
	fps := module.NewFingerprints()
	runs := 0
	traverse.DFS(t.Root(), (*Node).Children,
		func(n *Node) int { return n.index },
		func(n *Node, _ struct{}) struct{} {
			children := n.Children()
			prints := make([]string, len(children))
			for i, c := range children {
				c.RenderWhenRepeat = n.RenderWhenRepeat
				prints[i] = fps.Of(c.Component)
			}
			runs += detectRepeats(children, prints)
			return struct{}{}
		}, struct{}{})
	return runs
}

// detectRepeats classifies an ordered sibling list greedily.
//
// At each cursor position the widest window w for which the next w
// fingerprints equal the w after them is taken. A run of identical elements
// collapses to w=1. The run then extends one window at a time while the
// window matches the first one. The leader records window size, repeat
// count and members; every other node of the run is folded, and nodes past
// the first window lose render eligibility. Without a match the cursor
// advances by one.
func detectRepeats(siblings []*Node, fp []string) int {
	n := len(siblings)
	runs := 0
	for c := 0; c < n; {
		w := 0
		for cand := (n - c) / 2; cand >= 1; cand-- {
			if slices.Equal(fp[c:c+cand], fp[c+cand:c+2*cand]) {
				w = cand
				break
			}
		}
		if w == 0 {
			c++
			continue
		}

		times := 2
		if allEqual(fp[c : c+2*w]) {
			times, w = 2*w, 1
		}
		for end := c + w*(times+1); end <= n && slices.Equal(fp[c:c+w], fp[end-w:end]); end += w {
			times++
		}

		leader := siblings[c]
		members := make([]Member, w)
		for i, m := range siblings[c : c+w] {
			members[i] = Member{ID: m.ID.String(), Name: m.Name}
		}
		leader.Repeat = Repeat{WindowSize: w, RepeatTime: times, Members: members}

		for i := c + 1; i < c+w*times; i++ {
			siblings[i].Folded = true
			if i >= c+w {
				siblings[i].RenderWhenRepeat = false
			}
		}
		runs++
		c += w * times
	}
	return runs
}

func allEqual(fp []string) bool {
	for _, f := range fp[1:] {
		if f != fp[0] {
			return false
		}
	}
	return true
}
