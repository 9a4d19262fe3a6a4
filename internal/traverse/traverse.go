// Package traverse provides the depth-first walker used to build operation
// trees and to visit them afterwards.
package traverse

// DFS walks the structure rooted at root depth-first in pre-order.
//
// adj lazily yields the children of a subject; it is called only after the
// subject's own task has run. key identifies subjects: a subject whose key
// has already been seen is skipped together with everything beneath it.
// task receives the subject and the result of its parent's task (parent for
// the root) and returns the result threaded to its own children.
//
// DFS returns the root's task result.
func DFS[S any, K comparable, R any](
	root S,
	adj func(S) []S,
	key func(S) K,
	task func(subject S, parentResult R) R,
	parent R,
) R {
	visited := make(map[K]struct{})

	var visit func(s S, up R) (R, bool)
	visit = func(s S, up R) (R, bool) {
		k := key(s)
		if _, seen := visited[k]; seen {
			var zero R
			return zero, false
		}
		visited[k] = struct{}{}

		res := task(s, up)
		for _, child := range adj(s) {
			visit(child, res)
		}
		return res, true
	}

	res, _ := visit(root, parent)
	return res
}
