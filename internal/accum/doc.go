/*
Package accum implements the numeric cells that operation-tree statistics are
accumulated into.

Cells live in an Arena owned by a single tree. Each cell may name a parent
cell by index; Add updates the cell and then every ancestor, so any cell's
value always equals the sum of contributions made at or beneath it. Parent
links are plain indices, never pointers, so the arena owns every cell and no
ownership cycle exists between a cell and its ancestors.

A Reservoir collects distributional samples (latencies, throughputs) and
is not linked to any parent: nested timings are not additive.
*/
package accum
