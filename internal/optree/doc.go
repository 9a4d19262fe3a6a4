/*
Package optree builds the operation tree of a module graph.

Build walks a root Component depth-first. Every component instance becomes
exactly one Node; an instance reached again through another path is skipped.
The root gets id "0" and every other node the dotted id of its parent
extended by its 1-based position among the parent's named children (the
root's children are "1", "2", ...). Ids never change after construction.

Once the tree is built, the siblings at every level are scanned for
mechanically repeated runs (see detectRepeats). A run is summarised on its
first node, the leader; the remaining nodes of the run are marked folded so
that renderers can collapse them.

Nodes live in an arena owned by the Tree and refer to their parent by
index. Each node owns one stat.Set whose accumulating facets are linked to
the parent's.
*/
package optree
