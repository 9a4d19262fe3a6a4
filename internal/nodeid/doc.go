// internal/nodeid/doc.go

/*
Package nodeid provides a structured, type-safe representation for node
identifiers within an operation tree, based on the canonical dotted format.

The root of every tree is `0`. Each other node is addressed by the 1-based
positions of its ancestors among their direct siblings, joined by dots,
e.g., `1.2.1` is the first child of the second child of the root's first
child. The root's own children are `1`, `2`, and so on.

This package enforces the identifier schema and centralizes all
formatting and parsing logic.
*/
package nodeid
