/*
Package module defines the contract between opmeter and the module graph it
measures.

A Component is one named computational unit. It exposes its ordered direct
sub-components, a structural configuration value, its parameters and buffers,
and an instrumentation point: hooks attached to a component fire every time
the host executes it during a pass. A Runner drives one full execution pass
of the host.

The package also carries a small in-memory host (Block and SequentialRunner)
used by the command and by tests, where every block is a sequential container
and leaves compute only their declared output shape.
*/
package module
