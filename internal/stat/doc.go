/*
Package stat implements the per-node statistic facets of an operation tree.

Every node carries one facet of each Kind:

  - param counts parameter elements, split into total and trainable.
  - cal estimates multiply-accumulates and floating point operations through
    a pluggable CostRegistry.
  - mem accounts parameter, buffer and output feature-map bytes.
  - ittp samples inference latency and throughput by replaying the node.

param, cal and mem accumulate into cells linked to the same facet of the
parent node, so an ancestor's totals always equal the sum over its measured
leaves. ittp is node-local.

Facets are inert until measured. Measure installs the facet's callback (or,
for param, computes the value directly) and is idempotent for every facet
except ittp, which clears and re-samples each time. Reading an unmeasured
facet asks the tree's Coordinator to measure the whole tree in one pass.
*/
package stat
