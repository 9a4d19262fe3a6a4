/*
Package hclgraph loads declarative module graphs for the in-memory host.

A file holds an optional meter block and any number of model blocks:

	meter {
	  fold_repeat      = true
	  warmup           = 2
	  benchmark_repeat = 10
	}

	model "Net" {
	  input      = [1, 16]
	  elem_bytes = 4

	  module "layer" {
	    type   = "Linear"
	    repeat = 3
	    config = { in_features = 16, out_features = 16 }
	    output = [1, 16]
	    param "weight" { shape = [16, 16] }
	  }
	}

Modules nest. repeat = N expands into N structurally identical siblings
named layer.0 to layer.N-1, and skip = true declares a module that is never
executed.
*/
package hclgraph
