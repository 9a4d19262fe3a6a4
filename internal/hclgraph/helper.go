package hclgraph

import (
	"context"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/opmeter/internal/ctxlog"
)

// isExprDefined reports whether an optional attribute was written in the
// source. The decoder fills omitted hcl.Expression fields with zero-width
// placeholders, so only a non-empty source range counts.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	defined := r.End.Byte > r.Start.Byte
	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", r.String(),
		"is_defined", defined,
	)
	return defined
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
