package accum

import "strconv"

// Value is a numeric statistic field that may be "not supported", which is
// distinct from both zero and absent.
type Value struct {
	n           int64
	unsupported bool
}

// NotSupported marks a numeric field no cost model exists for.
var NotSupported = Value{unsupported: true}

// Of wraps a measured number.
func Of(n int64) Value {
	return Value{n: n}
}

// Supported reports whether v carries a measured number.
func (v Value) Supported() bool {
	return !v.unsupported
}

// Int64 returns the number and whether it is supported.
func (v Value) Int64() (int64, bool) {
	return v.n, !v.unsupported
}

// String renders the raw number, or "N/A" for the sentinel.
func (v Value) String() string {
	if v.unsupported {
		return "N/A"
	}
	return strconv.FormatInt(v.n, 10)
}
