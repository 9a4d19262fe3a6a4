// Package unit renders raw magnitudes in human-scaled units.
package unit

import (
	"fmt"
	"math"
	"strings"
)

// Unit is a single named scale within a System.
type Unit struct {
	Name  string
	Scale float64
}

// System is an ordered set of units, largest scale first.
type System struct {
	Name  string
	Units []Unit
}

var (
	// Decimal scales plain counts by powers of 1000.
	Decimal = System{Name: "decimal", Units: []Unit{
		{"T", 1e12}, {"G", 1e9}, {"M", 1e6}, {"K", 1e3}, {"", 1},
	}}

	// Binary scales byte sizes by powers of 1024.
	Binary = System{Name: "binary", Units: []Unit{
		{"TiB", 1 << 40}, {"GiB", 1 << 30}, {"MiB", 1 << 20}, {"KiB", 1 << 10}, {"B", 1},
	}}

	// Time scales durations expressed in seconds.
	Time = System{Name: "time", Units: []Unit{
		{"h", 3600}, {"min", 60}, {"s", 1}, {"ms", 1e-3}, {"us", 1e-6}, {"ns", 1e-9},
	}}

	// Speed scales throughput expressed in samples per second.
	Speed = System{Name: "speed", Units: []Unit{
		{"TSamPS", 1e12}, {"GSamPS", 1e9}, {"MSamPS", 1e6}, {"KSamPS", 1e3}, {"SamPS", 1},
	}}
)

// Format renders v with the largest unit not exceeding it, using two
// decimals. The second result is false when v is below the smallest unit
// (including zero), in which case no scaled rendering exists.
func (s System) Format(v float64) (string, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", false
	}
	mag := math.Abs(v)
	for _, u := range s.Units {
		if mag >= u.Scale {
			return strings.TrimSpace(fmt.Sprintf("%.2f %s", v/u.Scale, u.Name)), true
		}
	}
	return "", false
}

// Describe renders "raw = scaled", e.g. "1234 = 1.23 K". When no scaled
// form exists only the raw value is returned.
func (s System) Describe(v int64) string {
	raw := fmt.Sprintf("%d", v)
	scaled, ok := s.Format(float64(v))
	if !ok || scaled == raw {
		return raw
	}
	return raw + " = " + scaled
}
