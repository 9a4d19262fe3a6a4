package meter

import (
	"errors"
	"fmt"

	"github.com/vk/opmeter/internal/stat"
)

// ErrInvalidOptions is returned by New for unusable options.
var ErrInvalidOptions = errors.New("invalid meter options")

// Options configures a Meter.
type Options struct {
	// Name labels the root operation.
	Name string
	// FoldRepeat collapses repeated runs in Rows.
	FoldRepeat bool
	// Warmup is the number of untimed replays before ittp sampling.
	Warmup int
	// BenchmarkRepeat is the number of timed replays per operation.
	BenchmarkRepeat int
	// Costs supplies compute cost formulas; stat.DefaultCosts when nil.
	Costs *stat.CostRegistry
}

// DefaultOptions returns folding enabled with a short benchmark.
func DefaultOptions() Options {
	return Options{
		FoldRepeat:      true,
		Warmup:          stat.DefaultTiming.Warmup,
		BenchmarkRepeat: stat.DefaultTiming.Repeat,
	}
}

// Validate checks the timing settings.
func (o Options) Validate() error {
	if o.Warmup < 0 {
		return fmt.Errorf("%w: warmup must be >= 0, got %d", ErrInvalidOptions, o.Warmup)
	}
	if o.BenchmarkRepeat < 1 {
		return fmt.Errorf("%w: benchmark repeat must be >= 1, got %d", ErrInvalidOptions, o.BenchmarkRepeat)
	}
	return nil
}
