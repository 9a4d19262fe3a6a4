package accum

import (
	"math"
	"slices"
)

// Reducer collapses a sample set into one number.
type Reducer func(samples []float64) float64

// Reservoir is an append-only sample sequence with a central tendency and a
// dispersion measure.
type Reservoir struct {
	samples []float64
	reduce  Reducer
	spread  Reducer
}

// NewReservoir creates a reservoir using the median and the interquartile
// range.
func NewReservoir() *Reservoir {
	return &Reservoir{reduce: Median, spread: IQR}
}

// NewReservoirWith creates a reservoir with custom reducers. A nil reducer
// falls back to the default.
func NewReservoirWith(reduce, spread Reducer) *Reservoir {
	r := NewReservoir()
	if reduce != nil {
		r.reduce = reduce
	}
	if spread != nil {
		r.spread = spread
	}
	return r
}

// Append records one sample.
func (r *Reservoir) Append(sample float64) {
	r.samples = append(r.samples, sample)
}

// Reset drops every sample.
func (r *Reservoir) Reset() {
	r.samples = r.samples[:0]
}

// Len returns the number of samples.
func (r *Reservoir) Len() int {
	return len(r.samples)
}

// Samples returns a copy of the recorded samples.
func (r *Reservoir) Samples() []float64 {
	return slices.Clone(r.samples)
}

// Value reduces the samples, NaN when empty.
func (r *Reservoir) Value() float64 {
	if len(r.samples) == 0 {
		return math.NaN()
	}
	return r.reduce(r.samples)
}

// Dispersion returns the spread of the samples, NaN when empty.
func (r *Reservoir) Dispersion() float64 {
	if len(r.samples) == 0 {
		return math.NaN()
	}
	return r.spread(r.samples)
}

// Median is the 50th percentile.
func Median(samples []float64) float64 {
	return Percentile(samples, 0.5)
}

// IQR is the distance between the 75th and 25th percentiles.
func IQR(samples []float64) float64 {
	return Percentile(samples, 0.75) - Percentile(samples, 0.25)
}

// Percentile computes the p-quantile (0..1) with linear interpolation
// between closest ranks. The input is not modified.
func Percentile(samples []float64, p float64) float64 {
	if len(samples) == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(samples)
	slices.Sort(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}

	index := p * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}

	fraction := index - float64(lower)
	return sorted[lower]*(1-fraction) + sorted[upper]*fraction
}
