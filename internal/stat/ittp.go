package stat

import (
	"fmt"
	"time"

	"github.com/vk/opmeter/internal/accum"
	"github.com/vk/opmeter/internal/module"
	"github.com/vk/opmeter/internal/unit"
)

// IttpRecord is one timed replay.
type IttpRecord struct {
	OperationID string
	Run         int
	Latency     float64
	Throughput  float64
}

// IttpSummary reduces the timed replays of a node. Times are in seconds and
// throughput in samples per second.
type IttpSummary struct {
	OperationID   string
	OperationType string
	OperationName string
	InferTime     float64
	InferTimeIQR  float64
	Throughput    float64
	ThroughputIQR float64
	Samples       int
}

// String renders the summary with time and speed units.
func (s IttpSummary) String() string {
	return fmt.Sprintf("%s ± %s, %s ± %s",
		formatOr(unit.Time, s.InferTime), formatOr(unit.Time, s.InferTimeIQR),
		formatOr(unit.Speed, s.Throughput), formatOr(unit.Speed, s.ThroughputIQR))
}

func formatOr(sys unit.System, v float64) string {
	if txt, ok := sys.Format(v); ok {
		return txt
	}
	return "0"
}

// Ittp samples inference latency and throughput. It is never linked to a
// parent.
type Ittp struct {
	b          Binding
	latency    *accum.Reservoir
	throughput *accum.Reservoir
	measured   bool
	called     bool
	err        error
}

// NewIttp creates the ittp facet of a node.
func NewIttp(b Binding) *Ittp {
	return &Ittp{
		b:          b,
		latency:    accum.NewReservoir(),
		throughput: accum.NewReservoir(),
	}
}

// Kind implements Facet.
func (i *Ittp) Kind() Kind { return KindIttp }

// Measured implements Facet.
func (i *Ittp) Measured() bool { return i.measured }

// Called reports whether the node executed during the last pass.
func (i *Ittp) Called() bool { return i.called }

// Measure clears previous samples and attaches the timing callback. Unlike
// the other facets every call starts a fresh measurement.
func (i *Ittp) Measure() (module.Detacher, error) {
	i.latency.Reset()
	i.throughput.Reset()
	i.measured = true
	i.called = false
	i.err = nil
	return i.b.Component.AttachHook(i.observe), nil
}

// Reset implements Facet.
func (i *Ittp) Reset() {
	i.latency.Reset()
	i.throughput.Reset()
	i.measured, i.called = false, false
	i.err = nil
}

// observe benchmarks the first invocation of the pass only.
func (i *Ittp) observe(inv module.Invocation) {
	if i.called {
		return
	}
	i.called = true
	if inv.Replay == nil {
		i.err = fmt.Errorf("operation %s cannot be replayed", i.b.Identity.ID)
		return
	}

	timing := i.b.Env.Timing
	for range timing.Warmup {
		if err := inv.Replay(); err != nil {
			i.err = fmt.Errorf("warmup of operation %s: %w", i.b.Identity.ID, err)
			return
		}
	}
	for range timing.Repeat {
		start := time.Now()
		if err := inv.Replay(); err != nil {
			i.err = fmt.Errorf("benchmark of operation %s: %w", i.b.Identity.ID, err)
			return
		}
		sec := max(time.Since(start), time.Nanosecond).Seconds()
		i.latency.Append(sec)
		i.throughput.Append(1 / sec)
	}
}

// DetailVal returns every timed replay of the last measurement.
func (i *Ittp) DetailVal() ([]IttpRecord, error) {
	if err := i.b.ensure(i); err != nil {
		return nil, err
	}
	if i.err != nil {
		return nil, i.err
	}
	lat, thr := i.latency.Samples(), i.throughput.Samples()
	rows := make([]IttpRecord, len(lat))
	for n := range lat {
		rows[n] = IttpRecord{
			OperationID: i.b.Identity.ID,
			Run:         n,
			Latency:     lat[n],
			Throughput:  thr[n],
		}
	}
	return rows, nil
}

// Val returns the reduced timings. Nodes that never ran report NaN.
func (i *Ittp) Val() (IttpSummary, error) {
	if err := i.b.ensure(i); err != nil {
		return IttpSummary{}, err
	}
	if i.err != nil {
		return IttpSummary{}, i.err
	}
	return IttpSummary{
		OperationID:   i.b.Identity.ID,
		OperationType: i.b.Identity.Type,
		OperationName: i.b.Identity.Name,
		InferTime:     i.latency.Value(),
		InferTimeIQR:  i.latency.Dispersion(),
		Throughput:    i.throughput.Value(),
		ThroughputIQR: i.throughput.Dispersion(),
		Samples:       i.latency.Len(),
	}, nil
}
