package timeline

import (
	"math"

	"github.com/tenstorrent/perf-timeline/internal/core/clock"
)

// Unit selects the time axis the model exposes.
type Unit int

const (
	UnitCycles Unit = iota
	UnitNanoseconds
)

func (u Unit) String() string {
	if u == UnitNanoseconds {
		return "nanoseconds"
	}
	return "cycles"
}

// FrequencyMode selects which clock estimate drives cycle-to-ns conversion.
type FrequencyMode int

const (
	FrequencyDerived FrequencyMode = iota
	FrequencyNominal
)

func (f FrequencyMode) String() string {
	if f == FrequencyNominal {
		return "nominal"
	}
	return "derived"
}

// Interval is one start/end pair in the model's current unit. An open-ended
// interval has End = +Inf until it is closed.
type Interval struct {
	Start float64
	End   float64
}

// Open reports whether the interval has not been closed yet.
func (iv Interval) Open() bool {
	return math.IsInf(iv.End, 1)
}

// Bounds is the [Start, End] envelope of a set of entities.
type Bounds struct {
	Start float64
	End   float64
}

// CoreOpKey identifies one device operation instance.
type CoreOpKey struct {
	OpName   string
	CoreX    int
	CoreY    int
	DeviceID int
	EpochID  int
}

// OpTimes holds every populated per-op field in one unit. The maps are keyed
// by stream index; a missing key means the field was absent in the dump.
type OpTimes struct {
	EpochTotal       *Interval
	EpochPrologue    *Interval
	EpochLoop        *Interval
	EpochEpilogue    *Interval
	QSlotComplete    map[int][]float64
	ChunkReadIssued  map[int][]float64
	TilesFlushed     map[int][]float64
	DramWriteSent    map[int][]float64
	DramWriteCleared map[int][]float64
	BufferStatus     map[int][]Interval
	MiscInfo         map[int][]Interval
}

// Populated reports whether any field carries data.
func (t *OpTimes) Populated() bool {
	if t.EpochTotal != nil || t.EpochPrologue != nil || t.EpochLoop != nil || t.EpochEpilogue != nil {
		return true
	}
	return len(t.QSlotComplete) > 0 || len(t.ChunkReadIssued) > 0 || len(t.TilesFlushed) > 0 ||
		len(t.DramWriteSent) > 0 || len(t.DramWriteCleared) > 0 ||
		len(t.BufferStatus) > 0 || len(t.MiscInfo) > 0
}

// transform applies one value mapping uniformly across every populated field.
// This is the single dispatch point for unit conversion.
func (t *OpTimes) transform(f func(float64) float64) *OpTimes {
	return &OpTimes{
		EpochTotal:       transformInterval(t.EpochTotal, f),
		EpochPrologue:    transformInterval(t.EpochPrologue, f),
		EpochLoop:        transformInterval(t.EpochLoop, f),
		EpochEpilogue:    transformInterval(t.EpochEpilogue, f),
		QSlotComplete:    transformSeriesMap(t.QSlotComplete, f),
		ChunkReadIssued:  transformSeriesMap(t.ChunkReadIssued, f),
		TilesFlushed:     transformSeriesMap(t.TilesFlushed, f),
		DramWriteSent:    transformSeriesMap(t.DramWriteSent, f),
		DramWriteCleared: transformSeriesMap(t.DramWriteCleared, f),
		BufferStatus:     transformIntervalMap(t.BufferStatus, f),
		MiscInfo:         transformIntervalMap(t.MiscInfo, f),
	}
}

func transformInterval(iv *Interval, f func(float64) float64) *Interval {
	if iv == nil {
		return nil
	}
	out := &Interval{Start: f(iv.Start), End: iv.End}
	if !iv.Open() {
		out.End = f(iv.End)
	}
	return out
}

func transformSeriesMap(m map[int][]float64, f func(float64) float64) map[int][]float64 {
	if m == nil {
		return nil
	}
	out := make(map[int][]float64, len(m))
	for stream, series := range m {
		converted := make([]float64, len(series))
		for i, v := range series {
			converted[i] = f(v)
		}
		out[stream] = converted
	}
	return out
}

func transformIntervalMap(m map[int][]Interval, f func(float64) float64) map[int][]Interval {
	if m == nil {
		return nil
	}
	out := make(map[int][]Interval, len(m))
	for stream, ivs := range m {
		converted := make([]Interval, len(ivs))
		for i, iv := range ivs {
			converted[i] = *transformInterval(&iv, f)
		}
		out[stream] = converted
	}
	return out
}

// CoreOp is one device operation's full event record. Times is the current
// view; the cycle-domain originals are retained so unit switching is lossless
// and idempotent.
type CoreOp struct {
	ID    int
	Key   CoreOpKey
	Path  string
	Times *OpTimes

	// LeftBound is the normalized zero-point shared by all displayed
	// entities; reassigned whenever global bounds are recomputed.
	LeftBound float64

	raw  *OpTimes // device cycles, immutable after build
	unit Unit
	freq FrequencyMode
	corr *clock.Correlation
}

// Correlated reports whether the op's device has a derivable clock alignment.
func (op *CoreOp) Correlated() bool {
	return op.corr != nil
}

// Correlation exposes the clock alignment backing this op, or nil.
func (op *CoreOp) Correlation() *clock.Correlation {
	return op.corr
}

// Unit returns the unit the view currently uses. An uncorrelated op stays in
// cycles regardless of the requested unit.
func (op *CoreOp) Unit() Unit {
	return op.unit
}

// HostEvent is one host-process interval group. Boxes pair the i-th start
// with the i-th end; host timestamps are native nanoseconds.
type HostEvent struct {
	ID        int
	Path      string
	Name      string
	ProcessID int
	DeviceID  int
	Boxes     []Interval
	LeftBound float64
}

// EarliestStart returns the smallest box start, or +Inf when empty.
func (h *HostEvent) EarliestStart() float64 {
	earliest := math.Inf(1)
	for _, b := range h.Boxes {
		if b.Start < earliest {
			earliest = b.Start
		}
	}
	return earliest
}

// LatestEnd returns the largest box end, or -Inf when empty.
func (h *HostEvent) LatestEnd() float64 {
	latest := math.Inf(-1)
	for _, b := range h.Boxes {
		if !b.Open() && b.End > latest {
			latest = b.End
		}
	}
	return latest
}
