package timeline

import (
	"math"
)

// timesEarliest folds the minimum over every populated field. The epoch-total
// interval, when present, is authoritative.
func timesEarliest(t *OpTimes) float64 {
	if t.EpochTotal != nil {
		return t.EpochTotal.Start
	}
	earliest := math.Inf(1)
	fold := func(v float64) {
		if v < earliest {
			earliest = v
		}
	}
	for _, iv := range []*Interval{t.EpochPrologue, t.EpochLoop, t.EpochEpilogue} {
		if iv != nil {
			fold(iv.Start)
		}
	}
	for _, m := range []map[int][]float64{t.QSlotComplete, t.ChunkReadIssued, t.TilesFlushed, t.DramWriteSent, t.DramWriteCleared} {
		for _, series := range m {
			for _, v := range series {
				fold(v)
			}
		}
	}
	for _, m := range []map[int][]Interval{t.BufferStatus, t.MiscInfo} {
		for _, ivs := range m {
			for _, iv := range ivs {
				fold(iv.Start)
			}
		}
	}
	return earliest
}

// timesLatest folds the maximum; open interval ends are ignored.
func timesLatest(t *OpTimes) float64 {
	if t.EpochTotal != nil {
		return t.EpochTotal.End
	}
	latest := math.Inf(-1)
	fold := func(v float64) {
		if v > latest {
			latest = v
		}
	}
	for _, iv := range []*Interval{t.EpochPrologue, t.EpochLoop, t.EpochEpilogue} {
		if iv != nil && !iv.Open() {
			fold(iv.End)
		}
	}
	for _, m := range []map[int][]float64{t.QSlotComplete, t.ChunkReadIssued, t.TilesFlushed, t.DramWriteSent, t.DramWriteCleared} {
		for _, series := range m {
			for _, v := range series {
				fold(v)
			}
		}
	}
	for _, m := range []map[int][]Interval{t.BufferStatus, t.MiscInfo} {
		for _, ivs := range m {
			for _, iv := range ivs {
				fold(iv.Start)
				if !iv.Open() {
					fold(iv.End)
				}
			}
		}
	}
	return latest
}

// EarliestStart returns the op's lower bound in the current view unit.
func (op *CoreOp) EarliestStart() float64 {
	return timesEarliest(op.Times)
}

// LatestEnd returns the op's upper bound in the current view unit.
func (op *CoreOp) LatestEnd() float64 {
	return timesLatest(op.Times)
}

// BoundsOf computes the min/max envelope across the given entities. Returns
// false when nothing contributes a finite bound.
func BoundsOf(ops []*CoreOp, events []*HostEvent) (Bounds, bool) {
	start := math.Inf(1)
	end := math.Inf(-1)
	for _, op := range ops {
		if s := op.EarliestStart(); s < start {
			start = s
		}
		if e := op.LatestEnd(); e > end {
			end = e
		}
	}
	for _, ev := range events {
		if s := ev.EarliestStart(); s < start {
			start = s
		}
		if e := ev.LatestEnd(); e > end {
			end = e
		}
	}
	if math.IsInf(start, 1) || math.IsInf(end, -1) {
		return Bounds{}, false
	}
	return Bounds{Start: start, End: end}, true
}

// NormalizeLeftBounds recomputes the envelope of the given entities and
// resets every entity's left bound to the shared global minimum, so all
// displayed timestamps use one zero-point. Returns the envelope.
func NormalizeLeftBounds(ops []*CoreOp, events []*HostEvent) (Bounds, bool) {
	bounds, ok := BoundsOf(ops, events)
	if !ok {
		return bounds, false
	}
	for _, op := range ops {
		op.LeftBound = bounds.Start
	}
	for _, ev := range events {
		ev.LeftBound = bounds.Start
	}
	return bounds, true
}
