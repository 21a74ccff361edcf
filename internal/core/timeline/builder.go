package timeline

import (
	"math"
	"sort"
	"time"

	"github.com/tenstorrent/perf-timeline/internal/core/clock"
	"github.com/tenstorrent/perf-timeline/internal/core/model"
	"github.com/tenstorrent/perf-timeline/internal/util"
)

// Model is the multi-track event model of one loaded bundle: every CoreOp and
// HostEvent derivable from the correlated record set, in one shared unit.
type Model struct {
	CoreOps    []*CoreOp
	HostEvents []*HostEvent

	unit   Unit
	freq   FrequencyMode
	engine *clock.Engine
}

// Build constructs the full CoreOp/HostEvent sets from one ingestion pass.
// Ops with zero populated fields are discarded; everything starts in cycles
// with the derived frequency mode.
func Build(rs *model.RecordSet, engine *clock.Engine) *Model {
	start := time.Now()
	m := &Model{unit: UnitCycles, freq: FrequencyDerived, engine: engine}

	dropped := 0
	for _, path := range sortedRecordKeys(rs.Silicon) {
		rec := rs.Silicon[path]
		folderPath := model.ParseFolderPath(path)
		for i := range rec.Ops {
			dump := &rec.Ops[i]
			times := buildOpTimes(dump.Fields)
			if !times.Populated() {
				dropped++
				continue
			}
			op := &CoreOp{
				ID: dump.CoreOpID,
				Key: CoreOpKey{
					OpName:   dump.OpName,
					CoreX:    dump.CoreX,
					CoreY:    dump.CoreY,
					DeviceID: rec.DeviceID,
					EpochID:  epochIdentity(rec),
				},
				Path: path,
				raw:  times,
				unit: UnitCycles,
				freq: FrequencyDerived,
			}
			if corr, ok := engine.ForDevicePath(folderPath, rec.DeviceID); ok {
				op.corr = corr
			}
			// Close trailing misc intervals against the op's own extent.
			if end := timesLatest(op.raw); !math.IsInf(end, -1) {
				op.closeMisc(end)
			}
			op.refreshView()
			m.CoreOps = append(m.CoreOps, op)
		}
	}

	for _, path := range sortedRecordKeys(rs.Host) {
		rec := rs.Host[path]
		for i := range rec.Events {
			ev := &rec.Events[i]
			boxes := zipBoxes(ev.StartNs, ev.EndNs)
			if len(boxes) == 0 {
				continue
			}
			m.HostEvents = append(m.HostEvents, &HostEvent{
				ID:        ev.EventID,
				Path:      path,
				Name:      ev.Name,
				ProcessID: ev.ProcessID,
				DeviceID:  ev.DeviceID,
				Boxes:     boxes,
			})
		}
	}

	util.LogDebugf("Timeline built: %d core ops (%d dropped empty), %d host events, duration %v",
		len(m.CoreOps), dropped, len(m.HostEvents), time.Since(start))
	return m
}

// epochIdentity prefers the in-record epoch id, falling back to the filename
// epoch index of the epoch-variant dumps.
func epochIdentity(rec *model.SiliconRecord) int {
	if rec.EpochID >= 0 {
		return rec.EpochID
	}
	return rec.EpochIdx
}

// buildOpTimes converts the tagged ingestion fields into the typed cycle-
// domain view.
func buildOpTimes(fields []model.OpField) *OpTimes {
	t := &OpTimes{}
	for _, f := range fields {
		switch f.Kind {
		case model.FieldEpochTotal:
			t.EpochTotal = &Interval{Start: f.Start, End: f.End}
		case model.FieldEpochPrologue:
			t.EpochPrologue = &Interval{Start: f.Start, End: f.End}
		case model.FieldEpochLoop:
			t.EpochLoop = &Interval{Start: f.Start, End: f.End}
		case model.FieldEpochEpilogue:
			t.EpochEpilogue = &Interval{Start: f.Start, End: f.End}
		case model.FieldQSlotComplete:
			setSeries(&t.QSlotComplete, f.Stream, f.Primary)
		case model.FieldDramRead:
			setSeries(&t.ChunkReadIssued, f.Stream, f.Primary)
			setSeries(&t.TilesFlushed, f.Stream, f.Secondary)
		case model.FieldDramWrite:
			setSeries(&t.DramWriteSent, f.Stream, f.Primary)
			setSeries(&t.DramWriteCleared, f.Stream, f.Secondary)
		case model.FieldBufferStatus:
			if ivs := pairPositional(f.Primary, f.Secondary); len(ivs) > 0 {
				if t.BufferStatus == nil {
					t.BufferStatus = make(map[int][]Interval)
				}
				t.BufferStatus[f.Stream] = ivs
			}
		case model.FieldMiscInfo:
			if ivs := pairConsecutive(f.Primary); len(ivs) > 0 {
				if t.MiscInfo == nil {
					t.MiscInfo = make(map[int][]Interval)
				}
				t.MiscInfo[f.Stream] = ivs
			}
		}
	}
	return t
}

func setSeries(m *map[int][]float64, stream int, series []float64) {
	if len(series) == 0 {
		return
	}
	if *m == nil {
		*m = make(map[int][]float64)
	}
	(*m)[stream] = append((*m)[stream], series...)
}

// pairPositional pairs the i-th available with the i-th full timestamp,
// truncating at the shorter series.
func pairPositional(starts, ends []float64) []Interval {
	n := len(starts)
	if len(ends) < n {
		n = len(ends)
	}
	out := make([]Interval, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Interval{Start: starts[i], End: ends[i]})
	}
	return out
}

// pairConsecutive pairs each timestamp with the next; the final interval
// stays open until closed against a known end cycle.
func pairConsecutive(ts []float64) []Interval {
	if len(ts) == 0 {
		return nil
	}
	out := make([]Interval, 0, len(ts))
	for i := 0; i < len(ts)-1; i++ {
		out = append(out, Interval{Start: ts[i], End: ts[i+1]})
	}
	out = append(out, Interval{Start: ts[len(ts)-1], End: math.Inf(1)})
	return out
}

func zipBoxes(starts, ends []float64) []Interval {
	return pairPositional(starts, ends)
}

// closeMisc closes every still-open misc interval at the given cycle.
func (op *CoreOp) closeMisc(endCycle float64) {
	for _, ivs := range op.raw.MiscInfo {
		for i := range ivs {
			if ivs[i].Open() && ivs[i].Start <= endCycle {
				ivs[i].End = endCycle
			}
		}
	}
}

// UpdateMiscEndCycle closes open misc intervals against a later-known end
// cycle and refreshes the view.
func (op *CoreOp) UpdateMiscEndCycle(endCycle float64) {
	op.closeMisc(endCycle)
	op.refreshView()
}

func sortedRecordKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
