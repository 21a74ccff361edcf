package timeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenstorrent/perf-timeline/internal/core/clock"
	"github.com/tenstorrent/perf-timeline/internal/core/model"
)

func siliconRecord(path string, deviceID int, ops ...model.OpDump) *model.SiliconRecord {
	return &model.SiliconRecord{
		Path: path, EpochIdx: -1, DeviceID: deviceID, AICLKMHz: 1200, EpochID: 0,
		Ops: ops,
	}
}

func epochOp(id int, name string, x, y int, start, end float64) model.OpDump {
	return model.OpDump{
		CoreOpID: id, OpName: name, CoreX: x, CoreY: y,
		Fields: []model.OpField{
			{Kind: model.FieldEpochTotal, Stream: -1, Start: start, End: end},
		},
	}
}

func correlatedSet(ops ...model.OpDump) (*model.RecordSet, *clock.Engine) {
	rs := model.NewRecordSet()
	rs.Silicon["run/device_0"] = siliconRecord("run/device_0", 0, ops...)
	rs.Host["run/host"] = &model.HostRecord{
		Path: "run/host",
		Events: []model.HostEventDump{
			{EventID: 0, Name: "device-runtime-device-0", ProcessID: 7, DeviceID: 0,
				StartNs: []float64{1000}, EndNs: []float64{2000}},
			{EventID: 1, Name: "device-start-cycle-aligned-device-0", ProcessID: 7, DeviceID: 0,
				StartNs: []float64{1000}, EndNs: []float64{1000}},
			{EventID: 2, Name: "device-end-cycle-aligned-device-0", ProcessID: 7, DeviceID: 0,
				StartNs: []float64{3000}, EndNs: []float64{3000}},
		},
	}
	return rs, clock.Correlate(rs)
}

func TestBuildSingleOp(t *testing.T) {
	rs, engine := correlatedSet(epochOp(0, "matmul", 0, 0, 100, 500))
	m := Build(rs, engine)

	require.Len(t, m.CoreOps, 1)
	op := m.CoreOps[0]
	assert.Equal(t, "matmul", op.Key.OpName)
	assert.Equal(t, 0, op.Key.DeviceID)
	assert.Equal(t, "run/device_0", op.Path)
	assert.Equal(t, 100.0, op.EarliestStart())
	assert.Equal(t, 500.0, op.LatestEnd())
	assert.Equal(t, UnitCycles, op.Unit())
	assert.True(t, op.Correlated())
}

func TestBuildDropsUnpopulatedOps(t *testing.T) {
	rs, engine := correlatedSet(
		epochOp(0, "real", 0, 0, 100, 500),
		model.OpDump{CoreOpID: 1, OpName: "empty", CoreX: 1, CoreY: 1},
	)
	m := Build(rs, engine)

	require.Len(t, m.CoreOps, 1)
	assert.Equal(t, "real", m.CoreOps[0].Key.OpName)
}

func TestBuildHostEvents(t *testing.T) {
	rs, engine := correlatedSet(epochOp(0, "op", 0, 0, 1, 2))
	m := Build(rs, engine)

	require.Len(t, m.HostEvents, 3)
	ev := m.HostEvents[0]
	assert.Equal(t, "device-runtime-device-0", ev.Name)
	assert.Equal(t, 7, ev.ProcessID)
	require.Len(t, ev.Boxes, 1)
	assert.Equal(t, 1000.0, ev.EarliestStart())
	assert.Equal(t, 2000.0, ev.LatestEnd())
}

func TestBuildClosesTrailingMiscInterval(t *testing.T) {
	op := model.OpDump{
		CoreOpID: 0, OpName: "op", CoreX: 0, CoreY: 0,
		Fields: []model.OpField{
			{Kind: model.FieldEpochTotal, Stream: -1, Start: 100, End: 900},
			{Kind: model.FieldMiscInfo, Stream: 2, Primary: []float64{200, 300, 400}},
		},
	}
	rs, engine := correlatedSet(op)
	m := Build(rs, engine)

	require.Len(t, m.CoreOps, 1)
	misc := m.CoreOps[0].Times.MiscInfo[2]
	require.Len(t, misc, 3)
	assert.Equal(t, Interval{Start: 200, End: 300}, misc[0])
	assert.Equal(t, Interval{Start: 300, End: 400}, misc[1])
	// The trailing open interval is closed against the op's own extent.
	assert.Equal(t, Interval{Start: 400, End: 900}, misc[2])
}

func TestUpdateMiscEndCycle(t *testing.T) {
	op := model.OpDump{
		CoreOpID: 0, OpName: "op", CoreX: 0, CoreY: 0,
		Fields: []model.OpField{
			// The epoch extent ends before the final misc timestamp, so the
			// trailing interval survives the build-time close.
			{Kind: model.FieldEpochTotal, Stream: -1, Start: 100, End: 300},
			{Kind: model.FieldMiscInfo, Stream: 0, Primary: []float64{200, 350}},
		},
	}
	rs, engine := correlatedSet(op)
	m := Build(rs, engine)

	require.Len(t, m.CoreOps, 1)
	co := m.CoreOps[0]
	misc := co.Times.MiscInfo[0]
	require.Len(t, misc, 2)
	assert.True(t, misc[1].Open())

	co.UpdateMiscEndCycle(500)
	misc = co.Times.MiscInfo[0]
	assert.Equal(t, Interval{Start: 350, End: 500}, misc[1])
}

func TestBufferStatusPairsPositionally(t *testing.T) {
	op := model.OpDump{
		CoreOpID: 0, OpName: "op", CoreX: 0, CoreY: 0,
		Fields: []model.OpField{
			{Kind: model.FieldBufferStatus, Stream: 1,
				Primary: []float64{10, 30, 50}, Secondary: []float64{20, 40}},
		},
	}
	rs, engine := correlatedSet(op)
	m := Build(rs, engine)

	require.Len(t, m.CoreOps, 1)
	ivs := m.CoreOps[0].Times.BufferStatus[1]
	// Truncated at the shorter series.
	require.Len(t, ivs, 2)
	assert.Equal(t, Interval{Start: 10, End: 20}, ivs[0])
	assert.Equal(t, Interval{Start: 30, End: 40}, ivs[1])
}

func TestSetUnitConvertsAndRoundTrips(t *testing.T) {
	op := model.OpDump{
		CoreOpID: 0, OpName: "op", CoreX: 0, CoreY: 0,
		Fields: []model.OpField{
			{Kind: model.FieldEpochTotal, Stream: -1, Start: 1000, End: 3000},
			{Kind: model.FieldQSlotComplete, Stream: 0, Primary: []float64{1500, 2500}},
		},
	}
	rs, engine := correlatedSet(op)
	m := Build(rs, engine)
	co := m.CoreOps[0]

	rawStart := co.Times.EpochTotal.Start
	rawSeries := append([]float64(nil), co.Times.QSlotComplete[0]...)

	// Derived frequency is 2000 cycles / 1000 ns = 2 GHz; start cycle 1000
	// lands at start time 1000 ns.
	m.SetUnit(UnitNanoseconds)
	assert.Equal(t, UnitNanoseconds, co.Unit())
	assert.InDelta(t, 1000.0, co.Times.EpochTotal.Start, 1e-9)
	assert.InDelta(t, 2000.0, co.Times.EpochTotal.End, 1e-9)
	assert.InDelta(t, 1250.0, co.Times.QSlotComplete[0][0], 1e-9)

	// Switching back restores the exact cycle values.
	m.SetUnit(UnitCycles)
	assert.Equal(t, rawStart, co.Times.EpochTotal.Start)
	assert.Equal(t, rawSeries, co.Times.QSlotComplete[0])

	// Repeated flips stay stable.
	m.SetUnit(UnitNanoseconds)
	m.SetUnit(UnitCycles)
	m.SetUnit(UnitNanoseconds)
	assert.InDelta(t, 1000.0, co.Times.EpochTotal.Start, 1e-9)
}

func TestUncorrelatedOpStaysInCycles(t *testing.T) {
	rs := model.NewRecordSet()
	rs.Silicon["lone/device_0"] = siliconRecord("lone/device_0", 0,
		epochOp(0, "op", 0, 0, 100, 500))
	m := Build(rs, clock.Correlate(rs))

	require.Len(t, m.CoreOps, 1)
	co := m.CoreOps[0]
	assert.False(t, co.Correlated())

	m.SetUnit(UnitNanoseconds)
	assert.Equal(t, UnitCycles, co.Unit())
	assert.Equal(t, 100.0, co.Times.EpochTotal.Start)
}

func TestNominalModeWithoutClockRateKeepsCycles(t *testing.T) {
	rs, engine := correlatedSet(epochOp(0, "op", 0, 0, 100, 500))
	rs.Silicon["run/device_0"].AICLKMHz = 0
	engine = clock.Correlate(rs)
	m := Build(rs, engine)
	co := m.CoreOps[0]

	m.SetFrequencyMode(FrequencyNominal)
	m.SetUnit(UnitNanoseconds)

	assert.Equal(t, UnitCycles, co.Unit())
	assert.Equal(t, 100.0, co.Times.EpochTotal.Start)
}

func TestBoundsOfAndNormalize(t *testing.T) {
	rs, engine := correlatedSet(
		epochOp(0, "a", 0, 0, 300, 700),
		epochOp(1, "b", 1, 0, 100, 500),
	)
	m := Build(rs, engine)

	bounds, ok := BoundsOf(m.CoreOps, nil)
	require.True(t, ok)
	assert.Equal(t, 100.0, bounds.Start)
	assert.Equal(t, 700.0, bounds.End)
	assert.LessOrEqual(t, bounds.Start, bounds.End)

	// Every entity sits within the envelope.
	for _, op := range m.CoreOps {
		assert.GreaterOrEqual(t, op.EarliestStart(), bounds.Start)
		assert.LessOrEqual(t, op.LatestEnd(), bounds.End)
	}

	normalized, ok := NormalizeLeftBounds(m.CoreOps, m.HostEvents)
	require.True(t, ok)
	for _, op := range m.CoreOps {
		assert.Equal(t, normalized.Start, op.LeftBound)
	}
	for _, ev := range m.HostEvents {
		assert.Equal(t, normalized.Start, ev.LeftBound)
	}
}

func TestBoundsOfEmpty(t *testing.T) {
	_, ok := BoundsOf(nil, nil)
	assert.False(t, ok)
}

func TestIntervalOpen(t *testing.T) {
	assert.True(t, Interval{Start: 1, End: math.Inf(1)}.Open())
	assert.False(t, Interval{Start: 1, End: 2}.Open())
}
