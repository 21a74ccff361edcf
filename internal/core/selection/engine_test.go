package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenstorrent/perf-timeline/internal/core/clock"
	"github.com/tenstorrent/perf-timeline/internal/core/model"
	"github.com/tenstorrent/perf-timeline/internal/core/timeline"
)

// testModel builds a two-path timeline: ops on cores (0,0), (0,1), (1,0) under
// path "a", one op under path "b", and one host event under "a/host".
func testModel() *timeline.Model {
	rs := model.NewRecordSet()
	rs.Silicon["a"] = &model.SiliconRecord{
		Path: "a", EpochIdx: -1, DeviceID: 0, EpochID: 0,
		Ops: []model.OpDump{
			opDump(0, "matmul", 0, 0, 100, 200),
			opDump(1, "add", 0, 1, 150, 250),
			opDump(2, "exp", 1, 0, 120, 220),
		},
	}
	rs.Silicon["b"] = &model.SiliconRecord{
		Path: "b", EpochIdx: -1, DeviceID: 1, EpochID: 1,
		Ops: []model.OpDump{
			opDump(3, "matmul", 0, 0, 500, 600),
		},
	}
	rs.Host["a/host"] = &model.HostRecord{
		Path: "a/host",
		Events: []model.HostEventDump{
			{EventID: 0, Name: "process-run", ProcessID: 9,
				DeviceID: -1, StartNs: []float64{50}, EndNs: []float64{400}},
		},
	}
	return timeline.Build(rs, clock.Correlate(rs))
}

func opDump(id int, name string, x, y int, start, end float64) model.OpDump {
	return model.OpDump{
		CoreOpID: id, OpName: name, CoreX: x, CoreY: y,
		Fields: []model.OpField{
			{Kind: model.FieldEpochTotal, Stream: -1, Start: start, End: end},
		},
	}
}

func TestNewEngineStartsEmpty(t *testing.T) {
	e := NewEngine(testModel())
	assert.Empty(t, e.Rows())
	_, ok := e.GlobalBounds()
	assert.False(t, ok)
}

func TestUpdateSelectAll(t *testing.T) {
	e := NewEngine(testModel())
	diff := e.Update(Selection{Paths: []string{"a", "b", "a/host"}})

	assert.Equal(t, ChangeFull, diff.Kind)
	assert.Len(t, diff.AddedCoreOps, 4)
	assert.Len(t, diff.AddedHostEvents, 1)
	assert.Len(t, e.Rows(), 5)

	bounds, ok := e.GlobalBounds()
	require.True(t, ok)
	assert.LessOrEqual(t, bounds.Start, bounds.End)
}

func TestUpdatePathAddedIsIncremental(t *testing.T) {
	e := NewEngine(testModel())
	e.Update(Selection{Paths: []string{"a"}})

	diff := e.Update(Selection{Paths: []string{"a", "b"}})
	assert.Equal(t, ChangePathAdded, diff.Kind)
	assert.Equal(t, []int{3}, diff.AddedCoreOps)
	assert.Empty(t, diff.RemovedCoreOps, "additive change never removes")
	assert.Empty(t, diff.RemovedHostEvents)
}

func TestUpdatePathRemoved(t *testing.T) {
	e := NewEngine(testModel())
	e.Update(Selection{Paths: []string{"a", "b"}})

	diff := e.Update(Selection{Paths: []string{"a"}})
	assert.Equal(t, ChangePathRemoved, diff.Kind)
	assert.Equal(t, []int{3}, diff.RemovedCoreOps)
	assert.Empty(t, diff.AddedCoreOps)
}

func TestIncrementalDiffsAgainstPriorVisibleSet(t *testing.T) {
	e := NewEngine(testModel())
	e.Update(Selection{Paths: []string{"a"}})

	// Each step must report exactly the ids that crossed the visibility
	// boundary since the previous update, not since the current one.
	diff := e.Update(Selection{Paths: []string{"a", "b"}})
	assert.Equal(t, ChangePathAdded, diff.Kind)
	assert.Equal(t, []int{3}, diff.AddedCoreOps)
	assert.Empty(t, diff.RemovedCoreOps)

	diff = e.Update(Selection{Paths: []string{"a", "b", "a/host"}})
	assert.Equal(t, ChangePathAdded, diff.Kind)
	assert.Empty(t, diff.AddedCoreOps)
	assert.Equal(t, []int{0}, diff.AddedHostEvents)

	diff = e.Update(Selection{Paths: []string{"b", "a/host"}})
	assert.Equal(t, ChangePathRemoved, diff.Kind)
	assert.Equal(t, []int{0, 1, 2}, diff.RemovedCoreOps)
	assert.Empty(t, diff.AddedCoreOps)
	assert.Empty(t, diff.RemovedHostEvents)
}

func TestFirstSelectionIsFullRebuild(t *testing.T) {
	e := NewEngine(testModel())

	diff := e.Update(Selection{Paths: []string{"a"}})
	assert.Equal(t, ChangeFull, diff.Kind)
	assert.Equal(t, []int{0, 1, 2}, diff.AddedCoreOps)
}

func TestUpdateDeselectAllYieldsEmptyLayout(t *testing.T) {
	e := NewEngine(testModel())
	e.Update(Selection{Paths: []string{"a", "b", "a/host"}})

	diff := e.Update(Selection{})
	assert.Len(t, diff.RemovedCoreOps, 4)
	assert.Len(t, diff.RemovedHostEvents, 1)
	assert.Empty(t, e.Rows())
	_, ok := e.GlobalBounds()
	assert.False(t, ok)
}

func TestUpdateCoreFilter(t *testing.T) {
	e := NewEngine(testModel())
	e.Update(Selection{Paths: []string{"a"}, Cores: []CoreID{{X: 0, Y: 0}, {X: 0, Y: 1}}})
	assert.Len(t, e.VisibleCoreOps(), 2)

	// Shrinking an explicit core set is subtractive.
	diff := e.Update(Selection{Paths: []string{"a"}, Cores: []CoreID{{X: 0, Y: 0}}})
	assert.Equal(t, ChangeCoresRemoved, diff.Kind)
	assert.Len(t, e.VisibleCoreOps(), 1)
}

func TestUpdateAllToExplicitCoresIsFull(t *testing.T) {
	e := NewEngine(testModel())
	e.Update(Selection{Paths: []string{"a"}})

	// Empty means "all cores"; narrowing to an explicit set is not a
	// monotonic removal, so it degrades to a full recompute.
	diff := e.Update(Selection{Paths: []string{"a"}, Cores: []CoreID{{X: 0, Y: 0}}})
	assert.Equal(t, ChangeFull, diff.Kind)
	assert.Len(t, e.VisibleCoreOps(), 1)
}

func TestUpdateInputsFilterIsFull(t *testing.T) {
	e := NewEngine(testModel())
	e.Update(Selection{Paths: []string{"a", "b"}})

	diff := e.Update(Selection{Paths: []string{"a", "b"}, Inputs: []int{1}})
	assert.Equal(t, ChangeFull, diff.Kind)
	ops := e.VisibleCoreOps()
	require.Len(t, ops, 1)
	assert.Equal(t, 1, ops[0].Key.EpochID)
}

func TestUpdateMultiDimensionChangeIsFull(t *testing.T) {
	e := NewEngine(testModel())
	e.Update(Selection{Paths: []string{"a"}, Cores: []CoreID{{X: 0, Y: 0}}})

	diff := e.Update(Selection{Paths: []string{"a", "b"}, Cores: []CoreID{{X: 0, Y: 0}, {X: 1, Y: 0}}})
	assert.Equal(t, ChangeFull, diff.Kind)
}

func TestUpdateNoChangeIsEmptyDiff(t *testing.T) {
	e := NewEngine(testModel())
	e.Update(Selection{Paths: []string{"a"}})

	diff := e.Update(Selection{Paths: []string{"a"}})
	assert.True(t, diff.Empty())
}

func TestFieldFilter(t *testing.T) {
	e := NewEngine(testModel())
	diff := e.Update(Selection{Paths: []string{"a"}, Fields: []model.FieldKind{model.FieldMiscInfo}})

	// All ops carry only the epoch interval, so a misc-only filter hides
	// every op.
	assert.Equal(t, ChangeFull, diff.Kind)
	assert.Empty(t, e.VisibleCoreOps())
}

func TestRowOrdering(t *testing.T) {
	e := NewEngine(testModel())
	e.Update(Selection{Paths: []string{"a", "a/host"}})

	rows := e.Rows()
	require.Len(t, rows, 4)

	// Host events occupy the leading rows.
	assert.NotNil(t, rows[0].HostEvent)
	for i, r := range rows {
		assert.Equal(t, i, r.Index)
	}

	// Ops ordered by (x, y).
	ops := e.VisibleCoreOps()
	require.Len(t, ops, 3)
	assert.Equal(t, "matmul", ops[0].Key.OpName) // (0,0)
	assert.Equal(t, "add", ops[1].Key.OpName)    // (0,1)
	assert.Equal(t, "exp", ops[2].Key.OpName)    // (1,0)
}

func TestAxisSwapReordersRows(t *testing.T) {
	e := NewEngine(testModel())
	e.Update(Selection{Paths: []string{"a"}})

	e.SetAxisSwap(true)
	ops := e.VisibleCoreOps()
	require.Len(t, ops, 3)
	// Ordered by (y, x): (0,0), (1,0), (0,1).
	assert.Equal(t, "matmul", ops[0].Key.OpName)
	assert.Equal(t, "exp", ops[1].Key.OpName)
	assert.Equal(t, "add", ops[2].Key.OpName)
}

func TestLeftBoundsNormalizedAcrossVisibleSet(t *testing.T) {
	e := NewEngine(testModel())
	e.Update(Selection{Paths: []string{"a", "a/host"}})

	bounds, ok := e.GlobalBounds()
	require.True(t, ok)
	for _, op := range e.VisibleCoreOps() {
		assert.Equal(t, bounds.Start, op.LeftBound)
	}
	for _, ev := range e.VisibleHostEvents() {
		assert.Equal(t, bounds.Start, ev.LeftBound)
	}
}

func TestHighlight(t *testing.T) {
	e := NewEngine(testModel())
	e.Update(Selection{Paths: []string{"a", "b", "a/host"}})

	opIDs, eventIDs := e.Highlight("matmul")
	assert.Equal(t, []int{0, 3}, opIDs)
	assert.Empty(t, eventIDs)

	opIDs, eventIDs = e.Highlight("process")
	assert.Empty(t, opIDs)
	assert.Equal(t, []int{0}, eventIDs)

	opIDs, eventIDs = e.Highlight("")
	assert.Empty(t, opIDs)
	assert.Empty(t, eventIDs)
}

func TestChangeKindString(t *testing.T) {
	assert.Equal(t, "full", ChangeFull.String())
	assert.Equal(t, "path-added", ChangePathAdded.String())
	assert.Equal(t, "fields-removed", ChangeFieldsRemoved.String())
}
