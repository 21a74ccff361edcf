package selection

import (
	"maps"
	"sort"
	"strings"

	"github.com/tenstorrent/perf-timeline/internal/core/model"
	"github.com/tenstorrent/perf-timeline/internal/core/timeline"
	"github.com/tenstorrent/perf-timeline/internal/util"
)

// CoreID is a core coordinate used for filtering.
type CoreID struct {
	X int
	Y int
}

// Selection is the user's current choice of folder paths, cores, field kinds
// and input (epoch) indices. Empty Cores/Fields/Inputs mean "all"; empty
// Paths means nothing is selected.
type Selection struct {
	Paths  []string
	Cores  []CoreID
	Fields []model.FieldKind
	Inputs []int
}

// ChangeKind classifies one selection update. Each incremental kind has a
// cheaper recompute than the full rebuild.
type ChangeKind int

const (
	ChangeFull ChangeKind = iota
	ChangePathAdded
	ChangePathRemoved
	ChangeCoresAdded
	ChangeCoresRemoved
	ChangeFieldsAdded
	ChangeFieldsRemoved
)

func (c ChangeKind) String() string {
	switch c {
	case ChangePathAdded:
		return "path-added"
	case ChangePathRemoved:
		return "path-removed"
	case ChangeCoresAdded:
		return "cores-added"
	case ChangeCoresRemoved:
		return "cores-removed"
	case ChangeFieldsAdded:
		return "fields-added"
	case ChangeFieldsRemoved:
		return "fields-removed"
	default:
		return "full"
	}
}

// Diff reports which entity ids entered and left the visible set in one
// update. Layout consumes this instead of re-scanning the full sets.
type Diff struct {
	Kind              ChangeKind
	AddedCoreOps      []int
	RemovedCoreOps    []int
	AddedHostEvents   []int
	RemovedHostEvents []int
}

// Empty reports whether the update changed nothing visible.
func (d Diff) Empty() bool {
	return len(d.AddedCoreOps) == 0 && len(d.RemovedCoreOps) == 0 &&
		len(d.AddedHostEvents) == 0 && len(d.RemovedHostEvents) == 0
}

// Row is one dense layout slot of the current visible set. Exactly one of
// CoreOp/HostEvent is set.
type Row struct {
	Index     int
	CoreOp    *timeline.CoreOp
	HostEvent *timeline.HostEvent
}

// Engine incrementally maintains the visible subset of a timeline model as
// the selection changes.
type Engine struct {
	model *timeline.Model
	sel   Selection

	visibleOps    map[int]*timeline.CoreOp
	visibleEvents map[int]*timeline.HostEvent
	rows          []Row
	bounds        timeline.Bounds
	hasBounds     bool
	axisSwap      bool
}

// NewEngine creates an engine with an empty selection (nothing visible).
func NewEngine(m *timeline.Model) *Engine {
	return &Engine{
		model:         m,
		visibleOps:    make(map[int]*timeline.CoreOp),
		visibleEvents: make(map[int]*timeline.HostEvent),
	}
}

// SetAxisSwap toggles the (x,y)/(y,x) core row ordering and relayouts.
func (e *Engine) SetAxisSwap(swap bool) {
	if e.axisSwap == swap {
		return
	}
	e.axisSwap = swap
	e.assignRows()
}

// Selection returns a copy of the active selection.
func (e *Engine) Selection() Selection {
	return e.sel
}

// Update applies a new selection, classifies the change against the previous
// one, recomputes the visible subset along the cheapest matching path, and
// returns the visibility diff. An update that empties the selection yields an
// empty layout, not an error.
func (e *Engine) Update(sel Selection) Diff {
	kind := classifyChange(e.sel, sel)
	// Snapshot the visible sets; the incremental branches below mutate them
	// in place, and the diff must run against the pre-update state.
	prevOps := maps.Clone(e.visibleOps)
	prevEvents := maps.Clone(e.visibleEvents)

	switch kind {
	case ChangePathAdded, ChangeCoresAdded, ChangeFieldsAdded:
		// Additive changes only grow the visible set; re-test hidden
		// entities against the new selection.
		e.sel = sel
		for _, op := range e.model.CoreOps {
			if _, shown := e.visibleOps[op.ID]; shown {
				continue
			}
			if e.opVisible(op) {
				e.visibleOps[op.ID] = op
			}
		}
		if kind == ChangePathAdded {
			for _, ev := range e.model.HostEvents {
				if _, shown := e.visibleEvents[ev.ID]; shown {
					continue
				}
				if e.eventVisible(ev) {
					e.visibleEvents[ev.ID] = ev
				}
			}
		}
	case ChangePathRemoved, ChangeCoresRemoved, ChangeFieldsRemoved:
		// Subtractive changes only shrink it; re-test visible entities.
		e.sel = sel
		for id, op := range e.visibleOps {
			if !e.opVisible(op) {
				delete(e.visibleOps, id)
			}
		}
		if kind == ChangePathRemoved {
			for id, ev := range e.visibleEvents {
				if !e.eventVisible(ev) {
					delete(e.visibleEvents, id)
				}
			}
		}
	default:
		e.sel = sel
		e.visibleOps = make(map[int]*timeline.CoreOp)
		e.visibleEvents = make(map[int]*timeline.HostEvent)
		for _, op := range e.model.CoreOps {
			if e.opVisible(op) {
				e.visibleOps[op.ID] = op
			}
		}
		for _, ev := range e.model.HostEvents {
			if e.eventVisible(ev) {
				e.visibleEvents[ev.ID] = ev
			}
		}
	}

	diff := diffSets(kind, prevOps, e.visibleOps, prevEvents, e.visibleEvents)
	e.assignRows()
	util.LogDebugf("Selection update (%s): +%d/-%d ops, +%d/-%d host events, %d rows",
		kind, len(diff.AddedCoreOps), len(diff.RemovedCoreOps),
		len(diff.AddedHostEvents), len(diff.RemovedHostEvents), len(e.rows))
	return diff
}

// classifyChange buckets the update into exactly one change kind. Anything
// touching more than one dimension degrades to a full recompute.
func classifyChange(old, cur Selection) ChangeKind {
	// The first selection after the zero value has no visible baseline worth
	// patching; build it from scratch.
	if len(old.Paths) == 0 {
		return ChangeFull
	}

	pathsAdded, pathsRemoved := setDelta(old.Paths, cur.Paths)
	coresAdded, coresRemoved := coreDelta(old.Cores, cur.Cores)
	fieldsAdded, fieldsRemoved := fieldDelta(old.Fields, cur.Fields)
	inputsAdded, inputsRemoved := intDelta(old.Inputs, cur.Inputs)

	if inputsAdded || inputsRemoved {
		return ChangeFull
	}

	changed := 0
	var kind ChangeKind
	switch {
	case pathsAdded && !pathsRemoved:
		changed++
		kind = ChangePathAdded
	case pathsRemoved && !pathsAdded:
		changed++
		kind = ChangePathRemoved
	case pathsAdded && pathsRemoved:
		return ChangeFull
	}
	switch {
	case coresAdded && !coresRemoved:
		changed++
		kind = ChangeCoresAdded
	case coresRemoved && !coresAdded:
		changed++
		kind = ChangeCoresRemoved
	case coresAdded && coresRemoved:
		return ChangeFull
	}
	switch {
	case fieldsAdded && !fieldsRemoved:
		changed++
		kind = ChangeFieldsAdded
	case fieldsRemoved && !fieldsAdded:
		changed++
		kind = ChangeFieldsRemoved
	case fieldsAdded && fieldsRemoved:
		return ChangeFull
	}

	if changed != 1 {
		return ChangeFull
	}
	// Core and field filters switch between "all" (empty) and explicit
	// sets; such flips are not monotonic, so only same-regime changes take
	// the incremental path.
	if kind == ChangeCoresAdded || kind == ChangeCoresRemoved {
		if len(old.Cores) == 0 || len(cur.Cores) == 0 {
			return ChangeFull
		}
	}
	if kind == ChangeFieldsAdded || kind == ChangeFieldsRemoved {
		if len(old.Fields) == 0 || len(cur.Fields) == 0 {
			return ChangeFull
		}
	}
	return kind
}

func (e *Engine) opVisible(op *timeline.CoreOp) bool {
	if !containsString(e.sel.Paths, op.Path) {
		return false
	}
	if len(e.sel.Cores) > 0 && !containsCore(e.sel.Cores, CoreID{X: op.Key.CoreX, Y: op.Key.CoreY}) {
		return false
	}
	if len(e.sel.Inputs) > 0 && !containsInt(e.sel.Inputs, op.Key.EpochID) {
		return false
	}
	if len(e.sel.Fields) > 0 && !hasAnyField(op.Times, e.sel.Fields) {
		return false
	}
	return true
}

func (e *Engine) eventVisible(ev *timeline.HostEvent) bool {
	return containsString(e.sel.Paths, ev.Path)
}

// assignRows recomputes the dense layout indices: host events first (process
// id, then latest end), then cores ordered by coordinate, with the axis-swap
// toggle choosing (x,y) or (y,x). Also renormalizes left bounds.
func (e *Engine) assignRows() {
	events := make([]*timeline.HostEvent, 0, len(e.visibleEvents))
	for _, ev := range e.visibleEvents {
		events = append(events, ev)
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].ProcessID != events[j].ProcessID {
			return events[i].ProcessID < events[j].ProcessID
		}
		if events[i].LatestEnd() != events[j].LatestEnd() {
			return events[i].LatestEnd() < events[j].LatestEnd()
		}
		return events[i].ID < events[j].ID
	})

	ops := make([]*timeline.CoreOp, 0, len(e.visibleOps))
	for _, op := range e.visibleOps {
		ops = append(ops, op)
	}
	sort.SliceStable(ops, func(i, j int) bool {
		a, b := ops[i].Key, ops[j].Key
		ai, aj := a.CoreX, a.CoreY
		bi, bj := b.CoreX, b.CoreY
		if e.axisSwap {
			ai, aj = a.CoreY, a.CoreX
			bi, bj = b.CoreY, b.CoreX
		}
		if ai != bi {
			return ai < bi
		}
		if aj != bj {
			return aj < bj
		}
		return ops[i].ID < ops[j].ID
	})

	e.rows = make([]Row, 0, len(events)+len(ops))
	for _, ev := range events {
		e.rows = append(e.rows, Row{Index: len(e.rows), HostEvent: ev})
	}
	for _, op := range ops {
		e.rows = append(e.rows, Row{Index: len(e.rows), CoreOp: op})
	}

	e.bounds, e.hasBounds = timeline.NormalizeLeftBounds(ops, events)
}

// Relayout recomputes row assignment and bounds for the current visible set.
// Needed after a unit or frequency-mode switch changes every coordinate.
func (e *Engine) Relayout() {
	e.assignRows()
}

// Rows returns the current dense layout.
func (e *Engine) Rows() []Row {
	out := make([]Row, len(e.rows))
	copy(out, e.rows)
	return out
}

// VisibleCoreOps returns the visible ops in row order.
func (e *Engine) VisibleCoreOps() []*timeline.CoreOp {
	var out []*timeline.CoreOp
	for _, r := range e.rows {
		if r.CoreOp != nil {
			out = append(out, r.CoreOp)
		}
	}
	return out
}

// VisibleHostEvents returns the visible host events in row order.
func (e *Engine) VisibleHostEvents() []*timeline.HostEvent {
	var out []*timeline.HostEvent
	for _, r := range e.rows {
		if r.HostEvent != nil {
			out = append(out, r.HostEvent)
		}
	}
	return out
}

// GlobalBounds returns the envelope of the visible set. ok is false when
// nothing is visible.
func (e *Engine) GlobalBounds() (timeline.Bounds, bool) {
	return e.bounds, e.hasBounds
}

// Highlight returns the ids of visible ops and host events whose label
// contains the given substring.
func (e *Engine) Highlight(substr string) (opIDs []int, eventIDs []int) {
	if substr == "" {
		return nil, nil
	}
	for _, r := range e.rows {
		switch {
		case r.CoreOp != nil && strings.Contains(r.CoreOp.Key.OpName, substr):
			opIDs = append(opIDs, r.CoreOp.ID)
		case r.HostEvent != nil && strings.Contains(r.HostEvent.Name, substr):
			eventIDs = append(eventIDs, r.HostEvent.ID)
		}
	}
	return opIDs, eventIDs
}

func diffSets(kind ChangeKind, prevOps, curOps map[int]*timeline.CoreOp,
	prevEvents, curEvents map[int]*timeline.HostEvent) Diff {

	d := Diff{Kind: kind}
	for id := range curOps {
		if _, ok := prevOps[id]; !ok {
			d.AddedCoreOps = append(d.AddedCoreOps, id)
		}
	}
	for id := range prevOps {
		if _, ok := curOps[id]; !ok {
			d.RemovedCoreOps = append(d.RemovedCoreOps, id)
		}
	}
	for id := range curEvents {
		if _, ok := prevEvents[id]; !ok {
			d.AddedHostEvents = append(d.AddedHostEvents, id)
		}
	}
	for id := range prevEvents {
		if _, ok := curEvents[id]; !ok {
			d.RemovedHostEvents = append(d.RemovedHostEvents, id)
		}
	}
	sort.Ints(d.AddedCoreOps)
	sort.Ints(d.RemovedCoreOps)
	sort.Ints(d.AddedHostEvents)
	sort.Ints(d.RemovedHostEvents)
	return d
}

func hasAnyField(t *timeline.OpTimes, kinds []model.FieldKind) bool {
	for _, k := range kinds {
		if hasFieldKind(t, k) {
			return true
		}
	}
	return false
}

func hasFieldKind(t *timeline.OpTimes, k model.FieldKind) bool {
	switch k {
	case model.FieldEpochTotal:
		return t.EpochTotal != nil
	case model.FieldEpochPrologue:
		return t.EpochPrologue != nil
	case model.FieldEpochLoop:
		return t.EpochLoop != nil
	case model.FieldEpochEpilogue:
		return t.EpochEpilogue != nil
	case model.FieldQSlotComplete:
		return len(t.QSlotComplete) > 0
	case model.FieldDramRead:
		return len(t.ChunkReadIssued) > 0 || len(t.TilesFlushed) > 0
	case model.FieldDramWrite:
		return len(t.DramWriteSent) > 0 || len(t.DramWriteCleared) > 0
	case model.FieldBufferStatus:
		return len(t.BufferStatus) > 0
	case model.FieldMiscInfo:
		return len(t.MiscInfo) > 0
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, n := range list {
		if n == v {
			return true
		}
	}
	return false
}

func containsCore(list []CoreID, v CoreID) bool {
	for _, c := range list {
		if c == v {
			return true
		}
	}
	return false
}

// setDelta reports whether new has members old lacks, and vice versa.
func setDelta(old, cur []string) (added, removed bool) {
	for _, s := range cur {
		if !containsString(old, s) {
			added = true
			break
		}
	}
	for _, s := range old {
		if !containsString(cur, s) {
			removed = true
			break
		}
	}
	return added, removed
}

func intDelta(old, cur []int) (added, removed bool) {
	for _, n := range cur {
		if !containsInt(old, n) {
			added = true
			break
		}
	}
	for _, n := range old {
		if !containsInt(cur, n) {
			removed = true
			break
		}
	}
	return added, removed
}

func coreDelta(old, cur []CoreID) (added, removed bool) {
	for _, c := range cur {
		if !containsCore(old, c) {
			added = true
			break
		}
	}
	for _, c := range old {
		if !containsCore(cur, c) {
			removed = true
			break
		}
	}
	return added, removed
}

func fieldDelta(old, cur []model.FieldKind) (added, removed bool) {
	containsKind := func(list []model.FieldKind, v model.FieldKind) bool {
		for _, k := range list {
			if k == v {
				return true
			}
		}
		return false
	}
	for _, k := range cur {
		if !containsKind(old, k) {
			added = true
			break
		}
	}
	for _, k := range old {
		if !containsKind(cur, k) {
			removed = true
			break
		}
	}
	return added, removed
}
