package session

import (
	"sort"
	"strings"
	"time"

	"github.com/tenstorrent/perf-timeline/internal/core/clock"
	"github.com/tenstorrent/perf-timeline/internal/core/folder"
	"github.com/tenstorrent/perf-timeline/internal/core/model"
	"github.com/tenstorrent/perf-timeline/internal/core/selection"
	"github.com/tenstorrent/perf-timeline/internal/core/timeline"
	"github.com/tenstorrent/perf-timeline/internal/data/parser"
	"github.com/tenstorrent/perf-timeline/internal/data/scanner"
	"github.com/tenstorrent/perf-timeline/internal/util"
)

// Session owns everything derived from one loaded bundle: the folder index,
// the record partitions, the clock correlations, the timeline model and the
// selection state. A reload builds a fresh Session; nothing here mutates in
// place across loads.
type Session struct {
	root        string
	index       *folder.Index
	records     *model.RecordSet
	clocks      *clock.Engine
	model       *timeline.Model
	sel         *selection.Engine
	fingerprint string
	loadedAt    time.Time
}

// Load runs the full pipeline: scan → ingest → correlate → build. The
// returned session starts with every folder path selected.
func Load(root string, concurrency int) (*Session, error) {
	start := time.Now()
	util.LogInfof("Loading perf dump bundle: %s", root)

	leaves, err := scanner.NewBundleScanner(root).Scan()
	if err != nil {
		return nil, err
	}

	leafList := make([]folder.Leaf, len(leaves))
	for i, lf := range leaves {
		leafList[i] = lf.Leaf
	}
	index, err := folder.Build(leafList)
	if err != nil {
		return nil, err
	}

	records, err := parser.NewParser(concurrency).Ingest(leaves)
	if err != nil {
		return nil, err
	}

	clocks := clock.Correlate(records)
	tl := timeline.Build(records, clocks)

	s := &Session{
		root:        root,
		index:       index,
		records:     records,
		clocks:      clocks,
		model:       tl,
		sel:         selection.NewEngine(tl),
		fingerprint: fingerprintLeaves(leaves),
		loadedAt:    time.Now(),
	}

	// Everything visible by default; the consumer narrows from here.
	paths := make([]string, 0, len(index.AllPaths()))
	for _, p := range index.AllPaths() {
		paths = append(paths, p.String())
	}
	s.sel.Update(selection.Selection{Paths: paths})

	util.LogInfof("Bundle loaded: %d paths, %d core ops, %d host events, duration %v",
		len(paths), len(tl.CoreOps), len(tl.HostEvents), time.Since(start))
	return s, nil
}

// fingerprintLeaves folds the identity of every dump file into one token so
// watch mode can skip reloads that change nothing.
func fingerprintLeaves(leaves []scanner.LeafFiles) string {
	var files []string
	for _, lf := range leaves {
		if lf.Silicon != "" {
			files = append(files, lf.Silicon)
		}
		files = append(files, lf.Model...)
		files = append(files, lf.Graph...)
		files = append(files, lf.Host...)
	}
	sort.Strings(files)

	var sb strings.Builder
	for _, f := range files {
		info, err := util.GetFileInfo(f)
		if err != nil {
			continue
		}
		sb.WriteString(info.Fingerprint())
		sb.WriteByte(';')
	}
	return sb.String()
}

// Root returns the bundle root directory.
func (s *Session) Root() string {
	return s.root
}

// Fingerprint returns the bundle content token captured at load time.
func (s *Session) Fingerprint() string {
	return s.fingerprint
}

// Mode returns the informational bundle layout classification.
func (s *Session) Mode() folder.Mode {
	return s.index.Mode()
}

// AllFolderPaths lists every leaf path in depth-first order.
func (s *Session) AllFolderPaths() []model.FolderPath {
	return s.index.AllPaths()
}

// SelectionsAt reports the sibling choices at each depth of the given path.
func (s *Session) SelectionsAt(p model.FolderPath) [][]string {
	return s.index.SelectionsAt(p)
}

// IsValidPath reports whether a path is a current leaf.
func (s *Session) IsValidPath(p model.FolderPath) bool {
	return s.index.IsValidPath(p)
}

// ClosestValidPath repairs a stale path against the current tree.
func (s *Session) ClosestValidPath(p model.FolderPath) model.FolderPath {
	return s.index.ClosestValidPath(p)
}

// UpdateSelection applies a selection change and returns the visibility diff.
func (s *Session) UpdateSelection(sel selection.Selection) selection.Diff {
	return s.sel.Update(sel)
}

// Selection returns the active selection.
func (s *Session) Selection() selection.Selection {
	return s.sel.Selection()
}

// SetAxisSwap toggles core row ordering between (x,y) and (y,x).
func (s *Session) SetAxisSwap(swap bool) {
	s.sel.SetAxisSwap(swap)
}

// VisibleCoreOps returns the visible ops in row order.
func (s *Session) VisibleCoreOps() []*timeline.CoreOp {
	return s.sel.VisibleCoreOps()
}

// VisibleHostEvents returns the visible host events in row order.
func (s *Session) VisibleHostEvents() []*timeline.HostEvent {
	return s.sel.VisibleHostEvents()
}

// Rows returns the dense layout of the visible set.
func (s *Session) Rows() []selection.Row {
	return s.sel.Rows()
}

// GlobalBounds returns the envelope of the visible set.
func (s *Session) GlobalBounds() (timeline.Bounds, bool) {
	return s.sel.GlobalBounds()
}

// SetUnit switches the display unit and relayouts the visible set.
func (s *Session) SetUnit(u timeline.Unit) {
	s.model.SetUnit(u)
	s.sel.Relayout()
}

// SetFrequencyMode switches the conversion frequency and relayouts.
func (s *Session) SetFrequencyMode(f timeline.FrequencyMode) {
	s.model.SetFrequencyMode(f)
	s.sel.Relayout()
}

// Unit returns the model's current unit.
func (s *Session) Unit() timeline.Unit {
	return s.model.Unit()
}

// FrequencyMode returns the model's current frequency mode.
func (s *Session) FrequencyMode() timeline.FrequencyMode {
	return s.model.FrequencyMode()
}

// Highlight returns visible entity ids whose label contains the substring.
func (s *Session) Highlight(substr string) (opIDs []int, eventIDs []int) {
	return s.sel.Highlight(substr)
}

// Discrepancies exposes the derived/nominal clock comparison data; the
// flagging threshold is the caller's.
func (s *Session) Discrepancies() []clock.Discrepancy {
	return s.clocks.Discrepancies()
}

// GraphNodeFor finds the topology node labeled with the given op name within
// the graph record sharing the op's path. Returns false when the bundle has
// no topology for that path or no such node.
func (s *Session) GraphNodeFor(op *timeline.CoreOp) (model.GraphNode, bool) {
	g, ok := s.records.Graph[op.Path]
	if !ok {
		return model.GraphNode{}, false
	}
	for _, node := range g.Nodes {
		if node.Label == op.Key.OpName {
			return node, true
		}
	}
	return model.GraphNode{}, false
}
