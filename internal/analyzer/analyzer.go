package analyzer

import (
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/tenstorrent/perf-timeline/internal/core/model"
	"github.com/tenstorrent/perf-timeline/internal/core/selection"
	"github.com/tenstorrent/perf-timeline/internal/core/session"
	"github.com/tenstorrent/perf-timeline/internal/core/timeline"
	"github.com/tenstorrent/perf-timeline/internal/presentation/formatter"
	"github.com/tenstorrent/perf-timeline/internal/util"
)

// DiscrepancyThreshold is the derived/nominal frequency ratio above which a
// correlation is flagged in reports.
const DiscrepancyThreshold = 0.05

type Config struct {
	DataDir      string
	OutputFormat string
	Unit         string // cycles, ns
	Frequency    string // derived, nominal
	Highlight    string
	Paths        []string
	AxisSwap     bool
	Concurrency  int
}

type Analyzer struct {
	config *Config
}

func New(config *Config) *Analyzer {
	if config.Concurrency == 0 {
		config.Concurrency = runtime.NumCPU()
	}
	return &Analyzer{config: config}
}

// Run loads the bundle, applies the configured view, and prints one report.
func (a *Analyzer) Run() error {
	startTime := time.Now()
	util.LogInfo("Starting perf dump analysis...")

	// Phase 1: Load the bundle
	loadStart := time.Now()
	sess, err := session.Load(a.config.DataDir, a.config.Concurrency)
	if err != nil {
		return fmt.Errorf("failed to load bundle: %w", err)
	}
	loadDuration := time.Since(loadStart)
	util.LogDebug(fmt.Sprintf("Phase 1 - Bundle load duration: %v", loadDuration))

	// Phase 2: Apply the configured view
	viewStart := time.Now()
	a.ApplyView(sess)
	viewDuration := time.Since(viewStart)
	util.LogDebug(fmt.Sprintf("Phase 2 - View setup duration: %v, %d visible rows",
		viewDuration, len(sess.Rows())))

	// Phase 3: Build and output the report
	outputStart := time.Now()
	report := BuildReport(sess)
	err = formatter.New(a.config.OutputFormat).Format(report)
	outputDuration := time.Since(outputStart)
	util.LogDebug(fmt.Sprintf("Phase 3 - Formatting and output duration: %v", outputDuration))

	totalDuration := time.Since(startTime)
	util.LogDebug(fmt.Sprintf("Total duration: %v (load:%v view:%v output:%v)",
		totalDuration, loadDuration, viewDuration, outputDuration))

	if a.config.Highlight != "" {
		opIDs, eventIDs := sess.Highlight(a.config.Highlight)
		fmt.Printf("\nHighlight %q: %d core op(s), %d host event(s)\n",
			a.config.Highlight, len(opIDs), len(eventIDs))
	}

	return err
}

// ApplyView applies the configured selection, unit and frequency to a session.
// Watch mode reuses this after every reload.
func (a *Analyzer) ApplyView(sess *session.Session) {
	if len(a.config.Paths) > 0 {
		sel := sess.Selection()
		sel.Paths = nil
		for _, raw := range a.config.Paths {
			p := sess.ClosestValidPath(model.ParseFolderPath(raw))
			if len(p) > 0 {
				sel.Paths = append(sel.Paths, p.String())
			} else {
				util.LogWarnf("Ignoring path with no counterpart in bundle: %s", raw)
			}
		}
		sess.UpdateSelection(sel)
	}

	sess.SetAxisSwap(a.config.AxisSwap)

	if a.config.Unit == "ns" {
		sess.SetUnit(timeline.UnitNanoseconds)
	} else {
		sess.SetUnit(timeline.UnitCycles)
	}
	if a.config.Frequency == "nominal" {
		sess.SetFrequencyMode(timeline.FrequencyNominal)
	} else {
		sess.SetFrequencyMode(timeline.FrequencyDerived)
	}
}

// BuildReport converts a session's visible state into the renderable report.
func BuildReport(sess *session.Session) *formatter.Report {
	report := &formatter.Report{
		Bundle:        filepath.Base(sess.Root()),
		Mode:          sess.Mode().String(),
		Unit:          unitName(sess.Unit()),
		FrequencyMode: sess.FrequencyMode().String(),
	}

	if bounds, ok := sess.GlobalBounds(); ok {
		report.Bounds = &formatter.BoundsData{Start: bounds.Start, End: bounds.End}
	}

	rows := sess.Rows()
	report.Rows = make([]formatter.RowData, 0, len(rows))
	for _, row := range rows {
		report.Rows = append(report.Rows, rowData(row))
	}

	for _, d := range sess.Discrepancies() {
		report.Discrepancies = append(report.Discrepancies, formatter.DiscrepancyData{
			HostPath:   d.HostPath,
			DeviceID:   d.DeviceID,
			DerivedGHz: d.DerivedGHz,
			NominalGHz: d.NominalGHz,
			Ratio:      d.Ratio,
			Flagged:    d.Ratio > DiscrepancyThreshold,
		})
	}

	return report
}

func rowData(row selection.Row) formatter.RowData {
	if row.HostEvent != nil {
		ev := row.HostEvent
		start := ev.EarliestStart()
		end := ev.LatestEnd()
		return formatter.RowData{
			Row:        row.Index,
			Kind:       "host-event",
			Label:      ev.Name,
			Path:       ev.Path,
			DeviceID:   ev.DeviceID,
			ProcessID:  ev.ProcessID,
			Start:      start,
			End:        end,
			Duration:   end - start,
			Correlated: true,
		}
	}

	op := row.CoreOp
	start := op.EarliestStart()
	end := op.LatestEnd()
	return formatter.RowData{
		Row:        row.Index,
		Kind:       "core-op",
		Label:      op.Key.OpName,
		Path:       op.Path,
		Core:       fmt.Sprintf("%d-%d", op.Key.CoreX, op.Key.CoreY),
		DeviceID:   op.Key.DeviceID,
		EpochID:    op.Key.EpochID,
		Start:      start,
		End:        end,
		Duration:   end - start,
		Fields:     populatedFields(op.Times),
		Correlated: op.Correlated(),
	}
}

func populatedFields(t *timeline.OpTimes) []string {
	var fields []string
	add := func(kind model.FieldKind, present bool) {
		if present {
			fields = append(fields, kind.String())
		}
	}
	add(model.FieldEpochTotal, t.EpochTotal != nil)
	add(model.FieldEpochPrologue, t.EpochPrologue != nil)
	add(model.FieldEpochLoop, t.EpochLoop != nil)
	add(model.FieldEpochEpilogue, t.EpochEpilogue != nil)
	add(model.FieldQSlotComplete, len(t.QSlotComplete) > 0)
	add(model.FieldDramRead, len(t.ChunkReadIssued) > 0 || len(t.TilesFlushed) > 0)
	add(model.FieldDramWrite, len(t.DramWriteSent) > 0 || len(t.DramWriteCleared) > 0)
	add(model.FieldBufferStatus, len(t.BufferStatus) > 0)
	add(model.FieldMiscInfo, len(t.MiscInfo) > 0)
	return fields
}

func unitName(u timeline.Unit) string {
	if u == timeline.UnitNanoseconds {
		return "ns"
	}
	return "cycles"
}
