package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tenstorrent/perf-timeline/internal/util"
)

// SummaryFormatter aggregates the report per folder path instead of listing
// every row.
type SummaryFormatter struct{}

func NewSummaryFormatter() *SummaryFormatter {
	return &SummaryFormatter{}
}

type pathStat struct {
	ops          int
	hostEvents   int
	correlated   int
	totalOpSpan  float64
	earliest     float64
	latest       float64
	seenInterval bool
}

func (f *SummaryFormatter) Format(report *Report) error {
	stats := make(map[string]*pathStat)
	for _, row := range report.Rows {
		stat, ok := stats[row.Path]
		if !ok {
			stat = &pathStat{}
			stats[row.Path] = stat
		}
		switch row.Kind {
		case "core-op":
			stat.ops++
			stat.totalOpSpan += row.Duration
		case "host-event":
			stat.hostEvents++
		}
		if row.Correlated {
			stat.correlated++
		}
		if !stat.seenInterval || row.Start < stat.earliest {
			stat.earliest = row.Start
		}
		if !stat.seenInterval || row.End > stat.latest {
			stat.latest = row.End
		}
		stat.seenInterval = true
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Performance Timeline Summary")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println()
	fmt.Printf("Bundle: %s\n", report.Bundle)
	fmt.Printf("Layout: %s\n", report.Mode)
	fmt.Printf("Unit: %s (%s frequency)\n", report.Unit, report.FrequencyMode)
	if report.Bounds != nil {
		fmt.Printf("Bounds: %s .. %s\n",
			formatValue(report.Bounds.Start, report.Unit),
			formatValue(report.Bounds.End, report.Unit))
	}
	fmt.Println()

	if len(report.Rows) == 0 {
		fmt.Println("No rows selected")
		fmt.Println()
		fmt.Println(strings.Repeat("=", 60))
		return nil
	}

	var paths []string
	for p := range stats {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	fmt.Println("Per-path breakdown:")
	fmt.Println(strings.Repeat("-", 60))
	for _, p := range paths {
		stat := stats[p]
		fmt.Printf("\n%s:\n", p)
		fmt.Printf("  Core Ops:       %s\n", util.FormatCount(stat.ops))
		fmt.Printf("  Host Events:    %s\n", util.FormatCount(stat.hostEvents))
		fmt.Printf("  Correlated:     %s\n", util.FormatCount(stat.correlated))
		fmt.Printf("  Span:           %s .. %s\n",
			formatValue(stat.earliest, report.Unit),
			formatValue(stat.latest, report.Unit))
	}

	if len(report.Discrepancies) > 0 {
		fmt.Println()
		fmt.Println("Clock discrepancies:")
		fmt.Println(strings.Repeat("-", 60))
		for _, d := range report.Discrepancies {
			status := "ok"
			if d.Flagged {
				status = "FLAGGED"
			}
			fmt.Printf("  %s device %d: derived %s, nominal %s, ratio %.4f [%s]\n",
				d.HostPath, d.DeviceID,
				util.FormatFrequency(d.DerivedGHz),
				util.FormatFrequency(d.NominalGHz),
				d.Ratio, status)
		}
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", 60))

	return nil
}
