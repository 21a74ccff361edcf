package formatter

import (
	"fmt"
	"math"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/tenstorrent/perf-timeline/internal/util"
)

type TableFormatter struct {
	headers []string
}

func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		headers: []string{
			"Row", "Kind", "Label", "Path", "Core", "Dev",
			"Start", "End", "Duration",
		},
	}
}

func (f *TableFormatter) Format(report *Report) error {
	widths := f.calculateColumnWidths(report)

	fmt.Printf("Bundle: %s (%s layout, %s, %s frequency)\n",
		report.Bundle, report.Mode, report.Unit, report.FrequencyMode)
	if report.Bounds != nil {
		fmt.Printf("Bounds: %s .. %s\n",
			formatValue(report.Bounds.Start, report.Unit),
			formatValue(report.Bounds.End, report.Unit))
	}

	f.printBorder(widths, "top")
	f.printRow(f.headers, widths)
	f.printBorder(widths, "middle")

	for _, row := range report.Rows {
		f.printRow(f.rowValues(row, report.Unit), widths)
	}

	f.printBorder(widths, "bottom")

	if len(report.Discrepancies) > 0 {
		fmt.Println()
		fmt.Println("Clock discrepancies:")
		for _, d := range report.Discrepancies {
			marker := ""
			if d.Flagged {
				marker = "  <-- exceeds threshold"
			}
			fmt.Printf("  %s device %d: derived %s vs nominal %s (ratio %.4f)%s\n",
				d.HostPath, d.DeviceID,
				util.FormatFrequency(d.DerivedGHz),
				util.FormatFrequency(d.NominalGHz),
				d.Ratio, marker)
		}
	}

	return nil
}

func (f *TableFormatter) rowValues(row RowData, unit string) []string {
	duration := ""
	if !math.IsInf(row.End, 1) {
		duration = formatValue(row.Duration, unit)
	}
	return []string{
		fmt.Sprintf("%d", row.Row),
		row.Kind,
		row.Label,
		row.Path,
		row.Core,
		fmt.Sprintf("%d", row.DeviceID),
		formatValue(row.Start, unit),
		formatValue(row.End, unit),
		duration,
	}
}

// calculateColumnWidths determines the width for each column based on content.
func (f *TableFormatter) calculateColumnWidths(report *Report) []int {
	widths := make([]int, len(f.headers))
	for i, header := range f.headers {
		widths[i] = runewidth.StringWidth(header)
	}

	for _, row := range report.Rows {
		for i, value := range f.rowValues(row, report.Unit) {
			if w := runewidth.StringWidth(value); w > widths[i] {
				widths[i] = w
			}
		}
	}

	minWidths := []int{3, 4, 8, 8, 4, 3, 8, 8, 8}
	for i, minWidth := range minWidths {
		if widths[i] < minWidth {
			widths[i] = minWidth
		}
	}

	return widths
}

// printBorder prints table borders (top, middle, bottom).
func (f *TableFormatter) printBorder(widths []int, borderType string) {
	var left, middle, right, separator string

	switch borderType {
	case "top":
		left, middle, right, separator = "┌", "┬", "┐", "─"
	case "middle":
		left, middle, right, separator = "├", "┼", "┤", "─"
	case "bottom":
		left, middle, right, separator = "└", "┴", "┘", "─"
	}

	fmt.Print(left)
	for i, width := range widths {
		fmt.Print(strings.Repeat(separator, width+2)) // +2 for padding spaces
		if i < len(widths)-1 {
			fmt.Print(middle)
		}
	}
	fmt.Println(right)
}

// printRow prints a data row. Textual columns are left-aligned, numeric ones
// right-aligned. Padding counts display cells, not bytes.
func (f *TableFormatter) printRow(values []string, widths []int) {
	fmt.Print("│")
	for i, value := range values {
		pad := widths[i] - runewidth.StringWidth(value)
		if pad < 0 {
			pad = 0
		}
		if i >= 6 || i == 0 || i == 5 {
			fmt.Printf(" %s%s │", strings.Repeat(" ", pad), value)
		} else {
			fmt.Printf(" %s%s │", value, strings.Repeat(" ", pad))
		}
	}
	fmt.Println()
}

func formatValue(v float64, unit string) string {
	if math.IsInf(v, 1) {
		return "open"
	}
	if unit == "ns" {
		return util.FormatNanoseconds(v)
	}
	return util.FormatCycles(v)
}
