package formatter

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

func (f *CSVFormatter) Format(report *Report) error {
	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	headers := []string{
		"Row", "Kind", "Label", "Path", "Core", "Device",
		"Start", "End", "Duration", "Fields",
	}
	if err := w.Write(headers); err != nil {
		return err
	}

	for _, row := range report.Rows {
		record := []string{
			fmt.Sprintf("%d", row.Row),
			row.Kind,
			row.Label,
			row.Path,
			row.Core,
			fmt.Sprintf("%d", row.DeviceID),
			fmt.Sprintf("%.0f", row.Start),
			fmt.Sprintf("%.0f", row.End),
			fmt.Sprintf("%.0f", row.Duration),
			strings.Join(row.Fields, "|"),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}
