package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tenstorrent/perf-timeline/internal/analyzer"
	"github.com/tenstorrent/perf-timeline/internal/util"
)

var (
	// Logging related
	debug   bool
	logFile string

	// Data path
	dataDir string

	// Output related
	outputFormat string

	// View configuration
	unit      string
	frequency string
	highlight string
	paths     []string
	axisSwap  bool

	rootCmd = &cobra.Command{
		Use:   "perf-timeline [flags]",
		Short: "Tenstorrent performance dump timeline tool",
		Long: `perf-timeline loads a performance dump bundle, correlates device clocks
against host wall time, and renders the resulting op timeline.

A bundle is a directory tree whose leaves each hold a silicon dump
(perf_postprocess.json), optional model dumps (runtime_table.json), an
optional graph topology, and optional host process dumps under host/.

Examples:
  perf-timeline --dir ./perf_results                    # Render the full timeline as a table
  perf-timeline --dir ./perf_results --output json      # Machine-readable report
  perf-timeline --dir ./perf_results --unit ns          # Convert device cycles to wall time
  perf-timeline --dir ./perf_results --frequency nominal
  perf-timeline --dir ./perf_results --path fwd_0/device_0
  perf-timeline --dir ./perf_results --highlight matmul # Count label matches`,
		RunE: runAnalyze,
	}
)

const defaultLogFile = "~/.perf-timeline/logs/app.log"

func init() {
	// Input data configuration
	rootCmd.PersistentFlags().StringVar(&dataDir, "dir", ".",
		"Performance dump bundle directory")

	// View configuration
	rootCmd.Flags().StringVarP(&unit, "unit", "u", "cycles",
		"Time axis unit (cycles, ns)")
	rootCmd.Flags().StringVarP(&frequency, "frequency", "f", "derived",
		"Clock estimate for cycle-to-ns conversion (derived, nominal)")
	rootCmd.Flags().StringSliceVarP(&paths, "path", "p", nil,
		"Folder path to select, slash-separated (repeatable; default all)")
	rootCmd.Flags().StringVar(&highlight, "highlight", "",
		"Report how many visible rows match this label substring")
	rootCmd.Flags().BoolVar(&axisSwap, "axis-swap", false,
		"Order core rows by (y,x) instead of (x,y)")

	// Output configuration
	rootCmd.Flags().StringVarP(&outputFormat, "output", "o", "table",
		"Output format (table, json, csv, summary)")

	// System and debugging
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", defaultLogFile,
		"Log file path")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	initLogging()

	dir := expandPath(dataDir)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("bundle directory not accessible: %w", err)
	}

	config := &analyzer.Config{
		DataDir:      dir,
		OutputFormat: outputFormat,
		Unit:         unit,
		Frequency:    frequency,
		Highlight:    highlight,
		Paths:        paths,
		AxisSwap:     axisSwap,
		Concurrency:  runtime.NumCPU(),
	}

	return analyzer.New(config).Run()
}

func Execute() error {
	return rootCmd.Execute()
}

// Helper functions

func initLogging() {
	logLevel := "info"
	if debug {
		logLevel = "debug"
	}
	file := expandPath(logFile)
	ensureDir(filepath.Dir(file))
	util.InitLogger(logLevel, file, debug)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
