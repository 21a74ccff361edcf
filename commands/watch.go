package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/tenstorrent/perf-timeline/internal/analyzer"
	"github.com/tenstorrent/perf-timeline/internal/core/session"
	"github.com/tenstorrent/perf-timeline/internal/presentation/display"
	"github.com/tenstorrent/perf-timeline/internal/presentation/formatter"
	"github.com/tenstorrent/perf-timeline/internal/util"
	"golang.org/x/term"
)

var watchDebounce int

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-render the timeline whenever the bundle changes on disk",
	Long: `Watches the bundle directory for dump file changes and reloads the
timeline when they settle. The previous path selection, unit and frequency
mode are carried across every reload.

Press 'q' (or Ctrl+C) to quit.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().IntVar(&watchDebounce, "debounce", 500,
		"Milliseconds of quiet before a change triggers a reload")
}

func runWatch(cmd *cobra.Command, args []string) error {
	initLogging()

	dir := expandPath(dataDir)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("bundle directory not accessible: %w", err)
	}

	a := analyzer.New(&analyzer.Config{
		DataDir:      dir,
		OutputFormat: outputFormat,
		Unit:         unit,
		Frequency:    frequency,
		Paths:        paths,
		AxisSwap:     axisSwap,
		Concurrency:  runtime.NumCPU(),
	})

	manager := session.NewManager()
	sess, err := manager.Reload(dir, runtime.NumCPU())
	if err != nil {
		return err
	}
	a.ApplyView(sess)

	watcher, err := session.NewBundleWatcher(dir)
	if err != nil {
		return fmt.Errorf("failed to watch bundle: %w", err)
	}
	defer watcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		cancel()
	}()
	go watchQuitKey(cancel)

	td := display.NewTerminalDisplay()
	if display.IsTerminal() {
		td.EnterAlternateScreen()
		defer td.ExitAlternateScreen()
	}

	render := func(s *session.Session) {
		td.Clear()
		report := analyzer.BuildReport(s)
		if err := formatter.New(outputFormat).Format(report); err != nil {
			util.LogErrorf("Render failed: %v", err)
		}
		fmt.Println("\nWatching for changes... press 'q' to quit")
	}
	render(sess)

	debounce := time.Duration(watchDebounce) * time.Millisecond
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			util.LogDebugf("Bundle change: %s %s", ev.Operation, ev.Path)
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					<-timerC
				}
				timer.Reset(debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil

			prev := manager.Active()
			next, err := manager.Reload(dir, runtime.NumCPU())
			if err != nil {
				util.LogErrorf("Reload failed, keeping previous session: %v", err)
				continue
			}
			if prev != nil && next.Fingerprint() == prev.Fingerprint() {
				util.LogDebug("Bundle content unchanged, skipping redraw")
				continue
			}
			render(next)
		}
	}
}

// watchQuitKey puts stdin into raw mode and cancels on 'q'. A non-tty stdin
// (piped input, CI) just disables the key.
func watchQuitKey(cancel context.CancelFunc) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return
	}
	defer term.Restore(fd, oldState)

	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}
		if n > 0 && (buf[0] == 'q' || buf[0] == 3) {
			cancel()
			return
		}
	}
}
