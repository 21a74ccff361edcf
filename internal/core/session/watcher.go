package session

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/tenstorrent/perf-timeline/internal/core/model"
	"github.com/tenstorrent/perf-timeline/internal/util"
)

// BundleWatcher reports filesystem changes to recognized dump files under a
// bundle root. Consumers debounce and decide whether to reload.
type BundleWatcher struct {
	watcher *fsnotify.Watcher
	events  chan model.FileEvent
}

// NewBundleWatcher watches the root and every directory below it.
func NewBundleWatcher(root string) (*BundleWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	bw := &BundleWatcher{
		watcher: watcher,
		events:  make(chan model.FileEvent, 100),
	}

	err = filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return bw.watcher.Add(p)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return nil, err
	}

	go bw.processEvents()
	return bw, nil
}

func (bw *BundleWatcher) processEvents() {
	for {
		select {
		case event, ok := <-bw.watcher.Events:
			if !ok {
				return
			}

			// Only dump files matter; editors and tooling churn the rest.
			kind, _ := model.ClassifyDumpFile(filepath.Base(event.Name))
			if kind == model.DumpUnknown {
				// A new directory may grow leaves later.
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = bw.watcher.Add(event.Name)
				}
				continue
			}
			bw.events <- model.FileEvent{
				Path:      event.Name,
				Operation: event.Op.String(),
			}

		case err, ok := <-bw.watcher.Errors:
			if !ok {
				return
			}
			util.LogError("Bundle watch error: " + err.Error())
		}
	}
}

// Events returns the change stream.
func (bw *BundleWatcher) Events() <-chan model.FileEvent {
	return bw.events
}

// Close stops watching.
func (bw *BundleWatcher) Close() error {
	return bw.watcher.Close()
}
