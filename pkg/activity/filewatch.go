package activity

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/swipingforjobs/jobswipe/pkg/logging"
)

// FileWatcher turns writes to a marker file into interaction events.
// Other jobswipe invocations touch the marker on every user-driven
// command, which feeds the monitor's inactivity countdown.
type FileWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	monitor  *Monitor
	logger   logging.Logger
	stopC    chan struct{}
	stopOnce sync.Once
}

// NewFileWatcher creates a watcher for the given marker file path. The
// file is created when missing so the watch can attach immediately.
func NewFileWatcher(path string, monitor *Monitor, logger logging.Logger) (*FileWatcher, error) {
	if err := Touch(path); err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("activity: failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		path:    path,
		watcher: fsWatcher,
		monitor: monitor,
		logger:  logger.WithComponent("activity-watch"),
		stopC:   make(chan struct{}),
	}, nil
}

// Start begins watching the marker file.
func (w *FileWatcher) Start() error {
	if err := w.watcher.Add(w.path); err != nil {
		return fmt.Errorf("activity: failed to watch %s: %w", w.path, err)
	}
	go w.watch()
	return nil
}

// Stop closes the watcher. Idempotent.
func (w *FileWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopC)
		_ = w.watcher.Close()
	})
}

func (w *FileWatcher) watch() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Chmod) {
				w.logger.Debug("interaction marker touched")
				w.monitor.RecordActivity()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)

		case <-w.stopC:
			return
		}
	}
}

// Touch updates the marker file's timestamp, creating it when missing.
// Called by user-driven commands to report an interaction.
func Touch(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("activity: failed to create marker directory: %w", err)
	}

	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("activity: failed to touch marker: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("activity: failed to create marker: %w", err)
		}
		return f.Close()
	}
	return nil
}
