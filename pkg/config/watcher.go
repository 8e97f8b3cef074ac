package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/swipingforjobs/jobswipe/pkg/logging"
)

// Watcher watches a configuration file for changes and reloads it.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	callback func(*Config) error
	loader   *FileLoader
	logger   logging.Logger
	mu       sync.Mutex
	stopped  bool
}

// NewWatcher creates a new configuration file watcher.
func NewWatcher(path string, callback func(*Config) error, logger logging.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		path:     path,
		watcher:  fsWatcher,
		callback: callback,
		loader:   NewFileLoader(path),
		logger:   logger.WithComponent("config-watch"),
	}, nil
}

// Start begins watching the configuration file.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.path); err != nil {
		return fmt.Errorf("config: failed to watch file: %w", err)
	}
	go w.watch()
	return nil
}

// Stop stops watching.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()
	return w.watcher.Close()
}

func (w *Watcher) watch() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			w.mu.Lock()
			stopped := w.stopped
			w.mu.Unlock()
			if stopped {
				return
			}

			cfg, err := w.loader.Load()
			if err != nil {
				w.logger.Warn("failed to reload configuration", "error", err)
				continue
			}

			if w.callback != nil {
				if err := w.callback(cfg); err != nil {
					w.logger.Warn("configuration reload callback failed", "error", err)
				} else {
					w.logger.Info("configuration reloaded")
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}
