package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle coalesces the burst of events a single save produces.
const settle = 100 * time.Millisecond

// Watcher reloads the config file when it changes on disk. It watches the
// parent directory so editors that replace the file are seen too.
type Watcher struct {
	path string
	w    *fsnotify.Watcher

	// OnChange receives each successfully decoded config.
	OnChange func(*Config)
	// OnError receives decode and watch errors. The last good config stays
	// in effect.
	OnError func(error)
}

// NewWatcher watches path, creating its directory if needed.
func NewWatcher(path string) (*Watcher, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch config dir: %w", err)
	}
	return &Watcher{path: path, w: w}, nil
}

// Run delivers reloads until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.w.Close()

	var reload <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			reload = time.After(settle)

		case err, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			w.fail(fmt.Errorf("watch config: %w", err))

		case <-reload:
			reload = nil
			if _, err := os.Stat(w.path); os.IsNotExist(err) {
				// Renamed away mid-replace; the Create that follows reloads.
				continue
			}
			cfg, err := LoadFrom(w.path)
			if err != nil {
				w.fail(err)
				continue
			}
			if w.OnChange != nil {
				w.OnChange(cfg)
			}
		}
	}
}

func (w *Watcher) fail(err error) {
	if w.OnError != nil {
		w.OnError(err)
	}
}
