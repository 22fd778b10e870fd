// Package stopfile triggers a shutdown when a sentinel file appears.
package stopfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/rdstream/internal/ports"
	"github.com/bft-labs/rdstream/pkg/log"
)

// Watcher monitors one path via fsnotify.
type Watcher struct {
	path   string
	logger ports.Logger
}

// New creates a watcher for path. A nil logger discards output.
func New(path string, logger ports.Logger) *Watcher {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Watcher{path: path, logger: logger}
}

// Run calls onStop once the file exists and returns. A file that is already
// present triggers immediately. Run returns nil when ctx ends first.
func (w *Watcher) Run(ctx context.Context, onStop func()) error {
	abs, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", w.path, err)
	}
	dir, name := filepath.Split(abs)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	// Checked after Add so a file created in between is not missed.
	if exists(abs) {
		w.trigger(abs, onStop)
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if exists(abs) {
				w.trigger(abs, onStop)
				return nil
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("stop file watcher error", log.Err(err))
		}
	}
}

func (w *Watcher) trigger(path string, onStop func()) {
	w.logger.Info("stop file found", log.String("path", path))
	onStop()
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
