// Package watch reloads the dataset when the source CSV changes on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow batches the burst of events an editor or copy produces for
// a single save into one reload.
const debounceWindow = 500 * time.Millisecond

// Watcher invokes onChange after the watched file is written, created, or
// renamed. It watches the parent directory, not the file itself, because
// most tools replace a file instead of writing it in place.
type Watcher struct {
	path     string
	onChange func()
	logger   *slog.Logger
	fw       *fsnotify.Watcher
}

func New(path string, onChange func(), logger *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{path: abs, onChange: onChange, logger: logger, fw: fw}, nil
}

// Start runs the event loop until ctx is canceled or the watcher is closed.
func (w *Watcher) Start(ctx context.Context) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("Source file changed", slog.String("path", w.path), slog.String("op", event.Op.String()))
			if timer == nil {
				timer = time.AfterFunc(debounceWindow, w.onChange)
			} else {
				timer.Reset(debounceWindow)
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) Close() error {
	return w.fw.Close()
}
