package livereload

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounce collapses the burst of events editors emit for a single save.
const debounce = 100 * time.Millisecond

// Watcher calls Reload for template changes under one directory and then
// announces them through Notify.
type Watcher struct {
	watcher *fsnotify.Watcher
	dir     string
	// Reload re-parses templates. A failure is logged and not announced, so
	// the browser keeps the last good page.
	Reload func(path string) error
	Notify func(Message)
	logger *zap.Logger
}

func NewWatcher(dir string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{watcher: fw, dir: dir, logger: logger.Named("livereload")}, nil
}

func isTemplate(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".tmpl", ".gohtml":
		return true
	}
	return false
}

// Run blocks until ctx is done or the watcher fails, and closes the watcher
// on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	w.logger.Info("watching templates", zap.String("dir", w.dir))

	timer := time.NewTimer(debounce)
	timer.Stop()
	pending := ""

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !isTemplate(event.Name) || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			pending = event.Name
			timer.Reset(debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", w.dir, err)

		case <-timer.C:
			w.fire(pending)
			pending = ""
		}
	}
}

func (w *Watcher) fire(path string) {
	if w.Reload != nil {
		if err := w.Reload(path); err != nil {
			w.logger.Warn("template reload failed", zap.String("path", path), zap.Error(err))
			return
		}
	}
	w.logger.Info("templates reloaded", zap.String("path", path))
	if w.Notify != nil {
		w.Notify(Message{Type: Reload, Timestamp: time.Now(), Path: filepath.Base(path)})
	}
}
