package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a config file whenever it changes on disk.
type Watcher struct {
	path     string
	fs       *fsnotify.Watcher
	debounce time.Duration
}

// NewWatcher starts watching path. The parent directory is watched so editors
// that replace the file by rename are still seen.
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{path: abs, fs: fw, debounce: 50 * time.Millisecond}, nil
}

// Run calls fn with each successfully reloaded config until ctx is done.
// Files that fail to load are logged and skipped; the previous config stays in effect.
func (w *Watcher) Run(ctx context.Context, fn func(*Config)) error {
	defer w.fs.Close()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			// Editors often write in several steps; reload once they settle.
			pending = time.After(w.debounce)

		case <-pending:
			pending = nil
			cfg, err := Load(w.path)
			if err != nil {
				slog.Warn("config reload failed", "path", w.path, "error", err)
				continue
			}
			slog.Info("config reloaded", "path", w.path)
			fn(cfg)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config watcher error", "error", err)
		}
	}
}

// Watch is NewWatcher followed by Run.
func Watch(ctx context.Context, path string, fn func(*Config)) error {
	w, err := NewWatcher(path)
	if err != nil {
		return err
	}
	return w.Run(ctx, fn)
}
