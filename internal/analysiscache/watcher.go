package analysiscache

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher reloads a Cache when its JSON file changes on disk, so edits made
// by another process become visible without a restart.
type Watcher struct {
	cache    *Cache
	path     string
	debounce time.Duration
	logger   *slog.Logger
	reloaded chan struct{}
}

// NewWatcher creates a watcher for the file at path.
func NewWatcher(cache *Cache, path string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		cache:    cache,
		path:     filepath.Clean(path),
		debounce: defaultDebounce,
		logger:   logger.With("component", "analysiscache.watcher"),
		reloaded: make(chan struct{}, 1),
	}
}

// Reloaded receives a value after each reload triggered by the watcher.
func (w *Watcher) Reloaded() <-chan struct{} {
	return w.reloaded
}

// Run watches until ctx is cancelled. The parent directory is watched so
// that rename-based rewrites are seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.relevant(ev) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		case <-timer.C:
			if err := w.cache.Reload(ctx); err != nil {
				w.logger.Warn("reload failed", "path", w.path, "error", err)
				continue
			}
			w.logger.Info("analysis cache reloaded", "path", w.path, "companies", w.cache.Len())
			select {
			case w.reloaded <- struct{}{}:
			default:
			}
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove)
}
