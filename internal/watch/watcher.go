// Package watch triggers ingestion when files under the documents
// directory change on disk.
package watch

import (
	"context"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"doculens/internal/contextutil"
)

// defaultDebounce collapses bursts of filesystem events (one save can emit
// several) into a single ingestion trigger.
const defaultDebounce = 2 * time.Second

// Trigger starts an ingestion run. Implemented by ingest.Manager.
type Trigger interface {
	TriggerIngestion(ctx context.Context, dir string) error
}

// Watcher observes a documents directory and fires the trigger after
// changes settle.
type Watcher struct {
	dir       string
	recursive bool
	trigger   Trigger
	debounce  time.Duration
}

// New creates a watcher over dir.
func New(dir string, recursive bool, trigger Trigger) *Watcher {
	return &Watcher{
		dir:       dir,
		recursive: recursive,
		trigger:   trigger,
		debounce:  defaultDebounce,
	}
}

// Run watches until ctx is cancelled. It blocks; call it from a goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsWatcher.Close()

	if err := w.addPaths(fsWatcher); err != nil {
		return err
	}
	logger.InfoContext(ctx, "watching documents directory", "path", w.dir, "recursive", w.recursive)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, open := <-fsWatcher.Events:
			if !open {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			// A newly created subdirectory needs its own watch.
			if w.recursive && event.Op.Has(fsnotify.Create) {
				_ = w.addPaths(fsWatcher)
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, open := <-fsWatcher.Errors:
			if !open {
				return nil
			}
			logger.WarnContext(ctx, "watcher error", "error", err)

		case <-fire:
			logger.InfoContext(ctx, "filesystem changes settled, triggering ingestion", "path", w.dir)
			if err := w.trigger.TriggerIngestion(ctx, w.dir); err != nil {
				logger.ErrorContext(ctx, "watch-triggered ingestion failed", "error", err)
			}
		}
	}
}

// relevant filters out events that cannot change the ingested corpus.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op.Has(fsnotify.Chmod) {
		return false
	}
	base := filepath.Base(event.Name)
	if len(base) >= 2 && base[:2] == "~$" {
		return false
	}
	return true
}

// addPaths registers the root directory and, in recursive mode, every
// subdirectory. Re-adding an already watched path is a no-op.
func (w *Watcher) addPaths(fsWatcher *fsnotify.Watcher) error {
	if !w.recursive {
		return fsWatcher.Add(w.dir)
	}
	return filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			_ = fsWatcher.Add(path)
		}
		return nil
	})
}
