// Package watcher imports layout files dropped into an inbox directory.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	processedDir = "processed"
	failedDir    = "failed"
)

// Importer stores a layout file's contents as a new version
type Importer interface {
	ImportFile(ctx context.Context, name string, payload []byte) error
}

// ImporterFunc adapts a function to Importer
type ImporterFunc func(ctx context.Context, name string, payload []byte) error

// ImportFile calls f
func (f ImporterFunc) ImportFile(ctx context.Context, name string, payload []byte) error {
	return f(ctx, name, payload)
}

// Observer records the outcome of each inbox import
type Observer interface {
	ObserveInboxImport(ok bool)
}

// Inbox watches a directory for .json, .yaml and .yml layout files. Each file
// is imported once it has been quiet for the debounce period, then moved to
// processed/ or failed/.
type Inbox struct {
	dir      string
	importer Importer
	observer Observer
	logger   *zap.Logger
	debounce time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
	wg     sync.WaitGroup
}

// New creates an inbox watcher for dir
func New(dir string, importer Importer, logger *zap.Logger) *Inbox {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inbox{
		dir:      dir,
		importer: importer,
		logger:   logger,
		debounce: 500 * time.Millisecond,
		timers:   make(map[string]*time.Timer),
	}
}

// WithDebounce sets the debounce duration
func (w *Inbox) WithDebounce(d time.Duration) *Inbox {
	w.debounce = d
	return w
}

// WithObserver reports import outcomes to obs
func (w *Inbox) WithObserver(obs Observer) *Inbox {
	w.observer = obs
	return w
}

// Watch imports files already waiting in the inbox, then watches it for new
// ones. It blocks until the context is cancelled or an error occurs.
func (w *Inbox) Watch(ctx context.Context) error {
	for _, sub := range []string{processedDir, failedDir} {
		if err := os.MkdirAll(filepath.Join(w.dir, sub), 0755); err != nil {
			return fmt.Errorf("create inbox: %w", err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return err
	}
	w.logger.Info("watching inbox", zap.String("dir", w.dir))

	w.scan(ctx)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 && isLayoutFile(event.Name) {
				w.schedule(ctx, event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("inbox watcher error", zap.Error(err))

		case <-ctx.Done():
			w.stopTimers()
			w.wg.Wait()
			return ctx.Err()
		}
	}
}

// scan picks up files that arrived while the server was down
func (w *Inbox) scan(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("failed to scan inbox", zap.String("dir", w.dir), zap.Error(err))
		return
	}
	for _, e := range entries {
		if e.IsDir() || !isLayoutFile(e.Name()) {
			continue
		}
		w.schedule(ctx, filepath.Join(w.dir, e.Name()))
	}
}

// schedule (re)starts the debounce timer for path
func (w *Inbox) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, exists := w.timers[path]; exists {
		if timer.Stop() {
			w.wg.Done()
		}
	}
	w.wg.Add(1)
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		w.process(ctx, path)
	})
}

func (w *Inbox) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.timers {
		if timer.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}
}

// process imports one file and files it away under processed/ or failed/
func (w *Inbox) process(ctx context.Context, path string) {
	name := filepath.Base(path)
	payload, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.logger.Warn("failed to read inbox file", zap.String("file", name), zap.Error(err))
		}
		return
	}

	dest := processedDir
	if err := w.importer.ImportFile(ctx, name, payload); err != nil {
		w.logger.Warn("inbox import failed", zap.String("file", name), zap.Error(err))
		dest = failedDir
	} else {
		w.logger.Info("imported layout from inbox", zap.String("file", name))
	}
	if w.observer != nil {
		w.observer.ObserveInboxImport(dest == processedDir)
	}

	target := filepath.Join(w.dir, dest, stamped(name, time.Now()))
	if err := os.Rename(path, target); err != nil {
		w.logger.Error("failed to move inbox file", zap.String("file", name), zap.String("to", target), zap.Error(err))
	}
}

func isLayoutFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return !strings.HasPrefix(filepath.Base(path), ".")
	}
	return false
}

// stamped prefixes name with a timestamp so repeated drops don't collide
func stamped(name string, now time.Time) string {
	return now.UTC().Format("20060102T150405.000") + "_" + name
}
