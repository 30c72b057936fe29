// Package watch re-runs a callback when files under a project root change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last event
// before triggering.
const DefaultDebounce = 300 * time.Millisecond

// Watcher watches a directory tree.
type Watcher struct {
	root     string
	debounce time.Duration
	skipDir  func(name string) bool
	relevant func(path string) bool
	logger   *slog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithSkipDir excludes directories whose base name matches. Hidden
// directories are always skipped.
func WithSkipDir(fn func(name string) bool) Option {
	return func(w *Watcher) { w.skipDir = fn }
}

// WithFilter restricts triggering events to paths for which fn is true.
func WithFilter(fn func(path string) bool) Option {
	return func(w *Watcher) { w.relevant = fn }
}

// WithLogger sets the logger for watch errors.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// New creates a Watcher for root.
func New(root string, opts ...Option) *Watcher {
	w := &Watcher{
		root:     root,
		debounce: DefaultDebounce,
		skipDir:  func(string) bool { return false },
		relevant: func(string) bool { return true },
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is done, calling onChange once per burst of
// relevant events. Calls never overlap. An error from onChange is logged
// and watching continues.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context) error) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: init: %w", err)
	}
	defer fw.Close()

	if err := w.addRecursive(fw, w.root); err != nil {
		return err
	}

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending bool
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(fw, ev.Name); err != nil {
						w.logger.Warn("watch: add directory", "path", ev.Name, "error", err)
					}
				}
			}
			if !w.relevant(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			pending = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
		case <-fire:
			if !pending {
				continue
			}
			pending = false
			if err := onChange(ctx); err != nil {
				w.logger.Error("watch: run failed", "error", err)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch: error", "error", err)
		}
	}
}

func (w *Watcher) addRecursive(fw *fsnotify.Watcher, dir string) error {
	dirs, err := w.dirs(dir)
	if err != nil {
		return err
	}
	for _, d := range dirs {
		if err := fw.Add(d); err != nil {
			return fmt.Errorf("watch: add %s: %w", d, err)
		}
	}
	return nil
}

// dirs lists dir and its subdirectories, pruning hidden and skipped ones.
func (w *Watcher) dirs(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && (strings.HasPrefix(d.Name(), ".") || w.skipDir(d.Name())) {
			return filepath.SkipDir
		}
		out = append(out, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("watch: walk %s: %w", dir, err)
	}
	return out, nil
}
