// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     watch
// Description: File watcher that reports changed configuration files after
//              a per-path debounce delay
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	mdwerrors "github.com/msto63/structlint/pkg/core/errors"
	"github.com/msto63/structlint/pkg/core/logging"
)

// DefaultDebounce is the quiet period after the last event for a path
const DefaultDebounce = 200 * time.Millisecond

// Handler is called with the path of a changed file. Calls never overlap.
type Handler func(ctx context.Context, path string)

// Config holds watcher configuration
type Config struct {
	Debounce time.Duration
	// Match selects files inside watched directories; nil matches all.
	// Files added explicitly are always reported.
	Match func(path string) bool
}

// Watcher reports file changes below a set of files and directories
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   *logging.Logger
	debounce time.Duration
	match    func(string) bool

	mu     sync.Mutex
	files  map[string]bool
	dirs   map[string]bool
	timers map[string]*time.Timer

	// pending holds debounced paths not yet handed to the handler
	pending map[string]bool
	wake    chan struct{}
	closed  bool
}

// New creates a watcher
func New(cfg Config) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, mdwerrors.Wrap(err, "failed to create file watcher").
			WithCode(mdwerrors.CodeIOError).WithOperation("watch.new")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	match := cfg.Match
	if match == nil {
		match = func(string) bool { return true }
	}
	return &Watcher{
		watcher:  fw,
		logger:   logging.New("watch"),
		debounce: cfg.Debounce,
		match:    match,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		timers:   make(map[string]*time.Timer),
		pending:  make(map[string]bool),
		wake:     make(chan struct{}, 1),
	}, nil
}

// Add watches files and directories. Directories are watched recursively;
// for a file its parent directory is watched so editors that replace the
// file on save are still seen.
func (w *Watcher) Add(paths ...string) error {
	for _, p := range paths {
		p = filepath.Clean(p)
		info, err := os.Stat(p)
		if err != nil {
			return mdwerrors.Wrap(err, "cannot watch path").
				WithCode(mdwerrors.CodeIOError).WithOperation("watch.add").WithDetail("path", p)
		}
		if !info.IsDir() {
			w.mu.Lock()
			w.files[p] = true
			w.mu.Unlock()
			if err := w.addDir(filepath.Dir(p)); err != nil {
				return err
			}
			continue
		}
		err = filepath.Walk(p, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return nil
			}
			if path != p && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return w.addDir(path)
		})
		if err != nil {
			return mdwerrors.Wrap(err, "failed to watch directory").
				WithCode(mdwerrors.CodeIOError).WithOperation("watch.add").WithDetail("path", p)
		}
	}
	return nil
}

func (w *Watcher) addDir(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dirs[dir] {
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		return mdwerrors.Wrap(err, "failed to watch directory").
			WithCode(mdwerrors.CodeIOError).WithOperation("watch.add").WithDetail("path", dir)
	}
	w.dirs[dir] = true
	w.logger.Debug("Watching directory", "dir", dir)
	return nil
}

// Run delivers debounced changes to handler until ctx is cancelled. The
// underlying watcher is closed when Run returns.
func (w *Watcher) Run(ctx context.Context, handler Handler) error {
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case <-w.wake:
			for _, path := range w.drain() {
				if ctx.Err() != nil {
					return nil
				}
				handler(ctx, path)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	// new subdirectories of a watched tree are watched as well
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.Add(path); err != nil {
				w.logger.Warn("Failed to watch new directory", "dir", path, "error", err)
			}
			return
		}
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if !w.relevant(path) {
		return
	}
	w.schedule(path)
}

func (w *Watcher) relevant(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.files[path] {
		return true
	}
	// files added explicitly restrict their directory to themselves
	dir := filepath.Dir(path)
	for f := range w.files {
		if filepath.Dir(f) == dir {
			return false
		}
	}
	return w.match(path)
}

// schedule restarts the debounce timer of path. A timer that already fired
// but lost the race for w.mu against a newer schedule finds itself replaced
// and does nothing.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		if w.timers[path] != t {
			w.mu.Unlock()
			return
		}
		delete(w.timers, path)
		w.pending[path] = true
		w.mu.Unlock()

		select {
		case w.wake <- struct{}{}:
		default:
		}
	})
	w.timers[path] = t
}

// drain takes all pending paths in sorted order
func (w *Watcher) drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
		delete(w.pending, p)
	}
	sort.Strings(paths)
	return paths
}

// Close stops pending timers and releases the watcher. Run calls it on
// return; calling it again is a no-op.
func (w *Watcher) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()
	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("Failed to close watcher", "error", err)
	}
}
