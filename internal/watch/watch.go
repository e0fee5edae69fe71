// Package watch monitors the skills/profiles catalog directory for
// changes, so a long-running process (e.g. the chainctl status TUI) can
// reload its in-memory catalog and invalidate any resolver memoization
// without restarting.
//
// Grounded on pkg/watcher.Watcher's functional-options shape and
// debounce-then-notify discipline; simplified to fsnotify-only (no
// network-filesystem polling fallback), since the catalog directory is
// always workspace-local.
package watch

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceDuration matches the teacher's default: config files are
// frequently rewritten by editors in quick bursts of several events.
const DefaultDebounceDuration = 300 * time.Millisecond

// ErrAlreadyStarted is returned by Start on a Watcher already running.
var ErrAlreadyStarted = errors.New("watch: watcher already started")

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration overrides DefaultDebounceDuration.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithOnChange sets the callback invoked (debounced) after a relevant
// change in the watched directory.
func WithOnChange(fn func()) Option {
	return func(w *Watcher) { w.onChange = fn }
}

// WithOnError sets the callback invoked for fsnotify errors.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// Watcher watches a directory (the catalog directory) for writes,
// creates, renames, and removes of its files, debouncing bursts of
// events into a single onChange call.
type Watcher struct {
	dir      string
	debounce time.Duration
	onChange func()
	onError  func(error)

	fsWatcher *fsnotify.Watcher
	ctx       context.Context
	cancel    context.CancelFunc

	mu      sync.Mutex
	started bool
	timer   *time.Timer
}

// New returns a Watcher for dir, not yet started.
func New(dir string, opts ...Option) (*Watcher, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		dir:      absDir,
		debounce: DefaultDebounceDuration,
		onChange: func() {},
		onError:  func(error) {},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching. It is an error to Start an already-started
// Watcher.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return err
	}

	w.fsWatcher = fsw
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.started = true

	go w.run()
	return nil
}

// Stop stops watching and releases the underlying fsnotify handle.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}
	w.cancel()
	w.fsWatcher.Close()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.started = false
}

func (w *Watcher) run() {
	events := w.fsWatcher.Events
	errs := w.fsWatcher.Errors

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				w.triggerDebounced()
			}
		case err, ok := <-errs:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

// triggerDebounced (re)arms a timer so a burst of events collapses into
// one onChange call, matching pkg/watcher.Debouncer's trigger-then-fire
// behavior.
func (w *Watcher) triggerDebounced() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		started := w.started
		w.mu.Unlock()
		if started {
			w.onChange()
		}
	})
}
