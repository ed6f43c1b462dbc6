// Package filesystem watches a local folder for partner document changes.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
	"github.com/custodia-labs/partnerdocs/internal/core/ports/driven"
	"github.com/custodia-labs/partnerdocs/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.FileWatcher = (*Watcher)(nil)

// DefaultDebounce is how long a path must stay quiet before its change is
// reported. Editors often write a file several times in a row.
const DefaultDebounce = 300 * time.Millisecond

// ErrClosed is returned by Watch after Close.
var ErrClosed = errors.New("watcher closed")

// Watcher reports settled changes to supported files directly under root.
type Watcher struct {
	root     string
	supports func(path string) bool
	debounce time.Duration

	mu     sync.Mutex
	fsw    *fsnotify.Watcher
	closed bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithFilter limits reported changes to paths for which supports is true.
func WithFilter(supports func(path string) bool) Option {
	return func(w *Watcher) {
		if supports != nil {
			w.supports = supports
		}
	}
}

// New creates a watcher for root. Nothing is watched until Watch is called.
func New(root string, opts ...Option) *Watcher {
	w := &Watcher{
		root:     root,
		supports: func(string) bool { return true },
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Root returns the watched folder.
func (w *Watcher) Root() string {
	return w.root
}

// Watch starts watching root and returns a channel of settled changes.
func (w *Watcher) Watch(ctx context.Context) (<-chan domain.FileChange, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}
	if w.fsw != nil {
		return nil, errors.New("watcher already running")
	}

	info, err := os.Stat(w.root)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path error: %s is not a directory", w.root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(w.root); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", w.root, err)
	}
	w.fsw = fsw

	out := make(chan domain.FileChange)
	go w.loop(ctx, fsw, out)

	logger.Debug("Watching %s (debounce %s)", w.root, w.debounce)
	return out, nil
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- domain.FileChange) {
	defer close(out)
	defer fsw.Close()

	pending := make(map[string]domain.ChangeType)
	timers := make(map[string]*time.Timer)
	settled := make(chan string)
	done := make(chan struct{})
	defer func() {
		close(done)
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			change, ok := w.classify(event)
			if !ok {
				continue
			}
			pending[event.Name] = merge(pending, event.Name, change)
			if t, ok := timers[event.Name]; ok {
				t.Reset(w.debounce)
				continue
			}
			name := event.Name
			timers[name] = time.AfterFunc(w.debounce, func() {
				select {
				case settled <- name:
				case <-done:
				}
			})

		case name := <-settled:
			change := pending[name]
			delete(pending, name)
			delete(timers, name)

			if change != domain.ChangeDeleted {
				if _, err := os.Stat(name); err != nil {
					change = domain.ChangeDeleted
				}
			}
			select {
			case out <- domain.FileChange{Type: change, Path: name}:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("Watch %s: %v", w.root, err)
		}
	}
}

// classify maps a raw event to a change. Directories, hidden files,
// unsupported extensions and chmod-only events are ignored.
func (w *Watcher) classify(event fsnotify.Event) (domain.ChangeType, bool) {
	if isHidden(event.Name) || !w.supports(event.Name) {
		return 0, false
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return domain.ChangeDeleted, true
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
			return 0, false
		}
		return domain.ChangeCreated, true
	case event.Has(fsnotify.Write):
		return domain.ChangeUpdated, true
	default:
		return 0, false
	}
}

// merge folds a new change into the one already pending for name.
func merge(pending map[string]domain.ChangeType, name string, next domain.ChangeType) domain.ChangeType {
	prev, ok := pending[name]
	if !ok {
		return next
	}
	switch {
	case next == domain.ChangeDeleted:
		return domain.ChangeDeleted
	case prev == domain.ChangeDeleted:
		return domain.ChangeUpdated
	case prev == domain.ChangeCreated:
		return domain.ChangeCreated
	default:
		return next
	}
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
