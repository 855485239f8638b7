package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/serialterm/internal/refresh"
)

// DefaultReloadDelay is the quiet period after the last file event before
// the configuration is reloaded.
const DefaultReloadDelay = 100 * time.Millisecond

// ChangeHandler receives a freshly loaded configuration, or the error that
// prevented loading it.
type ChangeHandler func(cfg Config, err error)

// Watcher reloads a configuration file when it changes on disk.
//
// The directory holding the file is watched rather than the file itself, so
// editors that replace the file through a rename are handled.
type Watcher struct {
	mu       sync.Mutex
	path     string
	delay    time.Duration
	handler  ChangeHandler
	watcher  *fsnotify.Watcher
	debounce *refresh.Debouncer
	closed   bool
	done     chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithReloadDelay sets the quiet period before reloading.
func WithReloadDelay(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// NewWatcher creates a watcher for the configuration file at path.
func NewWatcher(path string, handler ChangeHandler, opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:    abs,
		delay:   DefaultReloadDelay,
		handler: handler,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	w.watcher = fsw
	w.debounce = refresh.NewDebouncer(w.delay, w.reload)
	return w, nil
}

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	w.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.relevant(ev) {
				w.debounce.Call()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if w.handler != nil {
				w.handler(Config{}, fmt.Errorf("watching %s: %w", w.path, err))
			}
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.done)
	w.mu.Unlock()

	w.debounce.Cancel()
	return w.watcher.Close()
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed || w.handler == nil {
		return
	}

	cfg, err := Load(w.path)
	w.handler(cfg, err)
}
