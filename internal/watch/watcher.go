// Package watch rebuilds a report whenever the simulator rewrites its trace
// file.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"y86trace/internal/logging"
)

// DefaultDebounce is the quiet period after the last write before a
// rebuild runs. Simulators flush a trace in many small writes.
const DefaultDebounce = 500 * time.Millisecond

// RebuildFunc is called once per settled burst of changes.
type RebuildFunc func(ctx context.Context) error

// Watcher watches a single file. It watches the parent directory so the
// file can be deleted and recreated by the simulator between runs.
type Watcher struct {
	mu       sync.RWMutex
	watcher  *fsnotify.Watcher
	path     string
	dir      string
	name     string
	debounce time.Duration
	rebuild  RebuildFunc
	building sync.Mutex
	pending  time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	closed   bool

	stats Stats
}

// Stats tracks watcher activity.
type Stats struct {
	Events        int       `json:"events"`
	Rebuilds      int       `json:"rebuilds"`
	Errors        int       `json:"errors"`
	LastEventTime time.Time `json:"lastEventTime"`
	LastEventType string    `json:"lastEventType"`
	LastError     string    `json:"lastError,omitempty"`
}

// New creates a watcher for path. A debounce <= 0 uses DefaultDebounce.
func New(path string, debounce time.Duration, rebuild RebuildFunc) (*Watcher, error) {
	if rebuild == nil {
		return nil, fmt.Errorf("watch: nil rebuild function")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		watcher:  fw,
		path:     abs,
		dir:      filepath.Dir(abs),
		name:     filepath.Base(abs),
		debounce: debounce,
		rebuild:  rebuild,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Start begins watching. It is non-blocking; the event loop runs until Stop
// is called or ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	if w.closed {
		w.mu.Unlock()
		return fmt.Errorf("watch: %s already closed", w.path)
	}
	if err := w.watcher.Add(w.dir); err != nil {
		// The loop never runs, so release the fsnotify watcher here.
		w.closed = true
		_ = w.watcher.Close()
		close(w.doneCh)
		w.mu.Unlock()
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.running = true
	w.mu.Unlock()

	logging.Watch("watching %s (debounce %s)", w.path, w.debounce)
	go w.run(ctx)
	return nil
}

// Stop stops the event loop and waits for it to exit. In-flight rebuilds
// finish first.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	logging.Watch("stopped watching %s", w.path)
}

// Done is closed when the event loop has exited.
func (w *Watcher) Done() <-chan struct{} {
	return w.doneCh
}

func (w *Watcher) tick() time.Duration {
	t := 100 * time.Millisecond
	if half := w.debounce / 2; half < t {
		t = half
	}
	if t < 5*time.Millisecond {
		t = 5 * time.Millisecond
	}
	return t
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	defer func() {
		if err := w.watcher.Close(); err != nil {
			logging.WatchError("error closing watcher: %v", err)
		}
	}()

	ticker := time.NewTicker(w.tick())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.WatchDebug("context cancelled")
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.WatchError("watcher error: %v", err)
			w.recordError(err)

		case <-ticker.C:
			w.processPending(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != w.name {
		return
	}

	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
	case event.Op&fsnotify.Write != 0:
		eventType = "modify"
	default:
		// Removal and rename are followed by a create when the simulator
		// writes the next trace.
		return
	}

	logging.WatchDebug("%s event for %s", eventType, event.Name)

	now := time.Now()
	w.mu.Lock()
	w.stats.Events++
	w.stats.LastEventTime = now
	w.stats.LastEventType = eventType
	w.pending = now
	w.mu.Unlock()
}

func (w *Watcher) processPending(ctx context.Context) {
	w.mu.Lock()
	if w.pending.IsZero() || time.Since(w.pending) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = time.Time{}
	w.mu.Unlock()

	w.runRebuild(ctx)
}

// Trigger runs a rebuild immediately on the caller's goroutine.
func (w *Watcher) Trigger(ctx context.Context) error {
	return w.runRebuild(ctx)
}

func (w *Watcher) runRebuild(ctx context.Context) error {
	w.building.Lock()
	defer w.building.Unlock()

	timer := logging.StartTimer(logging.CategoryWatch, "rebuild")
	err := w.rebuild(ctx)
	timer.Stop()

	w.mu.Lock()
	w.stats.Rebuilds++
	w.mu.Unlock()

	if err != nil {
		logging.WatchError("rebuild of %s failed: %v", w.path, err)
		w.recordError(err)
		return err
	}
	return nil
}

func (w *Watcher) recordError(err error) {
	w.mu.Lock()
	w.stats.Errors++
	w.stats.LastError = err.Error()
	w.mu.Unlock()
}

// Stats returns a snapshot of the watcher statistics.
func (w *Watcher) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}
