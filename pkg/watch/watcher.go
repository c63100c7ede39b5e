// Package watch turns file system events under a source tree into a
// coalesced "something changed" signal.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/rjeczalik/notify"

	"github.com/sdejongh/foldersync/pkg/logging"
)

const (
	// DefaultDebounce is the quiet period after the last event before a trigger fires
	DefaultDebounce = 500 * time.Millisecond
	eventBufferSize = 256
)

// IgnoreFunc reports whether an event on the path relative to the watched
// root should be dropped
type IgnoreFunc func(relPath string) bool

// Watcher watches a directory tree recursively and emits at most one
// pending trigger for any burst of events
type Watcher struct {
	root     string
	debounce time.Duration
	ignore   IgnoreFunc
	logger   logging.Logger

	raw     chan notify.EventInfo
	trigger chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup

	timerMu sync.Mutex
	timer   *time.Timer

	stopOnce sync.Once
}

// NewWatcher creates a watcher for root. Call Start to begin watching.
func NewWatcher(root string, logger logging.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Watcher{
		root:     filepath.Clean(root),
		debounce: DefaultDebounce,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// SetDebounce sets the quiet period. Must be called before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// SetIgnore sets a filter for raw events. Must be called before Start.
func (w *Watcher) SetIgnore(ignore IgnoreFunc) {
	w.ignore = ignore
}

// Trigger returns the channel that receives a value once events settle.
// Several bursts before the receiver drains it collapse into one value.
func (w *Watcher) Trigger() <-chan struct{} {
	return w.trigger
}

// Start registers the recursive watch and begins forwarding events
func (w *Watcher) Start(ctx context.Context) error {
	w.raw = make(chan notify.EventInfo, eventBufferSize)

	if err := notify.Watch(filepath.Join(w.root, "..."), w.raw, notify.All); err != nil {
		return err
	}

	w.wg.Add(1)
	go w.run(ctx)

	w.logger.Debug(ctx, "watching source", logging.Fields{"path": w.root})
	return nil
}

// Stop removes the watch and waits for the forwarding goroutine to exit.
// It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		if w.raw != nil {
			notify.Stop(w.raw)
		}
		w.wg.Wait()

		w.timerMu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.timerMu.Unlock()
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event := <-w.raw:
			if w.ignored(event.Path()) {
				continue
			}
			w.schedule()
		}
	}
}

func (w *Watcher) ignored(path string) bool {
	if w.ignore == nil {
		return false
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	return w.ignore(filepath.ToSlash(rel))
}

// schedule restarts the debounce timer
func (w *Watcher) schedule() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	select {
	case w.trigger <- struct{}{}:
	default:
		// one trigger is already pending
	}
}
