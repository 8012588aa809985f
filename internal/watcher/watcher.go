// Package watcher reports changes to snapshot files on disk.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventOp represents the type of file system operation.
type EventOp int

const (
	Create EventOp = iota
	Write
	Remove
	Rename
)

// String returns the string representation of EventOp.
func (op EventOp) String() string {
	switch op {
	case Create:
		return "Create"
	case Write:
		return "Write"
	case Remove:
		return "Remove"
	case Rename:
		return "Rename"
	default:
		return "Unknown"
	}
}

// Event represents a change to a watched file.
type Event struct {
	Path string
	Op   EventOp
	Time time.Time
}

// DefaultDebounce is used when WatcherConfig.Debounce is zero.
const DefaultDebounce = 100 * time.Millisecond

// WatcherConfig holds configuration for the snapshot watcher.
type WatcherConfig struct {
	// Files are the snapshot paths to follow. Their parent directories are
	// watched so that replace-by-rename saves are seen too.
	Files    []string
	Debounce time.Duration
	// OnError receives errors reported by the underlying notifier.
	OnError func(error)
}

// Watcher watches snapshot files for changes and emits debounced events.
type Watcher struct {
	cfg    WatcherConfig
	files  map[string]struct{}
	dirs   []string
	fsw    *fsnotify.Watcher
	mu     sync.Mutex
	closed bool
}

// NewWatcher creates a new watcher for the configured files.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if len(cfg.Files) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	w := &Watcher{cfg: cfg, files: make(map[string]struct{}, len(cfg.Files))}
	seenDirs := make(map[string]struct{})
	for _, f := range cfg.Files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", f, err)
		}
		w.files[abs] = struct{}{}
		dir := filepath.Dir(abs)
		if _, ok := seenDirs[dir]; !ok {
			seenDirs[dir] = struct{}{}
			w.dirs = append(w.dirs, dir)
		}
	}
	return w, nil
}

// Start begins watching and returns a channel of debounced events. The
// channel is closed when ctx is cancelled or the watcher is closed.
func (w *Watcher) Start(ctx context.Context) (<-chan Event, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.fsw = fsw
	w.mu.Unlock()

	for _, dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	out := make(chan Event, 16)
	go w.eventLoop(ctx, fsw, out)
	return out, nil
}

// Close shuts down the watcher and releases resources.
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

func (w *Watcher) watched(path string) bool {
	_, ok := w.files[filepath.Clean(path)]
	return ok
}

func (w *Watcher) eventLoop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- Event) {
	defer close(out)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		pending = make(map[string]*time.Timer)
		latest  = make(map[string]Event)
	)

	emit := func(path string) {
		defer wg.Done()
		mu.Lock()
		evt, ok := latest[path]
		delete(latest, path)
		delete(pending, path)
		mu.Unlock()
		if !ok {
			return
		}
		select {
		case out <- evt:
		case <-ctx.Done():
		}
	}

	stop := func() {
		mu.Lock()
		for path, t := range pending {
			if t.Stop() {
				wg.Done()
			}
			delete(pending, path)
		}
		mu.Unlock()
		wg.Wait()
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return

		case fsEvent, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !w.watched(fsEvent.Name) {
				continue
			}
			op, valid := convertOp(fsEvent.Op)
			if !valid {
				continue
			}

			path := filepath.Clean(fsEvent.Name)
			mu.Lock()
			latest[path] = Event{Path: path, Op: op, Time: time.Now()}
			if t, exists := pending[path]; exists && t.Stop() {
				wg.Done()
			}
			wg.Add(1)
			pending[path] = time.AfterFunc(w.cfg.Debounce, func() { emit(path) })
			mu.Unlock()

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			if w.cfg.OnError != nil {
				w.cfg.OnError(err)
			}
		}
	}
}

func convertOp(op fsnotify.Op) (EventOp, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return Create, true
	case op.Has(fsnotify.Write):
		return Write, true
	case op.Has(fsnotify.Remove):
		return Remove, true
	case op.Has(fsnotify.Rename):
		return Rename, true
	default:
		return 0, false
	}
}
