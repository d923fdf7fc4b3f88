// Package watch reports when the open document is changed on disk by another
// program.
package watch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/petervdpas/glassnote/internal/notify"
)

// Event describes an outside change to the tracked file.
type Event struct {
	Path    string `json:"path"`
	Removed bool   `json:"removed"`
}

type baseline struct {
	size    int64
	modTime time.Time
	exists  bool
}

// Watcher tracks at most one file. It watches the parent directory so that
// editors which save by rename are still seen.
type Watcher struct {
	fw  *fsnotify.Watcher
	log *zap.Logger

	mu   sync.Mutex
	path   string
	dir    string
	base   baseline
	paused bool

	events notify.Bus[Event]
	done   chan struct{}
}

func New(log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	w := &Watcher{
		fw:   fw,
		log:  log,
		done: make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) Subscribe(fn func(Event)) (cancel func()) {
	return w.events.Subscribe(fn)
}

// Track switches to path and records its current state as the baseline, so
// calling it right after our own save hides that save. An empty path stops
// tracking.
func (w *Watcher) Track(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var dir string
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		path = abs
		dir = filepath.Dir(abs)
	}

	if dir != w.dir {
		if w.dir != "" {
			_ = w.fw.Remove(w.dir)
		}
		w.dir = ""
		if dir != "" {
			if err := w.fw.Add(dir); err != nil {
				w.path = ""
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			w.dir = dir
		}
	}

	w.path = path
	w.base = stat(path)
	w.paused = false
	return nil
}

// Pause stops reporting until the next Track. Wrap our own writes in
// Pause/Track so they are not reported as outside changes.
func (w *Watcher) Pause() {
	w.mu.Lock()
	w.paused = true
	w.mu.Unlock()
}

// Tracked returns the absolute path being watched, or "".
func (w *Watcher) Tracked() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

func (w *Watcher) Close() error {
	err := w.fw.Close()
	<-w.done
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return
	}

	w.mu.Lock()
	if w.paused || w.path == "" || filepath.Clean(ev.Name) != w.path {
		w.mu.Unlock()
		return
	}
	cur := stat(w.path)
	if cur == w.base {
		w.mu.Unlock()
		return
	}
	w.base = cur
	path := w.path
	w.mu.Unlock()

	out := Event{Path: path, Removed: !cur.exists}
	w.log.Info("document changed on disk", zap.String("path", path), zap.Bool("removed", out.Removed))
	w.events.Publish(out)
}

func stat(path string) baseline {
	if path == "" {
		return baseline{}
	}
	st, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return baseline{exists: true}
		}
		return baseline{}
	}
	return baseline{size: st.Size(), modTime: st.ModTime(), exists: true}
}
