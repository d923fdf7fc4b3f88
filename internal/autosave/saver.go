// Package autosave keeps a single debounced draft of the document so an
// unsaved buffer can be offered back after a crash or restart.
package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

const (
	DefaultInterval = time.Second
	DefaultKey      = "glassnote-autosave"

	writeTimeout = 5 * time.Second
)

// Store is the persistent key-value slot the draft lives in.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type Options struct {
	Key      string
	Interval time.Duration
	Clock    clock.Clock
	Log      *zap.Logger
}

// Saver writes the most recent content once Interval has passed without a
// further Touch. There is only ever one pending write.
type Saver struct {
	store    Store
	key      string
	interval time.Duration
	clock    clock.Clock
	log      *zap.Logger

	mu      sync.Mutex
	timer   *clock.Timer
	pending string
	gen     uint64
	stopped bool
}

func New(store Store, opt Options) *Saver {
	if opt.Key == "" {
		opt.Key = DefaultKey
	}
	if opt.Interval <= 0 {
		opt.Interval = DefaultInterval
	}
	if opt.Clock == nil {
		opt.Clock = clock.New()
	}
	if opt.Log == nil {
		opt.Log = zap.NewNop()
	}
	return &Saver{
		store:    store,
		key:      opt.Key,
		interval: opt.Interval,
		clock:    opt.Clock,
		log:      opt.Log,
	}
}

// Touch records content as the latest edit and restarts the debounce timer.
func (s *Saver) Touch(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.pending = content
	s.gen++
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.interval, func() { s.fire(gen) })
}

func (s *Saver) fire(gen uint64) {
	s.mu.Lock()
	// A Touch that raced the timer has already scheduled a newer write.
	if s.stopped || gen != s.gen {
		s.mu.Unlock()
		return
	}
	content := s.pending
	s.timer = nil
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := s.store.Set(ctx, s.key, content); err != nil {
		s.log.Warn("draft write failed", zap.Error(err))
		return
	}
	s.log.Debug("draft written", zap.Int("bytes", len(content)))
}

// Load returns the stored draft, if any.
func (s *Saver) Load(ctx context.Context) (string, bool, error) {
	return s.store.Get(ctx, s.key)
}

// Pending reports whether a write is scheduled.
func (s *Saver) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Stop cancels any pending write. Touch is a no-op afterwards.
func (s *Saver) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
