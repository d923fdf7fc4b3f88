// Package display implements the normal/overlay window mode toggle.
package display

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/petervdpas/glassnote/internal/notify"
)

const (
	DefaultOverlayOpacity = 0.4
	NormalOpacity         = 1.0

	hintTimeout = 5 * time.Second
)

// Window is the part of the host window the controller drives.
type Window interface {
	SetOpacity(opacity float64) error
	SetContentProtection(enabled bool) error
}

// OverlayHints applies optional window-manager hints when overlay mode is
// entered. Failures are never fatal.
type OverlayHints interface {
	Apply(ctx context.Context) error
}

// NoopHints is used where the platform has no hints to apply.
type NoopHints struct{}

func (NoopHints) Apply(context.Context) error { return nil }

// Change is published after every toggle.
type Change struct {
	Mode             Mode    `json:"mode"`
	Opacity          float64 `json:"opacity"`
	ContentProtected bool    `json:"contentProtected"`
}

type Options struct {
	// OverlayOpacity defaults to DefaultOverlayOpacity.
	OverlayOpacity float64
	Log            *zap.Logger
}

type Controller struct {
	win            Window
	hints          OverlayHints
	overlayOpacity float64
	log            *zap.Logger

	// toggleMu serializes whole transitions so window calls and change
	// notifications land in mode order. mu only guards mode.
	toggleMu sync.Mutex
	mu       sync.Mutex
	mode     Mode

	// hints run in the background; wg lets tests and shutdown wait for them
	wg sync.WaitGroup

	changes notify.Bus[Change]
}

func New(win Window, hints OverlayHints, opt Options) *Controller {
	if hints == nil {
		hints = NoopHints{}
	}
	if opt.OverlayOpacity <= 0 || opt.OverlayOpacity > 1 {
		opt.OverlayOpacity = DefaultOverlayOpacity
	}
	if opt.Log == nil {
		opt.Log = zap.NewNop()
	}
	return &Controller{
		win:            win,
		hints:          hints,
		overlayOpacity: opt.OverlayOpacity,
		log:            opt.Log,
		mode:           Normal,
	}
}

func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Controller) Subscribe(fn func(Change)) (cancel func()) {
	return c.changes.Subscribe(fn)
}

// Toggle flips the mode and applies the matching window state. Concurrent
// calls are applied one after the other.
func (c *Controller) Toggle(ctx context.Context) Mode {
	c.toggleMu.Lock()
	defer c.toggleMu.Unlock()

	c.mu.Lock()
	if c.mode == Normal {
		c.mode = Overlay
	} else {
		c.mode = Normal
	}
	mode := c.mode
	c.mu.Unlock()

	ch := Change{Mode: mode}
	if mode == Overlay {
		ch.Opacity = c.overlayOpacity
		ch.ContentProtected = true
	} else {
		ch.Opacity = NormalOpacity
	}

	if err := c.win.SetContentProtection(ch.ContentProtected); err != nil {
		c.log.Debug("content protection unavailable", zap.Bool("enabled", ch.ContentProtected), zap.Error(err))
	}
	if err := c.win.SetOpacity(ch.Opacity); err != nil {
		c.log.Warn("set opacity failed", zap.Float64("opacity", ch.Opacity), zap.Error(err))
	}

	if mode == Overlay {
		c.applyHints(ctx)
	}

	c.log.Info("display mode changed", zap.Stringer("mode", mode))
	c.changes.Publish(ch)
	return mode
}

func (c *Controller) applyHints(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, hintTimeout)
		defer cancel()
		if err := c.hints.Apply(ctx); err != nil {
			c.log.Debug("overlay hints not applied", zap.Error(err))
			return
		}
		c.log.Debug("overlay hints applied")
	}()
}

// Wait blocks until background hint commands have finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}
