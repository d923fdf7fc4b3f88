// app.go
package main

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/petervdpas/glassnote/internal/autosave"
	"github.com/petervdpas/glassnote/internal/config"
	"github.com/petervdpas/glassnote/internal/display"
	"github.com/petervdpas/glassnote/internal/host"
	"github.com/petervdpas/glassnote/internal/logging"
	"github.com/petervdpas/glassnote/internal/session"
	"github.com/petervdpas/glassnote/internal/storage"
	"github.com/petervdpas/glassnote/internal/watch"
)

// Events emitted to the frontend.
const (
	eventSession  = "session:changed"
	eventDisplay  = "display:changed"
	eventNotice   = "notice"
	eventExternal = "file:external"
	eventLog      = "log:entry"
	eventMenuSave = "menu:save" // payload: true for Save As
)

// Notice is a dismissable toast shown by the frontend.
type Notice struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"` // success | info | error
	Message string `json:"message"`
}

// Shell is the native window the app drives. host.Wails implements it.
type Shell interface {
	display.Window
	session.Picker
	session.Confirmer

	Emit(event string, data ...any)
	Close()
	Minimize()
	ToggleVisible() bool
}

type Options struct {
	Cfg     config.Config
	CfgPath string
	Dev     bool
	Log     *zap.Logger
	Logs    *logging.LogBuffer
}

type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg     config.Config
	cfgPath string
	dev     bool
	log     *zap.Logger
	logs    *logging.LogBuffer

	win     Shell
	db      *storage.DB
	drafts  *autosave.Saver
	session *session.Manager
	display *display.Controller
	watcher *watch.Watcher

	mu      sync.Mutex
	closing bool
	unsubs  []func()
}

// quitFunc lets a plain func act as the session's Terminator.
type quitFunc func()

func (f quitFunc) Close() { f() }

func NewApp(opt Options) *App {
	if opt.Log == nil {
		opt.Log = zap.NewNop()
	}
	if opt.Logs == nil {
		opt.Logs = logging.NewLogBuffer(0)
	}
	return &App{
		cfg:     opt.Cfg,
		cfgPath: opt.CfgPath,
		dev:     opt.Dev,
		log:     opt.Log,
		logs:    opt.Logs,
	}
}

func (a *App) startup(ctx context.Context) {
	a.start(ctx, host.New(ctx, a.cfg.Window.Title, a.cfg.Files))
}

// start builds the components around win and wires them together.
func (a *App) start(ctx context.Context, win Shell) {
	a.ctx, a.cancel = context.WithCancel(ctx)
	a.win = win

	dataDir := a.cfg.ResolveDataDir(a.cfgPath)

	var drafts session.Drafts
	if a.cfg.Autosave.Enabled {
		db, err := storage.Open(dataDir)
		if err != nil {
			a.log.Error("draft storage unavailable, auto-save disabled", zap.String("dir", dataDir), zap.Error(err))
		} else {
			a.db = db
			a.drafts = autosave.New(db, autosave.Options{
				Key:      a.cfg.Autosave.Key,
				Interval: time.Duration(a.cfg.Autosave.IntervalMS) * time.Millisecond,
				Log:      a.log.Named("autosave"),
			})
			drafts = a.drafts
		}
	}

	a.session = session.NewManager(session.Options{
		Picker:  a.win,
		Confirm: a.win,
		Host:    quitFunc(a.quit),
		Drafts:  drafts,
		Log:     a.log.Named("session"),
	})

	var hints display.OverlayHints = display.NoopHints{}
	if a.cfg.Overlay.Hints {
		hints = display.PlatformHints(a.cfg.Window.Title)
	}
	a.display = display.New(a.win, hints, display.Options{
		OverlayOpacity: a.cfg.Overlay.Opacity,
		Log:            a.log.Named("display"),
	})

	if w, err := watch.New(a.log.Named("watch")); err != nil {
		a.log.Warn("file watcher unavailable", zap.Error(err))
	} else {
		a.watcher = w
	}

	a.wire()

	if a.dev {
		a.streamLogs()
	}

	a.log.Info("startup complete",
		zap.String("config", a.cfgPath),
		zap.String("data", dataDir),
		zap.Bool("autosave", a.drafts != nil),
		zap.Bool("dev", a.dev),
	)
}

// wire connects component notifications to the frontend.
func (a *App) wire() {
	a.unsubs = append(a.unsubs, a.session.Subscribe(func(c session.Change) {
		a.win.Emit(eventSession, c)
		if c.Kind == session.ChangeNew || c.Kind == session.ChangeOpened {
			a.track(c.Path)
		}
	}))

	a.unsubs = append(a.unsubs, a.display.Subscribe(func(c display.Change) {
		a.win.Emit(eventDisplay, c)
		if c.Mode == display.Overlay {
			a.notify("info", "Teleprompter mode active")
		} else {
			a.notify("info", "Normal mode")
		}
	}))

	if a.watcher != nil {
		a.unsubs = append(a.unsubs, a.watcher.Subscribe(func(ev watch.Event) {
			a.win.Emit(eventExternal, ev)
			a.session.MarkModified(true)
			name := filepath.Base(ev.Path)
			if ev.Removed {
				a.notify("error", name+" was removed from disk")
			} else {
				a.notify("info", name+" changed on disk")
			}
		}))
	}
}

func (a *App) streamLogs() {
	ch, cancel := a.logs.Subscribe()
	a.unsubs = append(a.unsubs, cancel)
	go func() {
		for {
			select {
			case <-a.ctx.Done():
				return
			case e, ok := <-ch:
				if !ok {
					return
				}
				a.win.Emit(eventLog, e)
			}
		}
	}()
}

func (a *App) shutdown(ctx context.Context) {
	a.log.Info("shutting down")

	if a.drafts != nil {
		a.drafts.Stop()
	}
	if a.display != nil {
		a.display.Wait()
	}
	for _, unsub := range a.unsubs {
		unsub()
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			a.log.Warn("close watcher", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("close draft storage", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

// beforeClose runs when the window manager asks to close the window.
// Returning true keeps the window open.
func (a *App) beforeClose(ctx context.Context) (prevent bool) {
	if a.isClosing() {
		return false
	}
	if err := a.session.ConfirmClose(); err != nil {
		return true
	}
	a.setClosing()
	return false
}

func (a *App) quit() {
	a.setClosing()
	a.win.Close()
}

func (a *App) setClosing() {
	a.mu.Lock()
	a.closing = true
	a.mu.Unlock()
}

func (a *App) isClosing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closing
}

func (a *App) notify(kind, message string) {
	a.win.Emit(eventNotice, Notice{ID: uuid.NewString(), Kind: kind, Message: message})
}

func (a *App) track(path string) {
	if a.watcher == nil {
		return
	}
	if err := a.watcher.Track(path); err != nil {
		a.log.Warn("cannot watch document", zap.String("path", path), zap.Error(err))
	}
}

// saving wraps our own writes so the watcher does not report them.
func (a *App) saving(fn func() session.Result) session.Result {
	if a.watcher != nil {
		a.watcher.Pause()
	}
	res := fn()
	a.track(a.session.Path())

	switch {
	case res.Success:
		a.notify("success", "File saved successfully!")
	case res.Error != "":
		a.notify("error", "Error saving file: "+res.Error)
	}
	return res
}

// -------------------------
// Frontend API (document)
// -------------------------

func (a *App) Document() session.Document {
	return a.session.Snapshot()
}

// NewDocument returns false when the user kept their unsaved changes.
func (a *App) NewDocument() bool {
	return !errors.Is(a.session.NewDocument(), session.ErrAborted)
}

func (a *App) OpenDocument() session.Result {
	res := a.session.Open()
	if res.Error != "" {
		a.notify("error", "Error opening file: "+res.Error)
	}
	return res
}

func (a *App) SaveDocument(content string) session.Result {
	return a.saving(func() session.Result { return a.session.SaveDocument(content) })
}

func (a *App) SaveAsDocument(content string) session.Result {
	return a.saving(func() session.Result { return a.session.SaveAsDocument(content) })
}

// Edit receives the editor text after every input event. seq grows with
// every input so edits delivered out of order are dropped.
func (a *App) Edit(content string, seq uint64) {
	a.session.EditSeq(seq, content)
}

func (a *App) MarkModified(modified bool) {
	a.session.MarkModified(modified)
}

// RecoverDraft offers the auto-saved draft once the frontend is ready.
func (a *App) RecoverDraft() bool {
	ok, err := a.session.RecoverDraft(a.ctx)
	if err != nil {
		a.log.Warn("draft recovery failed", zap.Error(err))
		return false
	}
	return ok
}

// Close returns false when the user kept their unsaved changes.
func (a *App) Close() bool {
	return !errors.Is(a.session.Close(), session.ErrAborted)
}

// -------------------------
// Frontend API (window)
// -------------------------

func (a *App) ToggleOverlay() display.Mode {
	return a.display.Toggle(a.ctx)
}

func (a *App) Mode() display.Mode {
	return a.display.Mode()
}

func (a *App) Minimize() {
	a.win.Minimize()
}

func (a *App) ToggleVisibility() bool {
	return a.win.ToggleVisible()
}

// -------------------------
// Frontend API (developer tools)
// -------------------------

func (a *App) DevMode() bool {
	return a.dev
}

func (a *App) GetLogs() []logging.Entry {
	return a.logs.Snapshot()
}
