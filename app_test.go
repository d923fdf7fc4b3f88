package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"

	"github.com/petervdpas/glassnote/internal/config"
	"github.com/petervdpas/glassnote/internal/display"
)

type emitted struct {
	event string
	data  any
}

type fakeShell struct {
	mu       sync.Mutex
	openPath string
	savePath string
	answer   bool
	asked    int
	closed   int
	opacity  float64
	events   []emitted
}

func (s *fakeShell) SetOpacity(v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opacity = v
	return nil
}

func (s *fakeShell) SetContentProtection(bool) error { return nil }

func (s *fakeShell) OpenPath() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openPath, nil
}

func (s *fakeShell) SavePath(string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.savePath, nil
}

func (s *fakeShell) Confirm(string, string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asked++
	return s.answer, nil
}

func (s *fakeShell) Emit(event string, data ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := emitted{event: event}
	if len(data) > 0 {
		e.data = data[0]
	}
	s.events = append(s.events, e)
}

func (s *fakeShell) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
}

func (s *fakeShell) Minimize() {}

func (s *fakeShell) ToggleVisible() bool { return true }

func (s *fakeShell) count(event string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.event == event {
			n++
		}
	}
	return n
}

func (s *fakeShell) payloads(event string) []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []any
	for _, e := range s.events {
		if e.event == event {
			out = append(out, e.data)
		}
	}
	return out
}

func (s *fakeShell) notices() []Notice {
	var out []Notice
	for _, d := range s.payloads(eventNotice) {
		out = append(out, d.(Notice))
	}
	return out
}

func (s *fakeShell) confirmations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.asked
}

func (s *fakeShell) closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// startApp runs the app against a fake shell without draft storage or
// window manager hints.
func startApp(t *testing.T, shell *fakeShell) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Autosave.Enabled = false
	cfg.Overlay.Hints = false

	app := NewApp(Options{Cfg: cfg, CfgPath: filepath.Join(t.TempDir(), "config.json")})
	app.start(context.Background(), shell)
	t.Cleanup(func() { app.shutdown(context.Background()) })
	return app
}

func submenu(t *testing.T, m *menu.Menu, label string) *menu.Menu {
	t.Helper()
	for _, item := range m.Items {
		if item.Label == label {
			require.NotNil(t, item.SubMenu, label)
			return item.SubMenu
		}
	}
	t.Fatalf("no %q menu", label)
	return nil
}

func accelerators(m *menu.Menu) map[string]*keys.Accelerator {
	out := make(map[string]*keys.Accelerator)
	for _, item := range m.Items {
		if item.Label != "" {
			out[item.Label] = item.Accelerator
		}
	}
	return out
}

func TestMenuAccelerators(t *testing.T) {
	app := NewApp(Options{Cfg: config.Default()})
	root := app.menu()

	file := accelerators(submenu(t, root, "File"))
	require.Contains(t, file, "New")
	assert.Equal(t, "n", file["New"].Key)
	assert.Equal(t, "o", file["Open"].Key)
	assert.Equal(t, "s", file["Save"].Key)
	assert.Equal(t, "q", file["Exit"].Key)
	assert.Equal(t, []keys.Modifier{keys.CmdOrCtrlKey, keys.ShiftKey}, file["Save As"].Modifiers)

	view := accelerators(submenu(t, root, "View"))
	assert.Equal(t, "i", view["Teleprompter Mode"].Key)
	assert.Equal(t, []keys.Modifier{keys.CmdOrCtrlKey}, view["Teleprompter Mode"].Modifiers)
	assert.Equal(t, []keys.Modifier{keys.CmdOrCtrlKey, keys.OptionOrAltKey}, view["Teleprompter Mode (alt)"].Modifiers)
	assert.Equal(t, "h", view["Show / Hide"].Key)
}

func TestNewAppDefaults(t *testing.T) {
	app := NewApp(Options{Cfg: config.Default(), Dev: true})
	assert.True(t, app.DevMode())
	assert.Empty(t, app.GetLogs())
	assert.False(t, app.isClosing())
	app.setClosing()
	assert.True(t, app.isClosing())
}

func TestQuitFunc(t *testing.T) {
	called := false
	quitFunc(func() { called = true }).Close()
	assert.True(t, called)
}

func TestBeforeClose(t *testing.T) {
	tests := []struct {
		name        string
		edit        bool
		answer      bool
		wantPrevent bool
		wantAsked   int
		wantClosing bool
	}{
		{name: "clean document closes", wantClosing: true},
		{name: "declined keeps window open", edit: true, wantPrevent: true, wantAsked: 1},
		{name: "accepted closes", edit: true, answer: true, wantAsked: 1, wantClosing: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shell := &fakeShell{answer: tt.answer}
			app := startApp(t, shell)
			if tt.edit {
				app.Edit("unsaved", 1)
			}

			assert.Equal(t, tt.wantPrevent, app.beforeClose(context.Background()))
			assert.Equal(t, tt.wantAsked, shell.confirmations())
			assert.Equal(t, tt.wantClosing, app.isClosing())
		})
	}
}

func TestCloseDoesNotAskTwice(t *testing.T) {
	shell := &fakeShell{answer: true}
	app := startApp(t, shell)
	app.Edit("unsaved", 1)

	require.True(t, app.Close())
	assert.Equal(t, 1, shell.closes())
	assert.Equal(t, 1, shell.confirmations())

	// the window manager close that follows the quit
	assert.False(t, app.beforeClose(context.Background()))
	assert.Equal(t, 1, shell.confirmations())
}

func TestCloseDeclined(t *testing.T) {
	shell := &fakeShell{}
	app := startApp(t, shell)
	app.Edit("unsaved", 1)

	assert.False(t, app.Close())
	assert.Zero(t, shell.closes())
	assert.False(t, app.isClosing())
}

func TestSaveNotices(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name       string
		savePath   string
		wantKind   string
		wantPrefix string
		wantTrack  bool
	}{
		{name: "success", savePath: filepath.Join(dir, "notes.txt"), wantKind: "success", wantPrefix: "File saved successfully!", wantTrack: true},
		{name: "write error", savePath: filepath.Join(dir, "missing", "notes.txt"), wantKind: "error", wantPrefix: "Error saving file: "},
		{name: "cancelled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shell := &fakeShell{savePath: tt.savePath}
			app := startApp(t, shell)
			app.Edit("hello", 1)

			res := app.SaveAsDocument("hello")

			notices := shell.notices()
			if tt.wantKind == "" {
				assert.True(t, res.Cancelled)
				assert.Empty(t, notices)
				return
			}
			require.Len(t, notices, 1)
			assert.Equal(t, tt.wantKind, notices[0].Kind)
			assert.True(t, strings.HasPrefix(notices[0].Message, tt.wantPrefix), notices[0].Message)
			assert.NotEmpty(t, notices[0].ID)
			if tt.wantTrack {
				assert.Equal(t, tt.savePath, app.watcher.Tracked())
				assert.False(t, app.session.Modified())
			} else {
				assert.Empty(t, app.watcher.Tracked())
			}
		})
	}
}

func TestOwnSaveIsNotReportedAsExternal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	shell := &fakeShell{openPath: path}
	app := startApp(t, shell)
	require.True(t, app.OpenDocument().Success)
	require.Equal(t, path, app.watcher.Tracked())

	app.Edit("hello, much longer text", 1)
	require.True(t, app.SaveDocument("hello, much longer text").Success)

	assert.Never(t, func() bool { return shell.count(eventExternal) > 0 }, 300*time.Millisecond, 20*time.Millisecond)
	assert.False(t, app.session.Modified())
}

func TestExternalChangeMarksModified(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	shell := &fakeShell{openPath: path}
	app := startApp(t, shell)
	require.True(t, app.OpenDocument().Success)
	require.Equal(t, path, app.watcher.Tracked())
	require.False(t, app.session.Modified())

	require.NoError(t, os.WriteFile(path, []byte("changed by another program"), 0o644))

	require.Eventually(t, func() bool { return shell.count(eventExternal) > 0 }, 2*time.Second, 20*time.Millisecond)
	assert.Eventually(t, app.session.Modified, time.Second, 10*time.Millisecond)

	var messages []string
	for _, n := range shell.notices() {
		messages = append(messages, n.Message)
	}
	assert.Contains(t, messages, "notes.txt changed on disk")
}

func TestNewDocumentStopsTracking(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	shell := &fakeShell{openPath: path}
	app := startApp(t, shell)
	require.True(t, app.OpenDocument().Success)
	require.Equal(t, path, app.watcher.Tracked())

	require.True(t, app.NewDocument())
	assert.Empty(t, app.watcher.Tracked())
	assert.Equal(t, 2, shell.count(eventSession))
}

func TestToggleOverlayEmits(t *testing.T) {
	shell := &fakeShell{}
	app := startApp(t, shell)

	assert.Equal(t, display.Overlay, app.ToggleOverlay())
	assert.Equal(t, display.Overlay, app.Mode())
	assert.Equal(t, 1, shell.count(eventDisplay))
	require.Len(t, shell.notices(), 1)
	assert.Equal(t, "Teleprompter mode active", shell.notices()[0].Message)

	assert.Equal(t, display.Normal, app.ToggleOverlay())
	assert.Equal(t, "Normal mode", shell.notices()[1].Message)
}

func TestEditDropsStaleSequence(t *testing.T) {
	app := startApp(t, &fakeShell{})

	app.Edit("ab", 2)
	app.Edit("a", 1)

	doc := app.Document()
	assert.Equal(t, "ab", doc.Content)
	assert.True(t, doc.Modified)
}

func TestMenuSaveAsksThePage(t *testing.T) {
	shell := &fakeShell{}
	app := startApp(t, shell)
	file := submenu(t, app.menu(), "File")

	for _, item := range file.Items {
		if item.Label == "Save" || item.Label == "Save As" {
			item.Click(&menu.CallbackData{MenuItem: item})
		}
	}

	assert.Equal(t, []any{false, true}, shell.payloads(eventMenuSave))
	assert.Zero(t, shell.count(eventNotice), "menu save must not write the file itself")
}
