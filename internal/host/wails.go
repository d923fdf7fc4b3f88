// Package host adapts the Wails runtime to the window, dialog and
// confirmation interfaces used by the session and display packages.
package host

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/petervdpas/glassnote/internal/config"
)

// Event names emitted to the frontend.
const (
	EventOpacity = "window:opacity"
)

// Wails drives the single application window through the Wails runtime.
// ctx must be the context handed to OnStartup.
type Wails struct {
	ctx   context.Context
	title string
	files config.Files

	mu      sync.Mutex
	visible bool
	opacity float64
}

func New(ctx context.Context, title string, files config.Files) *Wails {
	return &Wails{
		ctx:     ctx,
		title:   title,
		files:   files,
		visible: true,
		opacity: 1,
	}
}

// SetOpacity fades the window background and tells the frontend to dim the
// page, which together stand in for whole-window opacity.
func (w *Wails) SetOpacity(opacity float64) error {
	opacity = math.Max(0, math.Min(1, opacity))

	w.mu.Lock()
	w.opacity = opacity
	w.mu.Unlock()

	runtime.WindowSetBackgroundColour(w.ctx, 20, 20, 20, alpha(opacity))
	runtime.EventsEmit(w.ctx, EventOpacity, opacity)
	return nil
}

func (w *Wails) Opacity() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.opacity
}

// SetContentProtection hides the window from screen capture where the
// platform allows it.
func (w *Wails) SetContentProtection(enabled bool) error {
	return setContentProtection(w.title, enabled)
}

func (w *Wails) Minimize() {
	runtime.WindowMinimise(w.ctx)
}

// Close quits the application.
func (w *Wails) Close() {
	runtime.Quit(w.ctx)
}

func (w *Wails) Show() {
	w.mu.Lock()
	w.visible = true
	w.mu.Unlock()
	runtime.WindowShow(w.ctx)
}

func (w *Wails) Hide() {
	w.mu.Lock()
	w.visible = false
	w.mu.Unlock()
	runtime.WindowHide(w.ctx)
}

func (w *Wails) IsVisible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

// ToggleVisible hides a visible window and shows a hidden one.
func (w *Wails) ToggleVisible() bool {
	if w.IsVisible() {
		w.Hide()
		return false
	}
	w.Show()
	return true
}

// OpenPath shows the native open dialog. Returns "" if the user cancels.
func (w *Wails) OpenPath() (string, error) {
	return runtime.OpenFileDialog(w.ctx, runtime.OpenDialogOptions{
		Title:   "Open",
		Filters: fileFilters(w.files.OpenFilters),
	})
}

// SavePath shows the native save dialog. Returns "" if the user cancels.
func (w *Wails) SavePath(suggested string) (string, error) {
	return runtime.SaveFileDialog(w.ctx, runtime.SaveDialogOptions{
		Title:           "Save As",
		DefaultFilename: suggested,
		Filters:         fileFilters(w.files.SaveFilters),
	})
}

// Confirm shows a Yes/No question dialog.
func (w *Wails) Confirm(title, message string) (bool, error) {
	res, err := runtime.MessageDialog(w.ctx, runtime.MessageDialogOptions{
		Type:          runtime.QuestionDialog,
		Title:         title,
		Message:       message,
		Buttons:       []string{"Yes", "No"},
		DefaultButton: "Yes",
		CancelButton:  "No",
	})
	if err != nil {
		return false, err
	}
	return isYes(res), nil
}

// Emit sends an event to the frontend.
func (w *Wails) Emit(event string, data ...any) {
	runtime.EventsEmit(w.ctx, event, data...)
}

func fileFilters(in []config.Filter) []runtime.FileFilter {
	out := make([]runtime.FileFilter, 0, len(in))
	for _, f := range in {
		out = append(out, runtime.FileFilter{
			DisplayName: f.Name,
			Pattern:     filterPattern(f.Extensions),
		})
	}
	return out
}

// filterPattern turns ["txt","md"] into "*.txt;*.md" and ["*"] into "*".
func filterPattern(exts []string) string {
	parts := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.TrimPrefix(strings.TrimSpace(e), ".")
		switch e {
		case "":
			continue
		case "*":
			parts = append(parts, "*")
		default:
			parts = append(parts, "*."+e)
		}
	}
	return strings.Join(parts, ";")
}

func alpha(opacity float64) uint8 {
	return uint8(math.Round(opacity * 255))
}

func isYes(res string) bool {
	switch strings.ToLower(strings.TrimSpace(res)) {
	case "yes", "ok":
		return true
	}
	return false
}
