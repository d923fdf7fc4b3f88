package display

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWindow struct {
	mu         sync.Mutex
	opacity    float64
	protected  bool
	opacityErr error
	protectErr error

	// slowOverlay delays applying overlay opacity
	slowOverlay time.Duration
}

func (w *fakeWindow) SetOpacity(v float64) error {
	if w.opacityErr != nil {
		return w.opacityErr
	}
	if v < NormalOpacity && w.slowOverlay > 0 {
		time.Sleep(w.slowOverlay)
	}
	w.mu.Lock()
	w.opacity = v
	w.mu.Unlock()
	return nil
}

func (w *fakeWindow) SetContentProtection(on bool) error {
	if w.protectErr != nil {
		return w.protectErr
	}
	w.mu.Lock()
	w.protected = on
	w.mu.Unlock()
	return nil
}

func (w *fakeWindow) state() (float64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.opacity, w.protected
}

type countingHints struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (h *countingHints) Apply(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	return h.err
}

func (h *countingHints) Calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

func TestStartsNormal(t *testing.T) {
	c := New(&fakeWindow{opacity: 1}, nil, Options{})
	assert.Equal(t, Normal, c.Mode())
}

func TestToggleEntersOverlay(t *testing.T) {
	win := &fakeWindow{opacity: 1}
	hints := &countingHints{}
	c := New(win, hints, Options{})

	var got []Change
	c.Subscribe(func(ch Change) { got = append(got, ch) })

	assert.Equal(t, Overlay, c.Toggle(context.Background()))
	c.Wait()

	assert.Equal(t, 0.4, win.opacity)
	assert.True(t, win.protected)
	assert.Equal(t, 1, hints.Calls())
	require.Len(t, got, 1)
	assert.Equal(t, Change{Mode: Overlay, Opacity: 0.4, ContentProtected: true}, got[0])
}

func TestToggleTwiceRestoresWindow(t *testing.T) {
	win := &fakeWindow{opacity: 1, protected: false}
	hints := &countingHints{}
	c := New(win, hints, Options{OverlayOpacity: 0.3})

	c.Toggle(context.Background())
	assert.Equal(t, 0.3, win.opacity)

	assert.Equal(t, Normal, c.Toggle(context.Background()))
	c.Wait()

	assert.Equal(t, 1.0, win.opacity)
	assert.False(t, win.protected)
	assert.Equal(t, 1, hints.Calls(), "hints only apply when entering overlay")
}

func TestWindowAndHintFailuresAreNotFatal(t *testing.T) {
	win := &fakeWindow{
		opacity:    1,
		protectErr: errors.ErrUnsupported,
		opacityErr: errors.New("no compositor"),
	}
	hints := &countingHints{err: errors.New("xdotool: not found")}
	c := New(win, hints, Options{})

	var got []Change
	c.Subscribe(func(ch Change) { got = append(got, ch) })

	assert.Equal(t, Overlay, c.Toggle(context.Background()))
	c.Wait()
	assert.Equal(t, Normal, c.Toggle(context.Background()))

	require.Len(t, got, 2)
	assert.Equal(t, Overlay, got[0].Mode)
	assert.Equal(t, Normal, got[1].Mode)
}

func TestInvalidOverlayOpacityFallsBack(t *testing.T) {
	win := &fakeWindow{}
	c := New(win, nil, Options{OverlayOpacity: 7})
	c.Toggle(context.Background())
	assert.Equal(t, DefaultOverlayOpacity, win.opacity)
}

func TestModeText(t *testing.T) {
	b, err := Overlay.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "overlay", string(b))
	assert.Equal(t, "normal", Normal.String())
}

func TestConcurrentTogglesKeepWindowConsistent(t *testing.T) {
	for i := 0; i < 5; i++ {
		win := &fakeWindow{opacity: 1, slowOverlay: 20 * time.Millisecond}
		c := New(win, nil, Options{})

		var modes []Mode
		var mu sync.Mutex
		c.Subscribe(func(ch Change) {
			mu.Lock()
			modes = append(modes, ch.Mode)
			mu.Unlock()
		})

		done := make(chan struct{})
		go func() {
			defer close(done)
			c.Toggle(context.Background())
		}()
		time.Sleep(5 * time.Millisecond)
		c.Toggle(context.Background())
		<-done
		c.Wait()

		opacity, protected := win.state()
		require.Equal(t, Normal, c.Mode(), "iteration %d", i)
		assert.Equal(t, NormalOpacity, opacity, "iteration %d", i)
		assert.False(t, protected, "iteration %d", i)
		assert.Equal(t, []Mode{Overlay, Normal}, modes, "iteration %d", i)
	}
}

type call struct {
	name string
	args []string
}

func TestX11HintsCommands(t *testing.T) {
	var calls []call
	h := &X11Hints{
		Title: "Glassnote",
		Pid:   4242,
		Run: func(_ context.Context, name string, args ...string) ([]byte, error) {
			calls = append(calls, call{name, args})
			if name == "xdotool" {
				return []byte("4194307\n"), nil
			}
			return nil, nil
		},
	}

	require.NoError(t, h.Apply(context.Background()))
	require.Len(t, calls, 3)
	assert.Equal(t, call{"xdotool", []string{"search", "--all", "--pid", "4242", "--name", "^Glassnote$"}}, calls[0])
	assert.Equal(t, "xprop", calls[1].name)
	assert.Contains(t, strings.Join(calls[1].args, " "), "-id 4194307")
	assert.Contains(t, strings.Join(calls[1].args, " "), "_NET_WM_BYPASS_COMPOSITOR 1")
	assert.Contains(t, strings.Join(calls[2].args, " "), "_NET_WM_STATE_SKIP_PAGER,_NET_WM_STATE_SKIP_TASKBAR")
}

func TestX11HintsSearchIsExactAndScopedToProcess(t *testing.T) {
	var args []string
	h := &X11Hints{
		Title: "Glass.note (1)",
		Run: func(_ context.Context, name string, a ...string) ([]byte, error) {
			if name == "xdotool" {
				args = a
				return []byte("7"), nil
			}
			return nil, nil
		},
	}
	require.NoError(t, h.Apply(context.Background()))
	assert.Equal(t, []string{"search", "--all", "--pid", strconv.Itoa(os.Getpid()), "--name", `^Glass\.note \(1\)$`}, args)
}

func TestX11HintsWindowNotFound(t *testing.T) {
	h := &X11Hints{
		Title: "Glassnote",
		Run: func(context.Context, string, ...string) ([]byte, error) {
			return nil, nil
		},
	}
	assert.Error(t, h.Apply(context.Background()))
}

func TestX11HintsCollectsXpropErrors(t *testing.T) {
	h := &X11Hints{
		Title: "Glassnote",
		Run: func(_ context.Context, name string, _ ...string) ([]byte, error) {
			if name == "xdotool" {
				return []byte("1 2"), nil
			}
			return nil, errors.New("BadWindow")
		},
	}
	err := h.Apply(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BadWindow")
}
