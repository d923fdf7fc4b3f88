package display

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// Runner executes a command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// X11Hints finds our own window with xdotool (owning pid and exact title)
// and uses xprop to ask the window manager to skip the pager and taskbar and
// to bypass the compositor.
type X11Hints struct {
	Title string
	Pid   int
	Run   Runner
}

func NewX11Hints(title string) *X11Hints {
	return &X11Hints{Title: title, Pid: os.Getpid(), Run: execRunner}
}

// searchArgs matches windows of Pid whose title is exactly Title.
func (h *X11Hints) searchArgs() []string {
	pid := h.Pid
	if pid <= 0 {
		pid = os.Getpid()
	}
	return []string{"search", "--all",
		"--pid", strconv.Itoa(pid),
		"--name", "^" + regexp.QuoteMeta(h.Title) + "$"}
}

func (h *X11Hints) Apply(ctx context.Context) error {
	run := h.Run
	if run == nil {
		run = execRunner
	}

	out, err := run(ctx, "xdotool", h.searchArgs()...)
	if err != nil {
		return fmt.Errorf("find window: %w", err)
	}
	ids := strings.Fields(string(out))
	if len(ids) == 0 {
		return fmt.Errorf("no window titled %q", h.Title)
	}

	var errs []error
	for _, id := range ids {
		if _, err := run(ctx, "xprop", "-id", id,
			"-f", "_NET_WM_BYPASS_COMPOSITOR", "32c",
			"-set", "_NET_WM_BYPASS_COMPOSITOR", "1"); err != nil {
			errs = append(errs, err)
		}
		if _, err := run(ctx, "xprop", "-id", id,
			"-f", "_NET_WM_STATE", "32a",
			"-set", "_NET_WM_STATE", "_NET_WM_STATE_SKIP_PAGER,_NET_WM_STATE_SKIP_TASKBAR"); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
