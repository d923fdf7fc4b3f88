//go:build linux

package display

import "os"

// PlatformHints returns X11 hints when running under an X server (including
// XWayland), otherwise no-op hints.
func PlatformHints(title string) OverlayHints {
	if os.Getenv("DISPLAY") == "" {
		return NoopHints{}
	}
	return NewX11Hints(title)
}
