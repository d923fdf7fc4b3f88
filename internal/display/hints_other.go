//go:build !linux

package display

// PlatformHints is a no-op outside Linux.
func PlatformHints(title string) OverlayHints {
	return NoopHints{}
}
