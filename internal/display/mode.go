package display

// Mode is the window presentation mode.
type Mode int

const (
	// Normal is the opaque, capturable window.
	Normal Mode = iota
	// Overlay is the dimmed, capture-protected teleprompter window.
	Overlay
)

func (m Mode) String() string {
	switch m {
	case Overlay:
		return "overlay"
	default:
		return "normal"
	}
}

// MarshalText lets Mode travel to the frontend as "normal" / "overlay".
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
