// internal/ui/viewmodels/editor.go

package viewmodels

type EditorVM struct {
	BaseVM

	Untitled    string // status text before the first save
	Placeholder string
	OverlayKey  string // accelerator hint shown on the overlay button
}
