// menu.go
package main

import (
	goruntime "runtime"

	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
)

// menu builds the application menu. Callbacks hop to a goroutine because
// they may open native dialogs.
func (a *App) menu() *menu.Menu {
	root := menu.NewMenu()
	if goruntime.GOOS == "darwin" {
		root.Append(menu.AppMenu())
	}

	file := root.AddSubmenu("File")
	file.AddText("New", keys.CmdOrCtrl("n"), func(*menu.CallbackData) {
		go a.NewDocument()
	})
	file.AddText("Open", keys.CmdOrCtrl("o"), func(*menu.CallbackData) {
		go a.OpenDocument()
	})
	// the editor owns the newest text, so saves are started from the page
	file.AddText("Save", keys.CmdOrCtrl("s"), func(*menu.CallbackData) {
		a.win.Emit(eventMenuSave, false)
	})
	file.AddText("Save As", keys.Combo("s", keys.CmdOrCtrlKey, keys.ShiftKey), func(*menu.CallbackData) {
		a.win.Emit(eventMenuSave, true)
	})
	file.AddSeparator()
	file.AddText("Exit", keys.CmdOrCtrl("q"), func(*menu.CallbackData) {
		go a.Close()
	})

	root.Append(menu.EditMenu())

	view := root.AddSubmenu("View")
	view.AddText("Teleprompter Mode", keys.CmdOrCtrl("i"), func(*menu.CallbackData) {
		go a.ToggleOverlay()
	})
	view.AddText("Teleprompter Mode (alt)", keys.Combo("i", keys.CmdOrCtrlKey, keys.OptionOrAltKey), func(*menu.CallbackData) {
		go a.ToggleOverlay()
	})
	view.AddText("Show / Hide", keys.Combo("h", keys.CmdOrCtrlKey, keys.OptionOrAltKey), func(*menu.CallbackData) {
		go a.ToggleVisibility()
	})

	return root
}
