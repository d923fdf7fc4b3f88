//go:build windows

package host

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	wdaNone               = 0x00000000
	wdaExcludeFromCapture = 0x00000011
)

var (
	user32                       = windows.NewLazySystemDLL("user32.dll")
	procFindWindowW              = user32.NewProc("FindWindowW")
	procSetWindowDisplayAffinity = user32.NewProc("SetWindowDisplayAffinity")
)

func setContentProtection(title string, enabled bool) error {
	t, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return err
	}
	hwnd, _, _ := procFindWindowW.Call(0, uintptr(unsafe.Pointer(t)))
	if hwnd == 0 {
		return fmt.Errorf("window %q not found", title)
	}

	affinity := uintptr(wdaNone)
	if enabled {
		affinity = wdaExcludeFromCapture
	}
	if ok, _, callErr := procSetWindowDisplayAffinity.Call(hwnd, affinity); ok == 0 {
		return fmt.Errorf("SetWindowDisplayAffinity: %w", callErr)
	}
	return nil
}
