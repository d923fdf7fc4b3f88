//go:build !windows

package host

import "errors"

// setContentProtection has no portable implementation outside Windows.
func setContentProtection(string, bool) error {
	return errors.ErrUnsupported
}
