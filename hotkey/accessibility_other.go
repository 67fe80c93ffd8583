//go:build !darwin

package hotkey

// IsAccessibilityEnabled always reports true outside macOS.
func IsAccessibilityEnabled(bool) bool {
	return true
}
