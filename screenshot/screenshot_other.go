//go:build !darwin

package screenshot

import "context"

// HasPermission reports whether the app may record the screen.
func HasPermission() bool {
	return false
}

// RequestPermission requests screen recording permission from the system.
func RequestPermission() {}

func captureDisplay(context.Context) ([]byte, error) {
	return nil, ErrUnsupported
}
