// Package screenshot captures still images of the screen as encoded PNG bytes.
package screenshot

import (
	"context"
	"errors"
)

var (
	// ErrUnsupported is returned on platforms without a capture backend.
	ErrUnsupported = errors.New("screen capture not supported on this platform")

	// ErrPermissionDenied is returned when the OS refuses screen recording.
	ErrPermissionDenied = errors.New("screen recording permission required")

	// ErrNoImage is returned when the capture tool produced nothing,
	// e.g. there is no display attached.
	ErrNoImage = errors.New("no capturable screen")
)

// Capturer takes a single screenshot of the main display.
type Capturer interface {
	Capture(ctx context.Context) ([]byte, error)
}

// CapturerFunc adapts a function to the Capturer interface.
type CapturerFunc func(ctx context.Context) ([]byte, error)

// Capture calls f(ctx).
func (f CapturerFunc) Capture(ctx context.Context) ([]byte, error) {
	return f(ctx)
}

// Display captures the main display using the platform tooling.
type Display struct{}

// New returns the platform capturer.
func New() *Display {
	return &Display{}
}

// Capture returns the main display as PNG bytes.
func (d *Display) Capture(ctx context.Context) ([]byte, error) {
	return captureDisplay(ctx)
}
