// Package app provides the core application service for Wails bindings.
package app

// Event names for frontend communication.
const (
	// EventAuthToken carries a redeemed token string.
	EventAuthToken = "auth-token"

	// EventRecordingState carries a types.RecordingStatus after every
	// session transition.
	EventRecordingState = "recording-state"
)
