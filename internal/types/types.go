// Package types provides shared type definitions for the application.
package types

// RecordingStatus is the snapshot returned by get_recording_status.
type RecordingStatus struct {
	IsRecording     bool    `json:"is_recording"`
	BriefID         *string `json:"brief_id"`
	SessionID       string  `json:"session_id,omitempty"`
	DurationSeconds int64   `json:"duration_seconds"`
	ScreenshotCount int     `json:"screenshot_count"`
}
