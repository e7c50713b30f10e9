// Package recording tracks the single active recording session and the
// screenshots captured while it runs.
package recording

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"go.driftwork.dev/drift/internal/types"
	"go.driftwork.dev/drift/screenshot"
)

var (
	// ErrAlreadyRecording is returned by Start while a session is active.
	ErrAlreadyRecording = errors.New("Already recording")

	// ErrNotRecording is returned by Stop while idle.
	ErrNotRecording = errors.New("Not recording")

	// ErrCaptureFailed wraps any failure of the screen capturer.
	ErrCaptureFailed = errors.New("capture failed")
)

// Session is the Idle/Recording state machine.
// All session fields change together under mu.
type Session struct {
	capturer screenshot.Capturer
	now      func() time.Time

	mu        sync.Mutex
	active    bool
	id        string
	briefID   string
	startedAt time.Time
	shots     Buffer
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// NewSession creates an idle session that captures through c.
func NewSession(c screenshot.Capturer, opts ...Option) *Session {
	s := &Session{
		capturer: c,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start moves Idle to Recording for briefID.
func (s *Session) Start(briefID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return ErrAlreadyRecording
	}

	s.active = true
	s.id = uuid.NewString()
	s.briefID = briefID
	s.startedAt = s.now()
	s.shots.Clear()
	return nil
}

// Stop moves Recording to Idle and returns the screenshots taken during the
// session in capture order.
func (s *Session) Stop() ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return nil, ErrNotRecording
	}

	s.active = false
	s.id = ""
	s.briefID = ""
	s.startedAt = time.Time{}
	return s.shots.Drain(), nil
}

// Status returns a consistent snapshot of the session.
func (s *Session) Status() types.RecordingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return types.RecordingStatus{}
	}

	briefID := s.briefID
	return types.RecordingStatus{
		IsRecording:     true,
		BriefID:         &briefID,
		SessionID:       s.id,
		DurationSeconds: s.now().Unix() - s.startedAt.Unix(),
		ScreenshotCount: s.shots.Len(),
	}
}

// Active reports whether a session is running.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Capture takes one screenshot. The image is returned in every state and is
// also kept for the session that is active when the capture completes.
func (s *Session) Capture(ctx context.Context) ([]byte, error) {
	if s.capturer == nil {
		return nil, fmt.Errorf("%w: no capturer configured", ErrCaptureFailed)
	}

	img, err := s.capturer.Capture(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}
	if len(img) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrCaptureFailed, screenshot.ErrNoImage)
	}

	s.mu.Lock()
	if s.active {
		s.shots.Append(img)
	}
	s.mu.Unlock()

	return img, nil
}
