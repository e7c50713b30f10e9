package recording

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.driftwork.dev/drift/screenshot"
)

func fakeCapturer() (screenshot.Capturer, *atomic.Int32) {
	var n atomic.Int32
	return screenshot.CapturerFunc(func(context.Context) ([]byte, error) {
		i := n.Add(1)
		return []byte{0x89, 'P', 'N', 'G', byte(i)}, nil
	}), &n
}

func TestStartStopAlternation(t *testing.T) {
	c, _ := fakeCapturer()
	s := NewSession(c)

	_, err := s.Stop()
	require.ErrorIs(t, err, ErrNotRecording)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Start("b1"))
		assert.True(t, s.Active())
		require.ErrorIs(t, s.Start("b2"), ErrAlreadyRecording)

		_, err := s.Stop()
		require.NoError(t, err)
		assert.False(t, s.Active())

		_, err = s.Stop()
		require.ErrorIs(t, err, ErrNotRecording)
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "Already recording", ErrAlreadyRecording.Error())
	assert.Equal(t, "Not recording", ErrNotRecording.Error())
}

func TestStopReturnsCaptures(t *testing.T) {
	c, _ := fakeCapturer()
	s := NewSession(c)
	ctx := context.Background()

	require.NoError(t, s.Start("b1"))
	for i := 0; i < 3; i++ {
		_, err := s.Capture(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, s.Status().ScreenshotCount)

	shots, err := s.Stop()
	require.NoError(t, err)
	require.Len(t, shots, 3)
	for i, img := range shots {
		assert.Equal(t, byte(i+1), img[len(img)-1], "capture order")
	}

	st := s.Status()
	assert.False(t, st.IsRecording)
	assert.Nil(t, st.BriefID)
	assert.Zero(t, st.ScreenshotCount)
	assert.Zero(t, st.DurationSeconds)
	assert.Empty(t, st.SessionID)
}

func TestStopWithoutCapturesReturnsEmpty(t *testing.T) {
	c, _ := fakeCapturer()
	s := NewSession(c)

	require.NoError(t, s.Start("b1"))
	shots, err := s.Stop()
	require.NoError(t, err)
	assert.NotNil(t, shots)
	assert.Empty(t, shots)
}

func TestCaptureWhileIdle(t *testing.T) {
	c, calls := fakeCapturer()
	s := NewSession(c)

	img, err := s.Capture(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, img)
	assert.Equal(t, int32(1), calls.Load())
	assert.Zero(t, s.Status().ScreenshotCount)

	// An idle capture must not leak into the next session.
	require.NoError(t, s.Start("b1"))
	shots, err := s.Stop()
	require.NoError(t, err)
	assert.Empty(t, shots)
}

func TestStartClearsPreviousBuffer(t *testing.T) {
	c, _ := fakeCapturer()
	s := NewSession(c)
	ctx := context.Background()

	require.NoError(t, s.Start("b1"))
	_, err := s.Capture(ctx)
	require.NoError(t, err)
	_, err = s.Stop()
	require.NoError(t, err)

	require.NoError(t, s.Start("b2"))
	assert.Zero(t, s.Status().ScreenshotCount)
}

func TestCaptureFailure(t *testing.T) {
	tests := []struct {
		name     string
		capturer screenshot.Capturer
		wantErr  error
	}{
		{
			name: "capturer error",
			capturer: screenshot.CapturerFunc(func(context.Context) ([]byte, error) {
				return nil, screenshot.ErrUnsupported
			}),
			wantErr: screenshot.ErrUnsupported,
		},
		{
			name: "empty image",
			capturer: screenshot.CapturerFunc(func(context.Context) ([]byte, error) {
				return nil, nil
			}),
			wantErr: screenshot.ErrNoImage,
		},
		{
			name:     "no capturer",
			capturer: nil,
			wantErr:  ErrCaptureFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(tt.capturer)
			require.NoError(t, s.Start("b1"))

			_, err := s.Capture(context.Background())
			require.ErrorIs(t, err, ErrCaptureFailed)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, s.Status().ScreenshotCount)
		})
	}
}

func TestCaptureStoresCopy(t *testing.T) {
	img := []byte{1, 2, 3}
	s := NewSession(screenshot.CapturerFunc(func(context.Context) ([]byte, error) {
		return img, nil
	}))
	require.NoError(t, s.Start("b1"))

	got, err := s.Capture(context.Background())
	require.NoError(t, err)
	got[0] = 9

	shots, err := s.Stop()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, shots[0])
}

func TestStatusDuration(t *testing.T) {
	c, _ := fakeCapturer()
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	now := start
	s := NewSession(c, WithClock(func() time.Time { return now }))

	require.NoError(t, s.Start("brief-42"))
	now = start.Add(90 * time.Second)

	st := s.Status()
	assert.True(t, st.IsRecording)
	require.NotNil(t, st.BriefID)
	assert.Equal(t, "brief-42", *st.BriefID)
	assert.NotEmpty(t, st.SessionID)
	assert.Equal(t, int64(90), st.DurationSeconds)
}

func TestConcurrentStartSingleWinner(t *testing.T) {
	c, _ := fakeCapturer()
	s := NewSession(c)

	const n = 32
	var wg sync.WaitGroup
	var wins, losses atomic.Int32
	for i := 0; i < n; i++ {
		wg.Go(func() {
			err := s.Start("b")
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, ErrAlreadyRecording):
				losses.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(n-1), losses.Load())
}

func TestConcurrentCaptureDuringSession(t *testing.T) {
	c, _ := fakeCapturer()
	s := NewSession(c)
	require.NoError(t, s.Start("b1"))

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Go(func() {
			_, err := s.Capture(context.Background())
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	shots, err := s.Stop()
	require.NoError(t, err)
	assert.Len(t, shots, n)
}
