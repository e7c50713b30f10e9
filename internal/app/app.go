// Package app provides the core application service for Wails bindings.
package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"go.driftwork.dev/drift/authflow"
	"go.driftwork.dev/drift/config"
	"go.driftwork.dev/drift/hotkey"
	"go.driftwork.dev/drift/internal/types"
	"go.driftwork.dev/drift/recording"
	"go.driftwork.dev/drift/screenshot"
	"go.driftwork.dev/drift/tokenstore"

	"github.com/wailsapp/wails/v3/pkg/application"
)

// EmitFunc publishes an event to UI subscribers.
type EmitFunc func(name string, data any)

// Deps are the collaborators a Service runs against. Nil fields get the
// platform defaults.
type Deps struct {
	Capturer screenshot.Capturer
	Tokens   tokenstore.Store
	Emit     EmitFunc
}

// Service provides application functionality bound to Wails.
// Session state and the token store live here rather than in globals.
type Service struct {
	cfg *config.Config

	session   *recording.Session
	tokens    tokenstore.Store
	listener  *authflow.Listener
	deepLinks *authflow.DeepLinkHandler
	hotkey    *hotkey.Manager

	// UI references - set via Init
	app    *application.App
	window application.Window
	sink   EmitFunc

	// Cancelled on Shutdown; pending auth listeners exit with it.
	ctx    context.Context
	cancel context.CancelFunc

	version string
}

// New creates a new Service. Call Init() after Wails app is created.
func New(version string) *Service {
	return &Service{version: version}
}

// NewHeadless creates a Service that runs without a Wails application,
// e.g. for the CLI and tests.
func NewHeadless(version string, cfg *config.Config, deps Deps) (*Service, error) {
	s := New(version)
	if err := s.configure(cfg, deps); err != nil {
		return nil, err
	}
	return s, nil
}

// GetVersion returns the application version.
func (s *Service) GetVersion() string {
	return s.version
}

// Init initializes the service with app and window references.
// Must be called after Wails application is created.
func (s *Service) Init(app *application.App, window application.Window, cfg *config.Config) {
	s.app = app
	s.window = window

	deps := Deps{
		Capturer: screenshot.New(),
		Tokens:   OpenTokenStore(cfg),
		Emit: func(name string, data any) {
			app.Event.Emit(name, data)
		},
	}
	if err := s.configure(cfg, deps); err != nil {
		slog.Error("configure service", "error", err)
		// Fall back to defaults so the command surface stays usable.
		if err := s.configure(config.Default(), deps); err != nil {
			slog.Error("configure service with defaults", "error", err)
			return
		}
	}

	s.setupHotkey()
}

func (s *Service) configure(cfg *config.Config, deps Deps) error {
	if cfg == nil {
		cfg = config.Default()
	}
	if deps.Capturer == nil {
		deps.Capturer = screenshot.New()
	}
	if deps.Tokens == nil {
		deps.Tokens = tokenstore.NewMemory()
	}

	listener, err := authflow.NewListener(authflow.ListenerConfig{
		PortMin: cfg.PortMin,
		PortMax: cfg.PortMax,
		Timeout: cfg.CallbackTimeout(),
	}, s.redeem)
	if err != nil {
		return fmt.Errorf("create auth listener: %w", err)
	}

	s.cfg = cfg
	s.session = recording.NewSession(deps.Capturer)
	s.tokens = deps.Tokens
	s.sink = deps.Emit
	s.listener = listener
	s.deepLinks = authflow.NewDeepLinkHandler(cfg.DeepLinkScheme, s.redeem)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return nil
}

// OpenTokenStore returns the badger-backed store when cfg asks for a
// persisted token, and an in-memory store otherwise or on failure.
func OpenTokenStore(cfg *config.Config) tokenstore.Store {
	if !cfg.PersistToken {
		return tokenstore.NewMemory()
	}

	dir, err := cfg.TokenDir()
	if err != nil {
		slog.Error("get token dir", "error", err)
		return tokenstore.NewMemory()
	}
	store, err := tokenstore.Open(dir)
	if err != nil {
		slog.Error("open token store", "path", dir, "error", err)
		return tokenstore.NewMemory()
	}
	slog.Info("token store opened", "path", dir)
	return store
}

func (s *Service) setupHotkey() {
	if s.cfg.CaptureHotkey == "" {
		return
	}

	hk, err := hotkey.New(s.cfg.CaptureHotkey, func() {
		go s.QuickCapture()
	})
	if err != nil {
		slog.Error("parse capture hotkey", "hotkey", s.cfg.CaptureHotkey, "error", err)
		return
	}
	if err := hk.Start(); err != nil {
		slog.Error("start hotkey", "error", err)
		return
	}
	s.hotkey = hk
}

// QuickCapture takes a screenshot for the active session and pushes the
// new status to the UI. Used by the hotkey and the tray menu.
func (s *Service) QuickCapture() {
	if _, err := s.session.Capture(s.ctx); err != nil {
		slog.Error("quick capture", "error", err)
		return
	}
	if s.session.Active() {
		s.emit(EventRecordingState, s.session.Status())
	}
}

// Shutdown cleans up resources.
func (s *Service) Shutdown() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.hotkey != nil {
		s.hotkey.Stop()
	}
	if s.tokens != nil {
		if err := s.tokens.Close(); err != nil {
			slog.Error("close token store", "error", err)
		}
	}
}

// emit is a safe wrapper around the event sink.
func (s *Service) emit(name string, data any) {
	if s.sink != nil {
		s.sink(name, data)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Recording
// ─────────────────────────────────────────────────────────────────────────────

// GetRecordingStatus returns the current recording session status.
func (s *Service) GetRecordingStatus() types.RecordingStatus {
	return s.session.Status()
}

// StartRecording starts a session for the given brief.
func (s *Service) StartRecording(briefID string) error {
	if err := s.session.Start(briefID); err != nil {
		return err
	}
	slog.Info("recording started", "brief", briefID)
	s.emit(EventRecordingState, s.session.Status())
	return nil
}

// StopRecording ends the session and returns its screenshots as base64 PNGs.
func (s *Service) StopRecording() ([]string, error) {
	shots, err := s.session.Stop()
	if err != nil {
		return nil, err
	}
	slog.Info("recording stopped", "screenshots", len(shots))
	s.emit(EventRecordingState, s.session.Status())

	encoded := make([]string, len(shots))
	for i, img := range shots {
		encoded[i] = base64.StdEncoding.EncodeToString(img)
	}
	return encoded, nil
}

// CaptureScreenshot takes a screenshot and returns it as a base64 PNG. While
// recording, the image is also kept for the session.
func (s *Service) CaptureScreenshot() (string, error) {
	img, err := s.session.Capture(s.ctx)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(img), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Auth
// ─────────────────────────────────────────────────────────────────────────────

// SetAuthToken stores a token supplied by the frontend.
func (s *Service) SetAuthToken(token string) {
	s.tokens.Set(token)
}

// GetAuthToken returns the current token, or nil if none was redeemed.
func (s *Service) GetAuthToken() *string {
	token, ok := s.tokens.Get()
	if !ok {
		return nil
	}
	return &token
}

// StartAuthServer starts a one-shot loopback listener and returns its
// callback URL. The token arrives later as an auth-token event.
func (s *Service) StartAuthServer() (string, error) {
	a, err := s.StartAuthAttempt()
	if err != nil {
		return "", err
	}
	return a.CallbackURL, nil
}

// StartAuthAttempt is StartAuthServer for Go callers that need to wait for
// the listener to finish serving its page.
func (s *Service) StartAuthAttempt() (*authflow.Attempt, error) {
	a, err := s.listener.Start(s.ctx)
	if err != nil {
		return nil, fmt.Errorf("start auth server: %w", err)
	}
	return a, nil
}

// LoginURL returns the identity provider login page that redirects to
// callbackURL.
func (s *Service) LoginURL(callbackURL string) (string, error) {
	return authflow.LoginURL(s.cfg.AuthURL, callbackURL)
}

// HandleDeepLinks redeems tokens from OS-delivered custom-scheme URLs and
// brings the window forward when one was redeemed.
func (s *Service) HandleDeepLinks(urls []string) {
	if s.deepLinks.Handle(urls) > 0 {
		s.ShowWindow()
	}
}

// ShowWindow brings the main window to the front.
func (s *Service) ShowWindow() {
	if s.window != nil {
		s.window.Show()
		s.window.Focus()
	}
}

// DeepLinkScheme returns the custom URI scheme handled by the app.
func (s *Service) DeepLinkScheme() string {
	return s.deepLinks.Scheme()
}

func (s *Service) redeem(token string) {
	s.tokens.Set(token)
	s.emit(EventAuthToken, token)
}
