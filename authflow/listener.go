package authflow

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultPortMin and DefaultPortMax bound the callback port, max exclusive.
	DefaultPortMin = 19000
	DefaultPortMax = 20000

	// DefaultTimeout is how long a listener waits for its single request.
	DefaultTimeout = 300 * time.Second

	// CallbackPath is the path advertised in the callback URL.
	CallbackPath = "/callback"

	shutdownTimeout = 5 * time.Second
)

//go:embed callback.html
var callbackPage []byte

// DeliverFunc receives a redeemed token.
type DeliverFunc func(token string)

// ListenerConfig configures a Listener. Zero fields take defaults.
type ListenerConfig struct {
	PortMin int
	PortMax int
	Timeout time.Duration
}

func (c ListenerConfig) withDefaults() ListenerConfig {
	if c.PortMin == 0 && c.PortMax == 0 {
		c.PortMin, c.PortMax = DefaultPortMin, DefaultPortMax
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

func (c ListenerConfig) validate() error {
	if c.PortMin <= 0 || c.PortMax > 65536 || c.PortMin >= c.PortMax {
		return fmt.Errorf("invalid callback port range [%d, %d)", c.PortMin, c.PortMax)
	}
	return nil
}

// Listener starts one-shot loopback HTTP servers that redeem a single
// callback each.
type Listener struct {
	cfg     ListenerConfig
	deliver DeliverFunc
}

// NewListener creates a Listener that hands redeemed tokens to deliver.
func NewListener(cfg ListenerConfig, deliver DeliverFunc) (*Listener, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Listener{cfg: cfg, deliver: deliver}, nil
}

// Attempt is one pending redemption. It ends after its first request, when
// its deadline passes, or when the context given to Start is cancelled.
type Attempt struct {
	ID          string
	Port        uint16
	CallbackURL string
	Deadline    time.Time

	mu    sync.Mutex
	token string
	ok    bool
	done  chan struct{}
}

// Done is closed once the background server has exited and released its port.
func (a *Attempt) Done() <-chan struct{} {
	return a.done
}

// Token returns the token redeemed by this attempt, if any. It is only
// meaningful after Done is closed.
func (a *Attempt) Token() (string, bool) {
	select {
	case <-a.done:
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.token, a.ok
	default:
		return "", false
	}
}

// PickPort returns a port chosen uniformly from [lo, hi). An empty range
// yields lo.
func PickPort(lo, hi int) uint16 {
	if hi <= lo {
		return uint16(lo)
	}
	return uint16(lo + rand.IntN(hi-lo))
}

// Start picks a port, returns the attempt carrying its callback URL, and
// serves the callback in the background. It never blocks on the network.
func (l *Listener) Start(ctx context.Context) (*Attempt, error) {
	port := PickPort(l.cfg.PortMin, l.cfg.PortMax)
	a := &Attempt{
		ID:          uuid.NewString(),
		Port:        port,
		CallbackURL: fmt.Sprintf("http://localhost:%d%s", port, CallbackPath),
		Deadline:    time.Now().Add(l.cfg.Timeout),
		done:        make(chan struct{}),
	}

	go l.serve(ctx, a)
	return a, nil
}

func (l *Listener) serve(ctx context.Context, a *Attempt) {
	defer close(a.done)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("auth listener panic", "attempt", a.ID, "panic", r)
		}
	}()

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(int(a.Port)))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		slog.Error("bind auth listener", "attempt", a.ID, "addr", addr, "error", err)
		return
	}
	slog.Info("auth listener started", "attempt", a.ID, "addr", addr, "deadline", a.Deadline)

	received := make(chan struct{})
	var first sync.Once
	srv := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handled := false
			first.Do(func() {
				handled = true
				defer close(received)
				l.redeem(a, r)
				writeCallbackPage(w)
			})
			if !handled {
				http.Error(w, "callback already used", http.StatusGone)
			}
		}),
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	timer := time.NewTimer(time.Until(a.Deadline))
	defer timer.Stop()

	select {
	case <-received:
	case <-timer.C:
		slog.Info("auth listener timed out", "attempt", a.ID)
	case <-ctx.Done():
		slog.Info("auth listener cancelled", "attempt", a.ID, "error", ctx.Err())
	case err := <-serveErr:
		slog.Error("serve auth listener", "attempt", a.ID, "error", err)
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("shutdown auth listener", "attempt", a.ID, "error", err)
		_ = srv.Close()
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Warn("serve auth listener", "attempt", a.ID, "error", err)
	}
	slog.Info("auth listener stopped", "attempt", a.ID)
}

func (l *Listener) redeem(a *Attempt, r *http.Request) {
	token, ok := ParseToken(r.URL.RequestURI())
	if !ok {
		slog.Warn("auth callback without token", "attempt", a.ID, "path", r.URL.Path)
		return
	}

	a.mu.Lock()
	a.token, a.ok = token, true
	a.mu.Unlock()
	slog.Info("auth token received", "attempt", a.ID, "channel", "listener")
	if l.deliver == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("deliver auth token", "attempt", a.ID, "panic", r)
		}
	}()
	l.deliver(token)
}

func writeCallbackPage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(callbackPage)
}
