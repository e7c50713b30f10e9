// Package hotkey registers the global capture shortcut.
package hotkey

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	hook "github.com/robotn/gohook"
)

// ErrRunning is returned when Start is called twice.
var ErrRunning = errors.New("hotkey manager already running")

// debounce suppresses key-repeat while the combo is held.
const debounce = 500 * time.Millisecond

var modifiers = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"shift":   "shift",
	"alt":     "alt",
	"option":  "alt",
	"cmd":     "cmd",
	"command": "cmd",
	"super":   "cmd",
	"meta":    "cmd",
}

// ParseCombo converts an accelerator such as "CmdOrCtrl+Shift+S" into
// gohook key names for goos: the key first, then its modifiers.
func ParseCombo(combo, goos string) ([]string, error) {
	var key string
	var mods []string
	seen := make(map[string]bool)

	for part := range strings.SplitSeq(combo, "+") {
		p := strings.ToLower(strings.TrimSpace(part))
		if p == "" {
			return nil, fmt.Errorf("invalid hotkey %q: empty key", combo)
		}

		if p == "cmdorctrl" || p == "commandorcontrol" {
			p = "ctrl"
			if goos == "darwin" {
				p = "cmd"
			}
		}
		if m, ok := modifiers[p]; ok {
			if !seen[m] {
				seen[m] = true
				mods = append(mods, m)
			}
			continue
		}

		if key != "" {
			return nil, fmt.Errorf("invalid hotkey %q: more than one key", combo)
		}
		key = p
	}

	if key == "" {
		return nil, fmt.Errorf("invalid hotkey %q: no key", combo)
	}
	return append([]string{key}, mods...), nil
}

// Manager owns the global keyboard hook.
type Manager struct {
	keys      []string
	onTrigger func()

	mu      sync.Mutex
	running bool
	done    chan bool

	last atomic.Int64
}

// New creates a Manager for combo that calls onTrigger on every press.
func New(combo string, onTrigger func()) (*Manager, error) {
	keys, err := ParseCombo(combo, runtime.GOOS)
	if err != nil {
		return nil, err
	}
	return &Manager{keys: keys, onTrigger: onTrigger}, nil
}

// Keys returns the gohook key names the manager listens for.
func (m *Manager) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Start installs the hook. The callback runs on the hook goroutine, so
// onTrigger should not block.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return ErrRunning
	}

	hook.Register(hook.KeyDown, m.keys, func(hook.Event) {
		m.fire(time.Now())
	})
	m.done = hook.Process(hook.Start())
	m.running = true

	slog.Info("hotkey registered", "keys", strings.Join(m.keys, "+"))
	return nil
}

// Stop removes the hook. Safe to call when not running.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	hook.End()
	select {
	case <-m.done:
	case <-time.After(time.Second):
		slog.Warn("hotkey hook did not exit")
	}
	m.running = false
	m.done = nil
}

func (m *Manager) fire(now time.Time) bool {
	last := m.last.Load()
	if last != 0 && now.Sub(time.Unix(0, last)) < debounce {
		return false
	}
	if !m.last.CompareAndSwap(last, now.UnixNano()) {
		return false
	}
	if m.onTrigger != nil {
		m.onTrigger()
	}
	return true
}
