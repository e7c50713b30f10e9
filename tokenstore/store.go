// Package tokenstore holds the most recently redeemed auth token.
package tokenstore

import "sync"

// Store is a single-slot token holder. The last Set wins.
type Store interface {
	Set(token string)
	Get() (string, bool)
	Close() error
}

// Memory keeps the token in process memory only.
type Memory struct {
	mu    sync.RWMutex
	token string
	set   bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Set overwrites the stored token.
func (m *Memory) Set(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.set = token, true
}

// Get returns the stored token, if any.
func (m *Memory) Get() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.set
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
