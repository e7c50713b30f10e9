package tokenstore

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

var tokenKey = []byte("auth/token")

// Persistent mirrors the token into an embedded badger database so it
// survives restarts. Memory stays authoritative: a failed write is logged
// and Set still succeeds.
type Persistent struct {
	// setMu keeps memory and disk in the same order across concurrent Sets.
	setMu sync.Mutex
	mem   *Memory
	db    *badger.DB
}

// Open opens (or creates) the database at dir and loads any saved token.
// An empty dir opens an in-memory database.
func Open(dir string) (*Persistent, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open token db: %w", err)
	}

	p := &Persistent{mem: NewMemory(), db: db}
	token, found, err := p.load()
	if err != nil {
		db.Close()
		return nil, err
	}
	if found {
		p.mem.Set(token)
	}
	return p, nil
}

func (p *Persistent) load() (string, bool, error) {
	var token string
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(tokenKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			token = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load token: %w", err)
	}
	return token, true, nil
}

// Set overwrites the token in memory and on disk.
func (p *Persistent) Set(token string) {
	p.setMu.Lock()
	defer p.setMu.Unlock()

	p.mem.Set(token)

	err := p.db.Update(func(txn *badger.Txn) error {
		return txn.Set(tokenKey, []byte(token))
	})
	if err != nil {
		slog.Error("persist auth token", "error", err)
	}
}

// Get returns the current token.
func (p *Persistent) Get() (string, bool) {
	return p.mem.Get()
}

// Close flushes and closes the database.
func (p *Persistent) Close() error {
	if err := p.db.Close(); err != nil {
		return fmt.Errorf("close token db: %w", err)
	}
	return nil
}
