// internal/session/store.go
//
// Session store contract and in-memory driver.
//
// Context
//   Weft keeps only transient UI state between requests: the active team
//   selection, the post-login one-shot flag, and the caller's user id.  The
//   Store interface is the whole contract — durable within one browser
//   session and read-your-writes consistent, nothing more.
//
//   The in-memory driver backs tests and single-process dev runs.  The
//   Redis driver in redis.go is the production choice.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package session

import (
	"context"
	"sync"
)

// Well-known session keys.  The team resolver is the only writer of
// KeyActiveTeam; the dispatcher is the only consumer of the one-shot flag.
const (
	KeyActiveTeam        = "active_team"
	KeyJustAuthenticated = "just_authenticated"
	KeyUserID            = "user_id"
)

// Store persists string values per (session id, key).  Get returns ""
// with a nil error when the key is absent; Set overwrites whole values so
// concurrent writers race to last-write-wins without partial state.
type Store interface {
	Get(ctx context.Context, sid, key string) (string, error)
	Set(ctx context.Context, sid, key, value string) error
	Delete(ctx context.Context, sid, key string) error
}

//
// in-memory driver
//

// MemoryStore is a map-backed Store.  Safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]map[string]string)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, sid, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[sid][key], nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, sid, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.sessions[sid]
	if !ok {
		m = make(map[string]string, 4)
		s.sessions[sid] = m
	}
	m[key] = value
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, sid, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.sessions[sid]; ok {
		delete(m, key)
	}
	return nil
}

//
// package-level default
//

var (
	defaultMu    sync.RWMutex
	defaultStore Store = NewMemoryStore()
)

// Configure installs the process-wide store.  Called once from main; tests
// may swap in a fresh MemoryStore.
func Configure(s Store) {
	defaultMu.Lock()
	defaultStore = s
	defaultMu.Unlock()
}

// Default returns the process-wide store.
func Default() Store {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultStore
}
