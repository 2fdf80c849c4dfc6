package fsm

import (
	"context"
	"errors"
	"sync"
)

// ErrStoreUnavailable marks store failures that must stop a flow instead of
// letting it guess state.
var ErrStoreUnavailable = errors.New("fsm: session store unavailable")

// Store persists sessions between events. Get returns (nil, nil) when the
// user has no active session.
type Store interface {
	Get(ctx context.Context, userID int64) (*Session, error)
	Set(ctx context.Context, session *Session) error
	Delete(ctx context.Context, userID int64) error
}

// MemoryStore is an in-process Store for tests and development.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]*Session)}
}

// Get returns the stored session for a user, or nil if absent.
func (m *MemoryStore) Get(_ context.Context, userID int64) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[userID]; ok {
		return s, nil
	}
	return nil, nil
}

// Set stores the session keyed by its user id.
func (m *MemoryStore) Set(_ context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.UserID] = session
	return nil
}

// Delete removes the session for a user.
func (m *MemoryStore) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}
