package storage

import (
	"context"
	"sync"

	"lyricfront/internal/session"
)

// Ensure MemoryStore implements the Store interface
var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process session store for development and tests.
// Sessions do not survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]session.Session
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]session.Session),
	}
}

// GetSession returns a copy of the stored session
func (m *MemoryStore) GetSession(_ context.Context, id string) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

// PutSession stores a session, replacing any existing record for the key
func (m *MemoryStore) PutSession(_ context.Context, s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.ID] = *s
	return nil
}

// DeleteSession removes a session; deleting a missing session is not an error
func (m *MemoryStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// CountSessions reports the number of stored sessions
func (m *MemoryStore) CountSessions(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions), nil
}

// CleanupExpiredSessions removes sessions past their expiry
func (m *MemoryStore) CleanupExpiredSessions(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for id, s := range m.sessions {
		if s.Expired() {
			delete(m.sessions, id)
			count++
		}
	}
	return count, nil
}

// Close is a no-op for the memory store
func (m *MemoryStore) Close() error {
	return nil
}
