package storage

import (
	"context"
	"errors"

	"lyricfront/internal/session"
)

// ErrSessionNotFound is returned when a session doesn't exist
var ErrSessionNotFound = errors.New("session not found")

// Store is the durable key -> session mapping behind the session resolver.
// Only the resolver and the OAuth callback handler write to it; everything
// else performs read-only lookups scoped to one session key at a time.
// Implementations must provide per-key atomicity; last-write-wins on
// concurrent updates is acceptable since each browser owns one session.
type Store interface {
	GetSession(ctx context.Context, id string) (*session.Session, error)
	PutSession(ctx context.Context, s *session.Session) error
	DeleteSession(ctx context.Context, id string) error

	// CountSessions reports the number of stored sessions, expired or not
	CountSessions(ctx context.Context) (int, error)

	// CleanupExpiredSessions removes sessions past their expiry and
	// returns how many were deleted
	CleanupExpiredSessions(ctx context.Context) (int, error)

	Close() error
}
