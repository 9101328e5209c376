package session

import (
	"context"
	"errors"
	"time"
)

// ErrIncomplete is returned by Validate when a stored record is missing
// required fields. Callers must treat the browser as anonymous rather than
// serving a partially-populated session.
var ErrIncomplete = errors.New("session record is missing required fields")

// Profile is the identity blob fetched from Spotify at login
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Product     string `json:"product"`
}

// Session binds a browser's cookie identity to the Spotify tokens and
// profile obtained during the OAuth callback. Exactly one exists per
// authenticated browser; it is created on callback, read on every
// authenticated request, and destroyed on logout or store expiry.
type Session struct {
	ID           string    `json:"id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Profile      Profile   `json:"profile"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Validate checks that a record read from storage is usable. Records
// missing the session ID or access token are rejected; the refresh token
// may legitimately be absent when Spotify did not issue one.
func (s *Session) Validate() error {
	if s.ID == "" || s.AccessToken == "" {
		return ErrIncomplete
	}
	return nil
}

// Expired reports whether the session has passed its expiry time
func (s *Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// AuthorizationState is the signed OAuth state parameter payload
type AuthorizationState struct {
	Nonce     string `json:"nonce"`
	ReturnURL string `json:"return_url"`
}

type contextKey struct{}

// WithSession returns a context carrying the resolved session
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the resolved session, or nil when the request is
// anonymous. A nil return is the explicit "no session" signal.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}
