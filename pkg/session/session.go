// Package session provides cookie-based sessions backed by a pluggable store.
//
// The quota endpoints work for both authenticated and anonymous callers, so
// session resolution never fails a request: a missing or expired session just
// yields an unauthenticated context.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Session represents a user session.
type Session struct {
	ID        uuid.UUID  `json:"id"`
	Token     string     `json:"token"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	ExpiresAt time.Time  `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// New creates a session with the given token, optional user and TTL.
func New(token string, userID *uuid.UUID, ttl time.Duration) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.New(),
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

// IsAuthenticated returns true if the session belongs to a signed-in user.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.UserID != nil
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return s != nil && time.Now().After(s.ExpiresAt)
}
