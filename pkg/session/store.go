package session

import "context"

// Store defines the interface for session persistence.
type Store interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// Get retrieves a session by token. Returns ErrSessionNotFound when the
	// token is unknown or the session has been evicted.
	Get(ctx context.Context, token string) (*Session, error)

	// Delete removes a session by token. Deleting an unknown token is a no-op.
	Delete(ctx context.Context, token string) error
}
