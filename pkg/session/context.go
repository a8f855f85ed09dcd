package session

import (
	"context"

	"github.com/google/uuid"
)

type sessionContextKey struct{}

// SetToContext stores the session in context.
func SetToContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// FromContext retrieves the session from context.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*Session)
	return sess, ok
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	sess, ok := FromContext(ctx)
	if !ok || !sess.IsAuthenticated() {
		return uuid.Nil, false
	}
	return *sess.UserID, true
}
