package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Config holds environment-driven session settings.
type Config struct {
	CookieName   string        `env:"SESSION_COOKIE_NAME" envDefault:"tc_session"`
	TTL          time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	CookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"true"`
}

// Manager issues, resolves, and revokes sessions via an HTTP cookie transport.
type Manager struct {
	store Store
	cfg   Config
}

// NewManager creates a session manager backed by the given store.
func NewManager(store Store, cfg Config) *Manager {
	if store == nil {
		panic("session: Store is required")
	}
	return &Manager{store: store, cfg: cfg}
}

// Authenticate creates a session bound to userID and sets the session cookie.
func (m *Manager) Authenticate(ctx context.Context, w http.ResponseWriter, userID uuid.UUID) (*Session, error) {
	sess := New(newToken(), &userID, m.cfg.TTL)
	if err := m.store.Create(ctx, sess); err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   m.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

// Resolve returns the session referenced by the request cookie.
// Returns ErrSessionNotFound for missing cookie, unknown token, or expiry.
func (m *Manager) Resolve(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrSessionNotFound
	}

	sess, err := m.store.Get(ctx, cookie.Value)
	if err != nil {
		return nil, err
	}
	if sess.IsExpired() {
		_ = m.store.Delete(ctx, sess.Token)
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Logout revokes the request's session and clears the cookie.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err == nil && cookie.Value != "" {
		if err := m.store.Delete(ctx, cookie.Value); err != nil {
			return err
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Middleware resolves the session once per request and stores it in context.
// Requests without a valid session proceed unauthenticated.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess, err := m.Resolve(r.Context(), r); err == nil {
			r = r.WithContext(SetToContext(r.Context(), sess))
		}
		next.ServeHTTP(w, r)
	})
}

// newToken returns a 256-bit random token, URL-safe base64 encoded.
func newToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic("session: failed to read random bytes: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
