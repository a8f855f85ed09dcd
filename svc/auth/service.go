package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"github.com/tradecardhq/tradecard/svc/user"
)

// Config holds provider-independent auth settings.
type Config struct {
	StateTTL     time.Duration `env:"OAUTH_STATE_TTL" envDefault:"10m"`
	VerifiedOnly bool          `env:"OAUTH_VERIFIED_ONLY" envDefault:"true"`
}

// UserDirectory is the subset of the user service the sign-in flow needs.
type UserDirectory interface {
	FindOrCreate(ctx context.Context, email, name, avatarURL string) (*user.User, error)
}

// Service drives the OAuth authorization-code flow across registered
// providers: it issues state tokens, validates callbacks, and resolves the
// local user.
type Service struct {
	adapters map[string]ProviderAdapter
	users    UserDirectory
	cfg      Config

	mu     sync.Mutex
	states map[string]stateEntry
	now    func() time.Time
}

type stateEntry struct {
	provider  string
	expiresAt time.Time
}

// NewService creates an auth service. Panics if no adapters or no user
// directory are provided.
func NewService(users UserDirectory, cfg Config, adapters ...ProviderAdapter) *Service {
	if users == nil {
		panic("auth: UserDirectory is required")
	}
	if len(adapters) == 0 {
		panic("auth: at least one ProviderAdapter is required")
	}
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = 10 * time.Minute
	}

	m := make(map[string]ProviderAdapter, len(adapters))
	for _, a := range adapters {
		m[a.ProviderID()] = a
	}
	return &Service{
		adapters: m,
		users:    users,
		cfg:      cfg,
		states:   make(map[string]stateEntry),
		now:      time.Now,
	}
}

// BeginSignIn issues a state token and returns the provider authorization
// URL to redirect the browser to.
func (s *Service) BeginSignIn(provider string) (string, error) {
	adapter, ok := s.adapters[provider]
	if !ok {
		return "", ErrUnknownProvider
	}

	state, err := newStateToken()
	if err != nil {
		return "", errors.Join(ErrFailedToAuthorize, err)
	}

	s.mu.Lock()
	s.states[state] = stateEntry{provider: provider, expiresAt: s.now().Add(s.cfg.StateTTL)}
	s.evictExpiredLocked()
	s.mu.Unlock()

	return adapter.AuthURL(state), nil
}

// CompleteSignIn validates the callback state, exchanges the code, and
// finds or creates the local user by the provider-asserted email.
func (s *Service) CompleteSignIn(ctx context.Context, provider, state, code string) (*user.User, error) {
	adapter, ok := s.adapters[provider]
	if !ok {
		return nil, ErrUnknownProvider
	}

	if err := s.consumeState(provider, state); err != nil {
		return nil, err
	}

	profile, err := adapter.ResolveProfile(ctx, code)
	if err != nil {
		return nil, err
	}
	if s.cfg.VerifiedOnly && !profile.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	return s.users.FindOrCreate(ctx, profile.Email, profile.Name, profile.AvatarURL)
}

// consumeState validates and single-uses a state token. A token issued for
// one provider is not valid on another's callback.
func (s *Service) consumeState(provider, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.states[state]
	if !ok {
		return ErrInvalidState
	}
	delete(s.states, state)

	if entry.provider != provider || s.now().After(entry.expiresAt) {
		return ErrInvalidState
	}
	return nil
}

func (s *Service) evictExpiredLocked() {
	now := s.now()
	for state, entry := range s.states {
		if now.After(entry.expiresAt) {
			delete(s.states, state)
		}
	}
}

func newStateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
