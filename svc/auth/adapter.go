// Package auth implements OAuth sign-in with Google and GitHub. Provider
// protocol details stay behind a small adapter interface; the service layer
// owns state tokens, user find-or-create, and session issuance.
package auth

import "context"

// OAuth provider identifiers.
const (
	ProviderGoogle = "google"
	ProviderGithub = "github"
)

// ProviderAdapter abstracts provider-specific OAuth behavior. Implementations
// encapsulate the oauth2.Config, token exchange, and profile API calls.
type ProviderAdapter interface {
	// ProviderID returns a stable provider identifier, e.g. "google".
	ProviderID() string

	// AuthURL builds the provider authorization URL for the given state token.
	AuthURL(state string) string

	// ResolveProfile exchanges an authorization code and returns the
	// normalized profile. Exchange failures return ErrInvalidCode; a profile
	// without an email returns ErrNoEmail.
	ResolveProfile(ctx context.Context, code string) (Profile, error)
}

// Profile is the normalized user profile returned by a provider.
type Profile struct {
	ProviderUserID string
	Email          string
	EmailVerified  bool
	Name           string
	AvatarURL      string
}
