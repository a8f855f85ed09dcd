package auth

import "errors"

var (
	ErrInvalidCode       = errors.New("auth: invalid authorization code")
	ErrInvalidState      = errors.New("auth: invalid or expired state token")
	ErrNoEmail           = errors.New("auth: provider returned no email")
	ErrEmailNotVerified  = errors.New("auth: provider email not verified")
	ErrUnknownProvider   = errors.New("auth: unknown provider")
	ErrFailedToAuthorize = errors.New("auth: authorization failed")
)
