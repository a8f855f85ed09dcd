// Package account exposes OAuth sign-in, logout, and the current-user
// endpoint.
package account

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tradecardhq/tradecard/core"
	"github.com/tradecardhq/tradecard/pkg/logger"
	"github.com/tradecardhq/tradecard/pkg/session"
	"github.com/tradecardhq/tradecard/svc/auth"
	"github.com/tradecardhq/tradecard/svc/user"
)

// Config holds post-auth redirect targets.
type Config struct {
	SuccessRedirect string `env:"AUTH_SUCCESS_REDIRECT" envDefault:"/"`
	FailureRedirect string `env:"AUTH_FAILURE_REDIRECT" envDefault:"/login?error=auth_failed"`
}

// UserGetter loads a user by ID. Implemented by user.Service.
type UserGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Deps are the services the account module mounts.
type Deps struct {
	Auth     *auth.Service
	Sessions *session.Manager
	Users    UserGetter
	Log      *slog.Logger
}

// Router mounts OAuth sign-in routes. Panics on nil required dependencies.
func Router(deps Deps, cfg Config) chi.Router {
	if deps.Auth == nil {
		panic("account: auth.Service is required")
	}
	if deps.Sessions == nil {
		panic("account: session.Manager is required")
	}
	if deps.Users == nil {
		panic("account: UserGetter is required")
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}

	r := chi.NewRouter()
	r.Get("/{provider}", handleBegin(deps))
	r.Get("/{provider}/callback", handleCallback(deps, cfg))
	r.Post("/logout", handleLogout(deps))
	r.Get("/me", handleMe(deps))
	return r
}

func handleBegin(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url, err := deps.Auth.BeginSignIn(chi.URLParam(r, "provider"))
		if err != nil {
			if errors.Is(err, auth.ErrUnknownProvider) {
				core.WriteError(w, core.ErrNotFound)
				return
			}
			core.WriteError(w, err)
			return
		}
		http.Redirect(w, r, url, http.StatusFound)
	}
}

// handleCallback finishes the OAuth flow and opens a session. Auth failures
// redirect back to the app rather than rendering a JSON error; this endpoint
// is only ever hit by a browser.
func handleCallback(deps Deps, cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider := chi.URLParam(r, "provider")
		u, err := deps.Auth.CompleteSignIn(r.Context(), provider,
			r.URL.Query().Get("state"), r.URL.Query().Get("code"))
		if err != nil {
			deps.Log.WarnContext(r.Context(), "oauth callback rejected",
				logger.Provider(provider), logger.Error(err))
			http.Redirect(w, r, cfg.FailureRedirect, http.StatusFound)
			return
		}

		if _, err := deps.Sessions.Authenticate(r.Context(), w, u.ID); err != nil {
			deps.Log.ErrorContext(r.Context(), "failed to open session", logger.Error(err))
			http.Redirect(w, r, cfg.FailureRedirect, http.StatusFound)
			return
		}
		http.Redirect(w, r, cfg.SuccessRedirect, http.StatusFound)
	}
}

func handleLogout(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Sessions.Logout(r.Context(), w, r); err != nil {
			core.WriteError(w, err)
			return
		}
		core.WriteJSON(w, http.StatusOK, map[string]bool{"loggedOut": true})
	}
}

func handleMe(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := session.UserIDFromContext(r.Context())
		if !ok {
			core.WriteError(w, core.ErrUnauthorized)
			return
		}

		u, err := deps.Users.Get(r.Context(), userID)
		if err != nil {
			if errors.Is(err, user.ErrUserNotFound) {
				core.WriteError(w, core.ErrUnauthorized)
				return
			}
			core.WriteError(w, err)
			return
		}

		core.WriteJSON(w, http.StatusOK, map[string]any{
			"id":        u.ID,
			"email":     u.Email,
			"name":      u.Name,
			"avatarUrl": u.AvatarURL,
		})
	}
}
