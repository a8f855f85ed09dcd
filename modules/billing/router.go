// Package billing exposes checkout and customer portal endpoints.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tradecardhq/tradecard/core"
	"github.com/tradecardhq/tradecard/pkg/session"
	billingsvc "github.com/tradecardhq/tradecard/svc/billing"
	"github.com/tradecardhq/tradecard/svc/subscription"
	"github.com/tradecardhq/tradecard/svc/user"
)

// Config holds checkout settings.
type Config struct {
	SuccessURL string `env:"BILLING_SUCCESS_URL,required"`
}

// Biller is the subscription-service surface this module uses.
type Biller interface {
	CreateCheckoutLink(ctx context.Context, email, priceID, successURL string) (*billingsvc.CheckoutLink, error)
	GetCustomerPortalLink(ctx context.Context, userID uuid.UUID) (*billingsvc.PortalLink, error)
}

// UserGetter loads a user by ID. Implemented by user.Service.
type UserGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Router mounts billing endpoints. All routes require authentication.
func Router(biller Biller, users UserGetter, cfg Config) chi.Router {
	if biller == nil {
		panic("billing: Biller is required")
	}
	if users == nil {
		panic("billing: UserGetter is required")
	}

	r := chi.NewRouter()
	r.Post("/checkout", handleCheckout(biller, users, cfg))
	r.Post("/portal", handlePortal(biller))
	return r
}

func handleCheckout(biller Biller, users UserGetter, cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := session.UserIDFromContext(r.Context())
		if !ok {
			core.WriteError(w, core.ErrUnauthorized)
			return
		}

		var req struct {
			PriceID string `json:"priceId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			core.WriteError(w, core.ErrBadRequest)
			return
		}
		if req.PriceID == "" {
			verr := core.NewValidationError()
			verr.Add("priceId", "priceId is required")
			core.WriteError(w, verr)
			return
		}

		u, err := users.Get(r.Context(), userID)
		if err != nil {
			core.WriteError(w, err)
			return
		}

		link, err := biller.CreateCheckoutLink(r.Context(), u.Email, req.PriceID, cfg.SuccessURL)
		if err != nil {
			if errors.Is(err, billingsvc.ErrProviderUnavailable) {
				core.WriteError(w, core.ErrBadGateway)
				return
			}
			core.WriteError(w, err)
			return
		}

		core.WriteJSON(w, http.StatusOK, map[string]string{"url": link.URL})
	}
}

func handlePortal(biller Biller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := session.UserIDFromContext(r.Context())
		if !ok {
			core.WriteError(w, core.ErrUnauthorized)
			return
		}

		link, err := biller.GetCustomerPortalLink(r.Context(), userID)
		if err != nil {
			switch {
			case errors.Is(err, subscription.ErrSubscriptionNotFound):
				core.WriteError(w, core.ErrNotFound)
			case errors.Is(err, billingsvc.ErrProviderUnavailable):
				core.WriteError(w, core.ErrBadGateway)
			default:
				core.WriteError(w, err)
			}
			return
		}

		core.WriteJSON(w, http.StatusOK, map[string]string{"url": link.URL})
	}
}
