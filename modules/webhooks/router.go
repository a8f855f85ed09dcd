// Package webhooks exposes the billing provider webhook endpoint.
package webhooks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tradecardhq/tradecard/core"
	"github.com/tradecardhq/tradecard/pkg/logger"
	"github.com/tradecardhq/tradecard/svc/billing"
)

// Providers cap payload sizes well below this; anything larger is abuse.
const maxPayloadBytes = 1 << 20

// WebhookHandler processes a verified billing webhook payload.
// Implemented by subscription.Service.
type WebhookHandler interface {
	HandleWebhook(ctx context.Context, payload []byte, header http.Header) error
}

// Router mounts the billing webhook endpoint.
func Router(handler WebhookHandler, log *slog.Logger) chi.Router {
	if handler == nil {
		panic("webhooks: WebhookHandler is required")
	}
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Post("/billing", handleBilling(handler, log))
	return r
}

// handleBilling acknowledges drops with 200 so the provider stops
// redelivering, rejects bad signatures with 401, and re-raises persistence
// failures as 500 so the provider retries once storage recovers.
func handleBilling(handler WebhookHandler, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
		if err != nil {
			core.WriteError(w, core.ErrBadRequest)
			return
		}

		err = handler.HandleWebhook(r.Context(), payload, r.Header)
		switch {
		case err == nil:
			core.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
		case errors.Is(err, billing.ErrInvalidSignature):
			log.WarnContext(r.Context(), "webhook signature rejected", logger.Error(err))
			core.WriteError(w, core.ErrUnauthorized)
		case errors.Is(err, billing.ErrInvalidPayload):
			core.WriteError(w, core.ErrBadRequest)
		default:
			log.ErrorContext(r.Context(), "webhook processing failed", logger.Error(err))
			core.WriteError(w, core.ErrInternalServerError)
		}
	}
}
