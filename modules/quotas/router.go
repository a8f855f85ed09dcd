// Package quotas exposes the public quota report endpoint.
package quotas

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tradecardhq/tradecard/core"
	"github.com/tradecardhq/tradecard/pkg/clientip"
	"github.com/tradecardhq/tradecard/pkg/session"
	"github.com/tradecardhq/tradecard/svc/quota"
)

// QuotaReader reports usage standing without consuming anything.
// Implemented by quota.Service.
type QuotaReader interface {
	Check(ctx context.Context, id quota.Identity, rawFeature, periodYM string) (*quota.Result, error)
	CurrentPeriod() string
}

// Router mounts the quota endpoint.
func Router(quotas QuotaReader) chi.Router {
	if quotas == nil {
		panic("quotas: QuotaReader is required")
	}

	r := chi.NewRouter()
	r.Get("/", handleCheck(quotas))
	return r
}

// quotaResponse is the flat response shape the card builder frontend
// consumes. It is intentionally not wrapped in the standard envelope.
type quotaResponse struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	Current         int64  `json:"current"`
	Limit           int64  `json:"limit"`
	Remaining       int64  `json:"remaining"`
	Feature         string `json:"feature"`
	Plan            string `json:"plan"`
}

func handleCheck(quotas QuotaReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		feature := r.URL.Query().Get("feature")
		if feature == "" {
			verr := core.NewValidationError()
			verr.Add("feature", "feature query parameter is required")
			core.WriteError(w, verr)
			return
		}

		id := quota.AnonymousIdentity(clientip.GetIP(r))
		authenticated := false
		if userID, ok := session.UserIDFromContext(r.Context()); ok {
			id = quota.UserIdentity(userID)
			authenticated = true
		}

		res, err := quotas.Check(r.Context(), id, feature, quotas.CurrentPeriod())
		if err != nil {
			if errors.Is(err, quota.ErrInvalidFeature) {
				verr := core.NewValidationError()
				verr.Add("feature", "unknown feature")
				core.WriteError(w, verr)
				return
			}
			core.WriteError(w, err)
			return
		}

		core.WriteRaw(w, http.StatusOK, quotaResponse{
			IsAuthenticated: authenticated,
			Current:         res.Current,
			Limit:           res.Limit,
			Remaining:       res.Remaining,
			Feature:         feature,
			Plan:            res.Plan,
		})
	}
}
