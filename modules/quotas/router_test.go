package quotas_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecardhq/tradecard/modules/quotas"
	"github.com/tradecardhq/tradecard/pkg/session"
	"github.com/tradecardhq/tradecard/svc/quota"
)

// stubResolver pins every user to the free plan.
type stubResolver struct{}

func (stubResolver) PlanForUser(context.Context, uuid.UUID, bool) string {
	return quota.PlanFree
}

func newQuotaService(t *testing.T) *quota.Service {
	t.Helper()
	svc, err := quota.NewService(context.Background(), quota.DefaultPlans(),
		quota.NewMemoryStore(), stubResolver{}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return svc
}

func getQuota(t *testing.T, svc *quota.Service, target string, userID *uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	r := quotas.Router(svc)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = "203.0.113.9:4242"
	if userID != nil {
		sess := session.New("tok", userID, time.Hour)
		req = req.WithContext(session.SetToContext(req.Context(), sess))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Quota(t *testing.T) {
	t.Parallel()

	t.Run("authenticated user gets flat response", func(t *testing.T) {
		t.Parallel()

		svc := newQuotaService(t)
		userID := uuid.New()
		rec := getQuota(t, svc, "/?feature=photos", &userID)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			IsAuthenticated bool   `json:"isAuthenticated"`
			Current         int64  `json:"current"`
			Limit           int64  `json:"limit"`
			Remaining       int64  `json:"remaining"`
			Feature         string `json:"feature"`
			Plan            string `json:"plan"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.IsAuthenticated)
		assert.EqualValues(t, 50, body.Limit)
		assert.EqualValues(t, 50, body.Remaining)
		assert.Equal(t, "photos", body.Feature)
		assert.Equal(t, "free", body.Plan)

		// The flat shape is not wrapped in the standard envelope.
		var envelope map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
		assert.NotContains(t, envelope, "data")
	})

	t.Run("anonymous caller gets anonymous plan", func(t *testing.T) {
		t.Parallel()

		rec := getQuota(t, newQuotaService(t), "/?feature=export", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"isAuthenticated":false`)
		assert.Contains(t, rec.Body.String(), `"plan":"anonymous"`)
	})

	t.Run("missing feature", func(t *testing.T) {
		t.Parallel()

		rec := getQuota(t, newQuotaService(t), "/", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("unknown feature", func(t *testing.T) {
		t.Parallel()

		rec := getQuota(t, newQuotaService(t), "/?feature=teleport", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}
