package cards_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecardhq/tradecard/modules/cards"
	"github.com/tradecardhq/tradecard/pkg/session"
	"github.com/tradecardhq/tradecard/svc/draft"
	"github.com/tradecardhq/tradecard/svc/export"
	"github.com/tradecardhq/tradecard/svc/quota"
)

type stubGenerator struct {
	card map[string]any
	err  error
}

func (s stubGenerator) GenerateCard(context.Context, *draft.Draft) (map[string]any, error) {
	return s.card, s.err
}

type stubExporter struct{}

func (stubExporter) Export(_ context.Context, d *draft.Draft) (*export.Artifact, error) {
	return &export.Artifact{PageURL: "https://cards.test/c/" + d.Slug}, nil
}

type stubQuota struct {
	exceeded bool
	consumed []string
}

func (s *stubQuota) Consume(_ context.Context, _ quota.Identity, rawFeature, _ string) (*quota.Result, error) {
	if s.exceeded {
		return nil, quota.ErrQuotaExceeded
	}
	s.consumed = append(s.consumed, rawFeature)
	return &quota.Result{Allowed: true, Current: 1}, nil
}

func (s *stubQuota) CurrentPeriod() string { return "2026-08" }

type fixture struct {
	router http.Handler
	drafts *draft.Service
	quotas *stubQuota
	userID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		drafts: draft.NewService(draft.NewMemoryStore()),
		quotas: &stubQuota{},
		userID: uuid.New(),
	}
	f.router = cards.Router(cards.Deps{
		Drafts:    f.drafts,
		Generator: stubGenerator{card: map[string]any{"headline": "Generated"}},
		Exporter:  stubExporter{},
		Quotas:    f.quotas,
		Log:       slog.New(slog.DiscardHandler),
	})
	return f
}

func (f *fixture) do(t *testing.T, method, target, body string, authenticated bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if authenticated {
		sess := session.New("tok", &f.userID, time.Hour)
		req = req.WithContext(session.SetToContext(req.Context(), sess))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) seedDraft(t *testing.T) *draft.Draft {
	t.Helper()
	d, err := f.drafts.Create(context.Background(), f.userID, draft.CreateInput{Title: "Lamp"})
	require.NoError(t, err)
	return d
}

func TestRouter_CRUD(t *testing.T) {
	t.Parallel()

	t.Run("create returns draft", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		rec := f.do(t, http.MethodPost, "/", `{"title":"Walnut Desk","price":"800.00"}`, true)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"slug":"walnut-desk"`)
	})

	t.Run("blank title is a validation error", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		rec := f.do(t, http.MethodPost, "/", `{"title":"  "}`, true)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("unauthenticated requests are rejected", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		rec := f.do(t, http.MethodGet, "/", "", false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("list returns own drafts only", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.seedDraft(t)
		_, err := f.drafts.Create(context.Background(), uuid.New(), draft.CreateInput{Title: "Other"})
		require.NoError(t, err)

		rec := f.do(t, http.MethodGet, "/", "", true)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Data []json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Len(t, body.Data, 1)
	})

	t.Run("malformed id reads as not found", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		rec := f.do(t, http.MethodGet, "/not-a-uuid", "", true)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		d := f.seedDraft(t)
		rec := f.do(t, http.MethodDelete, "/"+d.ID.String(), "", true)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = f.do(t, http.MethodGet, "/"+d.ID.String(), "", true)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRouter_Generate(t *testing.T) {
	t.Parallel()

	t.Run("consumes magicFill and stores content", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		d := f.seedDraft(t)

		rec := f.do(t, http.MethodPost, "/"+d.ID.String()+"/generate", "", true)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"headline":"Generated"`)
		assert.Equal(t, []string{"magicFill"}, f.quotas.consumed)
	})

	t.Run("quota exceeded", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		d := f.seedDraft(t)
		f.quotas.exceeded = true

		rec := f.do(t, http.MethodPost, "/"+d.ID.String()+"/generate", "", true)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Contains(t, rec.Body.String(), "quota_exceeded")
	})
}

func TestRouter_Export(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	d := f.seedDraft(t)

	rec := f.do(t, http.MethodPost, "/"+d.ID.String()+"/export", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://cards.test/c/lamp")
	assert.Equal(t, []string{"export"}, f.quotas.consumed)
}
