// Package cards exposes draft CRUD plus the quota-metered generate and
// export operations.
package cards

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tradecardhq/tradecard/core"
	"github.com/tradecardhq/tradecard/pkg/logger"
	"github.com/tradecardhq/tradecard/pkg/session"
	"github.com/tradecardhq/tradecard/svc/content"
	"github.com/tradecardhq/tradecard/svc/draft"
	"github.com/tradecardhq/tradecard/svc/export"
	"github.com/tradecardhq/tradecard/svc/quota"
)

// CardGenerator produces card content for a draft. Implemented by
// content.Service.
type CardGenerator interface {
	GenerateCard(ctx context.Context, d *draft.Draft) (map[string]any, error)
}

// CardExporter renders and uploads the card artifact. Implemented by
// export.Service.
type CardExporter interface {
	Export(ctx context.Context, d *draft.Draft) (*export.Artifact, error)
}

// QuotaConsumer atomically claims quota units. Implemented by quota.Service.
type QuotaConsumer interface {
	Consume(ctx context.Context, id quota.Identity, rawFeature, periodYM string) (*quota.Result, error)
	CurrentPeriod() string
}

// Deps are the services the cards module mounts.
type Deps struct {
	Drafts    *draft.Service
	Generator CardGenerator
	Exporter  CardExporter
	Quotas    QuotaConsumer
	Log       *slog.Logger
}

// Router mounts draft endpoints. All routes require authentication.
func Router(deps Deps) chi.Router {
	if deps.Drafts == nil {
		panic("cards: draft.Service is required")
	}
	if deps.Generator == nil {
		panic("cards: CardGenerator is required")
	}
	if deps.Exporter == nil {
		panic("cards: CardExporter is required")
	}
	if deps.Quotas == nil {
		panic("cards: QuotaConsumer is required")
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}

	r := chi.NewRouter()
	r.Post("/", deps.handleCreate)
	r.Get("/", deps.handleList)
	r.Get("/{id}", deps.handleGet)
	r.Put("/{id}", deps.handleUpdate)
	r.Delete("/{id}", deps.handleDelete)
	r.Post("/{id}/generate", deps.handleGenerate)
	r.Post("/{id}/export", deps.handleExport)
	return r
}

type draftRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	PhotoURLs   []string `json:"photoUrls"`
}

func (in draftRequest) toInput() draft.CreateInput {
	return draft.CreateInput{
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		PhotoURLs:   in.PhotoURLs,
	}
}

type draftResponse struct {
	ID          uuid.UUID      `json:"id"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug"`
	Description string         `json:"description"`
	Price       string         `json:"price"`
	PhotoURLs   []string       `json:"photoUrls"`
	CardContent map[string]any `json:"cardContent,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func toResponse(d *draft.Draft) draftResponse {
	return draftResponse{
		ID:          d.ID,
		Title:       d.Title,
		Slug:        d.Slug,
		Description: d.Description,
		Price:       d.Price,
		PhotoURLs:   d.PhotoURLs,
		CardContent: d.CardContent,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// requireUser extracts the authenticated user or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := session.UserIDFromContext(r.Context())
	if !ok {
		core.WriteError(w, core.ErrUnauthorized)
	}
	return userID, ok
}

// parseID extracts the draft ID path parameter or writes a 404. Malformed
// IDs get the same response as unknown ones.
func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteError(w, core.ErrNotFound)
		return uuid.Nil, false
	}
	return id, true
}

func writeDraftError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, draft.ErrDraftNotFound):
		core.WriteError(w, core.ErrNotFound)
	case errors.Is(err, draft.ErrEmptyTitle):
		verr := core.NewValidationError()
		verr.Add("title", "title is required")
		core.WriteError(w, verr)
	default:
		core.WriteError(w, err)
	}
}

func (deps Deps) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req draftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.WriteError(w, core.ErrBadRequest)
		return
	}

	d, err := deps.Drafts.Create(r.Context(), userID, req.toInput())
	if err != nil {
		writeDraftError(w, err)
		return
	}
	core.WriteJSON(w, http.StatusCreated, toResponse(d))
}

func (deps Deps) handleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	drafts, err := deps.Drafts.List(r.Context(), userID)
	if err != nil {
		core.WriteError(w, err)
		return
	}

	out := make([]draftResponse, 0, len(drafts))
	for _, d := range drafts {
		out = append(out, toResponse(d))
	}
	core.WriteJSON(w, http.StatusOK, out)
}

func (deps Deps) handleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	d, err := deps.Drafts.Get(r.Context(), userID, id)
	if err != nil {
		writeDraftError(w, err)
		return
	}
	core.WriteJSON(w, http.StatusOK, toResponse(d))
}

func (deps Deps) handleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req draftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.WriteError(w, core.ErrBadRequest)
		return
	}

	d, err := deps.Drafts.Update(r.Context(), userID, id, req.toInput())
	if err != nil {
		writeDraftError(w, err)
		return
	}
	core.WriteJSON(w, http.StatusOK, toResponse(d))
}

func (deps Deps) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := deps.Drafts.Delete(r.Context(), userID, id); err != nil {
		writeDraftError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGenerate claims one magicFill unit, generates card content, and
// stores it on the draft. The unit stays claimed even if generation fails;
// refunds would make the counter racy for no real user benefit.
func (deps Deps) handleGenerate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	d, err := deps.Drafts.Get(r.Context(), userID, id)
	if err != nil {
		writeDraftError(w, err)
		return
	}

	if !deps.consume(w, r, userID, "magicFill") {
		return
	}

	card, err := deps.Generator.GenerateCard(r.Context(), d)
	if err != nil {
		deps.Log.ErrorContext(r.Context(), "card generation failed",
			logger.UserID(userID.String()), logger.Error(err))
		core.WriteError(w, core.ErrBadGateway)
		return
	}

	d, err = deps.Drafts.SetCardContent(r.Context(), userID, id, card)
	if err != nil {
		writeDraftError(w, err)
		return
	}
	core.WriteJSON(w, http.StatusOK, toResponse(d))
}

func (deps Deps) handleExport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	d, err := deps.Drafts.Get(r.Context(), userID, id)
	if err != nil {
		writeDraftError(w, err)
		return
	}

	if !deps.consume(w, r, userID, "export") {
		return
	}

	artifact, err := deps.Exporter.Export(r.Context(), d)
	if err != nil {
		deps.Log.ErrorContext(r.Context(), "card export failed",
			logger.UserID(userID.String()), logger.Error(err))
		core.WriteError(w, core.ErrInternalServerError)
		return
	}
	core.WriteJSON(w, http.StatusOK, artifact)
}

// consume claims one unit of the feature for the user, writing the error
// response on refusal.
func (deps Deps) consume(w http.ResponseWriter, r *http.Request, userID uuid.UUID, feature string) bool {
	_, err := deps.Quotas.Consume(r.Context(), quota.UserIdentity(userID), feature, deps.Quotas.CurrentPeriod())
	switch {
	case err == nil:
		return true
	case errors.Is(err, quota.ErrQuotaExceeded):
		core.WriteError(w, core.NewHTTPError(http.StatusTooManyRequests, "quota_exceeded"))
	default:
		core.WriteError(w, err)
	}
	return false
}

// Assert the concrete services satisfy the module interfaces.
var (
	_ CardGenerator = (*content.Service)(nil)
	_ CardExporter  = (*export.Service)(nil)
	_ QuotaConsumer = (*quota.Service)(nil)
)
