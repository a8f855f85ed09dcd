package draft

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tradecardhq/tradecard/pkg/slug"
)

// Service enforces ownership and derives slugs on top of a Store. All
// operations act on behalf of a user; a draft is only visible to its owner.
type Service struct {
	store Store
}

// NewService creates a draft service backed by the given store.
func NewService(store Store) *Service {
	if store == nil {
		panic("draft: Store is required")
	}
	return &Service{store: store}
}

// CreateInput carries the caller-editable draft fields.
type CreateInput struct {
	Title       string
	Description string
	Price       string
	PhotoURLs   []string
}

// Create inserts a new draft for the user. The slug derives from the title.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*Draft, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	now := time.Now().UTC()
	d := &Draft{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Slug:        slug.Make(title, slug.MaxLength(80)),
		Description: in.Description,
		Price:       in.Price,
		PhotoURLs:   in.PhotoURLs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Get returns the user's draft. Drafts owned by someone else surface as
// ErrDraftNotFound rather than ErrNotOwner so IDs cannot be probed.
func (s *Service) Get(ctx context.Context, userID, draftID uuid.UUID) (*Draft, error) {
	d, err := s.store.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if d.UserID != userID {
		return nil, ErrDraftNotFound
	}
	return d, nil
}

// List returns the user's drafts, most recently updated first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*Draft, error) {
	return s.store.ListByUser(ctx, userID)
}

// Update overwrites the editable fields of the user's draft. A changed
// title re-derives the slug.
func (s *Service) Update(ctx context.Context, userID, draftID uuid.UUID, in CreateInput) (*Draft, error) {
	d, err := s.Get(ctx, userID, draftID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if title != d.Title {
		d.Slug = slug.Make(title, slug.MaxLength(80))
	}
	d.Title = title
	d.Description = in.Description
	d.Price = in.Price
	d.PhotoURLs = in.PhotoURLs
	d.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// SetCardContent stores generated card content on the user's draft.
func (s *Service) SetCardContent(ctx context.Context, userID, draftID uuid.UUID, content map[string]any) (*Draft, error) {
	d, err := s.Get(ctx, userID, draftID)
	if err != nil {
		return nil, err
	}
	d.CardContent = content
	d.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Delete removes the user's draft.
func (s *Service) Delete(ctx context.Context, userID, draftID uuid.UUID) error {
	if _, err := s.Get(ctx, userID, draftID); err != nil {
		return err
	}
	return s.store.Delete(ctx, draftID)
}
