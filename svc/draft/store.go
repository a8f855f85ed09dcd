package draft

import (
	"context"

	"github.com/google/uuid"
)

// Store defines draft persistence.
type Store interface {
	// Create inserts a new draft.
	Create(ctx context.Context, d *Draft) error

	// Get returns a draft by ID. Returns ErrDraftNotFound if absent.
	Get(ctx context.Context, id uuid.UUID) (*Draft, error)

	// ListByUser returns the user's drafts, most recently updated first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Draft, error)

	// Update overwrites an existing draft.
	// Returns ErrDraftNotFound if the row does not exist.
	Update(ctx context.Context, d *Draft) error

	// Delete removes a draft. Returns ErrDraftNotFound if absent.
	Delete(ctx context.Context, id uuid.UUID) error
}
