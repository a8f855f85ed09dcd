package subscription

import (
	"context"

	"github.com/google/uuid"
)

// Store defines subscription persistence. Uniqueness is on (user_id,
// provider): a user holds at most one subscription per billing provider, and
// Upsert overwrites it in place so webhook redelivery is idempotent.
type Store interface {
	// Upsert inserts the subscription or overwrites the existing row for the
	// same (user_id, provider) pair. Returns the stored row.
	Upsert(ctx context.Context, sub *Subscription) (*Subscription, error)

	// Update overwrites an existing subscription by ID.
	// Returns ErrSubscriptionNotFound if the row does not exist.
	Update(ctx context.Context, sub *Subscription) error

	// LatestForUser returns the most recently created subscription that
	// still grants access (active or past_due).
	// Returns ErrSubscriptionNotFound if the user has none.
	LatestForUser(ctx context.Context, userID uuid.UUID) (*Subscription, error)

	// GetByProviderSubID returns the subscription with the given provider
	// subscription ID. Returns ErrSubscriptionNotFound if absent.
	GetByProviderSubID(ctx context.Context, provider, providerSubID string) (*Subscription, error)
}
