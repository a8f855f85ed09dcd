package user

import (
	"context"

	"github.com/google/uuid"
)

// Store defines the interface for user persistence.
type Store interface {
	// Get retrieves a user by id. Returns ErrUserNotFound if missing.
	Get(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByEmail retrieves a user by normalized email.
	// Returns ErrUserNotFound if missing.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Create inserts a new user. Returns ErrEmailTaken when the email
	// unique constraint is violated.
	Create(ctx context.Context, u *User) error

	// Update overwrites mutable fields (name, avatar) and bumps UpdatedAt.
	Update(ctx context.Context, u *User) error
}
