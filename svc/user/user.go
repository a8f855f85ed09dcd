// Package user owns merchant account records. Users are created on first
// sign-in or on the first billing event that references their email, and are
// never deleted by application logic.
package user

import (
	"time"

	"github.com/google/uuid"
)

// User represents a merchant account.
type User struct {
	ID        uuid.UUID
	Email     string // unique, lowercase
	Name      string
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}
