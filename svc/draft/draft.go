// Package draft implements product draft management: the cards merchants
// assemble from photos, descriptions, and AI-generated content before
// exporting them.
package draft

import (
	"time"

	"github.com/google/uuid"
)

// Draft is a product card in progress. CardContent holds whatever the
// generation step produced and is treated as opaque by this package.
type Draft struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Title       string
	Slug        string
	Description string
	Price       string
	PhotoURLs   []string
	CardContent map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
