package draft

import "errors"

var (
	ErrDraftNotFound = errors.New("draft: not found")
	ErrNotOwner      = errors.New("draft: not owned by user")
	ErrEmptyTitle    = errors.New("draft: title is required")
)
