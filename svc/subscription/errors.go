package subscription

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("subscription: not found")
	ErrFailedToUpsert       = errors.New("subscription: failed to upsert")
	ErrFailedToQuery        = errors.New("subscription: failed to query")
)
