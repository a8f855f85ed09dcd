package billing

import "errors"

var (
	// ErrIgnoredEvent signals a valid payload that is not a subscription
	// event this application consumes. Callers acknowledge and discard it.
	ErrIgnoredEvent = errors.New("billing: event ignored")

	// ErrMissingCustomerEmail signals a subscription event that cannot be
	// attributed to a user. Callers log a warning and acknowledge it.
	ErrMissingCustomerEmail = errors.New("billing: customer email missing")

	ErrInvalidSignature     = errors.New("billing: invalid webhook signature")
	ErrInvalidPayload       = errors.New("billing: invalid webhook payload")
	ErrSubscriptionNotFound = errors.New("billing: subscription not found")
	ErrProviderUnavailable  = errors.New("billing: provider request failed")
	ErrUnknownProvider      = errors.New("billing: unknown provider")
)
