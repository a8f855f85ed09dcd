// Package billing abstracts subscription billing providers behind a minimal
// capability interface. Providers handle all payment complexity through hosted
// checkouts and customer portals; this application only consumes normalized
// events and subscription snapshots.
package billing

import (
	"context"
	"net/http"
	"time"
)

// Provider identifiers. The active provider is selected by configuration;
// subscriptions remember which provider created them.
const (
	ProviderPolar        = "polar"
	ProviderLemonSqueezy = "lemonsqueezy"
	ProviderPaddle       = "paddle"
)

// Provider is the capability interface every billing integration implements.
// Implementations use the official SDK where one exists (Paddle) or the
// provider's HTTP API directly, and handle provider-specific quirks
// internally so callers only ever see normalized types.
type Provider interface {
	// Name returns the stable provider identifier used for storage and logging.
	Name() string

	// FetchSubscription returns the authoritative subscription state from the
	// provider. Used by the plan resolver to refresh stale local records.
	FetchSubscription(ctx context.Context, providerSubID string) (*Snapshot, error)

	// CreateCheckout creates a hosted checkout session.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error)

	// CreatePortalSession returns a pre-authenticated customer portal link
	// where users can update payment methods, cancel, or change plans.
	CreatePortalSession(ctx context.Context, customerID string) (*PortalLink, error)

	// ParseWebhook verifies the payload signature and returns the normalized
	// event. Returns ErrIgnoredEvent for payloads that are valid but are not
	// subscription events this application consumes.
	ParseWebhook(ctx context.Context, payload []byte, header http.Header) (*Event, error)
}

// Event is a normalized subscription webhook event.
type Event struct {
	ProviderEvent     string // original provider event name, for logging
	SubscriptionID    string
	Status            Status
	ProductID         string
	ProductName       string
	PriceID           string
	CustomerID        string
	CustomerEmail     string
	CustomerName      string
	PeriodStart       *time.Time
	PeriodEnd         *time.Time
	CancelAtPeriodEnd bool
	Raw               map[string]any // full provider data, persisted as opaque metadata
}

// Snapshot is the authoritative subscription state fetched from a provider.
type Snapshot struct {
	SubscriptionID    string
	Status            Status
	ProductID         string
	ProductName       string
	PriceID           string
	PeriodStart       *time.Time
	PeriodEnd         *time.Time
	CancelAtPeriodEnd bool
}

// CheckoutRequest contains data needed to create a checkout session.
type CheckoutRequest struct {
	PriceID    string // provider's price/product identifier
	Email      string // billing email to pre-fill
	SuccessURL string // redirect after successful payment
}

// CheckoutLink represents a hosted checkout session.
type CheckoutLink struct {
	URL       string
	SessionID string
}

// PortalLink represents a customer portal session.
type PortalLink struct {
	URL       string
	ExpiresAt time.Time
}

// Status is a provider-reported subscription status. Transitions are applied
// as blind overwrites of whatever the provider reports; no local state
// machine is enforced.
type Status string

const (
	StatusActive   Status = "active"
	StatusCanceled Status = "canceled"
	StatusPastDue  Status = "past_due"
	StatusUnpaid   Status = "unpaid"
)

// KnownStatus reports whether s is one of the four recognized statuses.
// Payloads carrying anything else are not subscription events for us.
func KnownStatus(s string) bool {
	switch Status(s) {
	case StatusActive, StatusCanceled, StatusPastDue, StatusUnpaid:
		return true
	}
	return false
}
