// Package subscription owns the local mirror of billing provider state: it
// upserts normalized webhook events into storage, maps provider products to
// application plans, and resolves the effective plan for a user with a
// refresh-on-stale check against the provider.
package subscription

import (
	"time"

	"github.com/google/uuid"

	"github.com/tradecardhq/tradecard/svc/billing"
)

// Plan identifiers. Anonymous is never stored; it is the plan reported for
// unauthenticated visitors.
const (
	PlanFree      = "free"
	PlanPro       = "pro"
	PlanAnonymous = "anonymous"
)

// Subscription is the locally persisted mirror of a provider subscription.
// One row per (user, provider); redelivered webhooks overwrite it in place.
type Subscription struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Provider          string
	ProviderSubID     string
	CustomerID        string
	Plan              string
	Status            billing.Status
	ProductID         string
	ProductName       string
	PriceID           string
	PeriodStart       *time.Time
	PeriodEnd         *time.Time
	CancelAtPeriodEnd bool
	Metadata          map[string]any
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// GrantsAccess reports whether this subscription currently entitles the user
// to its plan. Past due subscriptions keep access during the dunning window;
// canceled and unpaid ones do not.
func (s *Subscription) GrantsAccess() bool {
	return s.Status == billing.StatusActive || s.Status == billing.StatusPastDue
}

// Stale reports whether the local record should be refreshed from the
// provider before being trusted: the billing period has lapsed or the
// subscription left the active state.
func (s *Subscription) Stale(now time.Time) bool {
	if s.Status != billing.StatusActive {
		return true
	}
	return s.PeriodEnd != nil && s.PeriodEnd.Before(now)
}
