package subscription

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tradecardhq/tradecard/pkg/logger"
	"github.com/tradecardhq/tradecard/svc/billing"
	"github.com/tradecardhq/tradecard/svc/user"
)

// UserDirectory is the subset of the user service the webhook pipeline
// needs: billing events arrive keyed by email, possibly before the customer
// ever signed in.
type UserDirectory interface {
	FindOrCreate(ctx context.Context, email, name, avatarURL string) (*user.User, error)
}

// Notifier receives subscription lifecycle changes, typically to send email.
// Notification failures never fail webhook processing.
type Notifier interface {
	SubscriptionChanged(ctx context.Context, email, name string, sub *Subscription) error
}

// Service processes billing webhooks into stored subscriptions and resolves
// the effective plan for users.
type Service struct {
	store    Store
	users    UserDirectory
	provider billing.Provider
	mapper   *PlanMapper
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time
}

// ServiceOption configures optional Service settings.
type ServiceOption func(*Service)

// WithNotifier registers a lifecycle notifier.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a subscription service. Panics if required dependencies
// are nil to fail fast during initialization.
func NewService(store Store, users UserDirectory, provider billing.Provider, mapper *PlanMapper, log *slog.Logger, opts ...ServiceOption) *Service {
	if store == nil {
		panic("subscription: Store is required")
	}
	if users == nil {
		panic("subscription: UserDirectory is required")
	}
	if provider == nil {
		panic("subscription: billing.Provider is required")
	}
	if mapper == nil {
		panic("subscription: PlanMapper is required")
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		store:    store,
		users:    users,
		provider: provider,
		mapper:   mapper,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleWebhook verifies, classifies, and applies a raw webhook payload.
//
// Ignored events and events without a customer email return nil so the
// provider marks the delivery successful and stops retrying; the provider
// has nothing better to send us on retry. Signature failures and storage
// failures return errors: the former so forged requests get rejected, the
// latter so the provider redelivers once storage recovers.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, header http.Header) error {
	ev, err := s.provider.ParseWebhook(ctx, payload, header)
	switch {
	case errors.Is(err, billing.ErrIgnoredEvent):
		s.log.InfoContext(ctx, "ignoring non-subscription webhook event",
			logger.Provider(s.provider.Name()))
		return nil
	case errors.Is(err, billing.ErrMissingCustomerEmail):
		s.log.WarnContext(ctx, "dropping subscription event without customer email",
			logger.Provider(s.provider.Name()))
		return nil
	case err != nil:
		return err
	}

	return s.ApplyEvent(ctx, ev)
}

// ApplyEvent upserts the subscription described by a normalized event.
// Redelivery is safe: the same event overwrites the same row.
func (s *Service) ApplyEvent(ctx context.Context, ev *billing.Event) error {
	u, err := s.users.FindOrCreate(ctx, ev.CustomerEmail, ev.CustomerName, "")
	if err != nil {
		return errors.Join(ErrFailedToUpsert, err)
	}

	sub := &Subscription{
		UserID:            u.ID,
		Provider:          s.provider.Name(),
		ProviderSubID:     ev.SubscriptionID,
		CustomerID:        ev.CustomerID,
		Plan:              s.mapper.Derive(ev.ProductID, ev.PriceID, ev.ProductName),
		Status:            ev.Status,
		ProductID:         ev.ProductID,
		ProductName:       ev.ProductName,
		PriceID:           ev.PriceID,
		PeriodStart:       ev.PeriodStart,
		PeriodEnd:         ev.PeriodEnd,
		CancelAtPeriodEnd: ev.CancelAtPeriodEnd,
		Metadata:          ev.Raw,
	}

	stored, err := s.store.Upsert(ctx, sub)
	if err != nil {
		return errors.Join(ErrFailedToUpsert, err)
	}

	s.log.InfoContext(ctx, "subscription upserted",
		logger.UserID(u.ID.String()),
		logger.Provider(stored.Provider),
		logger.SubscriptionID(stored.ProviderSubID),
		logger.EventType(ev.ProviderEvent),
		slog.String("plan", stored.Plan),
		slog.String("status", string(stored.Status)))

	if s.notifier != nil {
		if err := s.notifier.SubscriptionChanged(ctx, u.Email, u.Name, stored); err != nil {
			s.log.WarnContext(ctx, "subscription notification failed", logger.Error(err))
		}
	}
	return nil
}

// PlanForUser resolves the effective plan for a user. The most recently
// created subscription that still grants access wins; users without one are
// on the free plan. Stale records (lapsed period or non-active status) are
// refreshed from the provider first; if the provider is unreachable the
// stale record is trusted so billing outages never lock paying users out.
func (s *Service) PlanForUser(ctx context.Context, userID uuid.UUID, force bool) string {
	sub, err := s.store.LatestForUser(ctx, userID)
	if errors.Is(err, ErrSubscriptionNotFound) {
		return PlanFree
	}
	if err != nil {
		s.log.WarnContext(ctx, "subscription lookup failed, assuming free plan",
			logger.UserID(userID.String()), logger.Error(err))
		return PlanFree
	}

	if force || sub.Stale(s.now()) {
		sub = s.refresh(ctx, sub)
	}

	if !sub.GrantsAccess() {
		return PlanFree
	}
	return sub.Plan
}

// refresh pulls the authoritative state from the provider and persists it.
// On any failure it returns the stale record unchanged after logging.
func (s *Service) refresh(ctx context.Context, sub *Subscription) *Subscription {
	// A subscription created by a previously configured provider cannot be
	// refreshed through the active one; trust the local record.
	if sub.Provider != s.provider.Name() {
		return sub
	}

	snap, err := s.provider.FetchSubscription(ctx, sub.ProviderSubID)
	if err != nil {
		s.log.WarnContext(ctx, "subscription refresh failed, using stale record",
			logger.Provider(sub.Provider),
			logger.SubscriptionID(sub.ProviderSubID),
			logger.Error(err))
		return sub
	}

	sub.Status = snap.Status
	sub.PeriodStart = snap.PeriodStart
	sub.PeriodEnd = snap.PeriodEnd
	sub.CancelAtPeriodEnd = snap.CancelAtPeriodEnd
	if snap.ProductID != "" {
		sub.ProductID = snap.ProductID
	}
	if snap.ProductName != "" {
		sub.ProductName = snap.ProductName
	}
	if snap.PriceID != "" {
		sub.PriceID = snap.PriceID
	}
	sub.Plan = s.mapper.Derive(sub.ProductID, sub.PriceID, sub.ProductName)

	if err := s.store.Update(ctx, sub); err != nil {
		s.log.WarnContext(ctx, "failed to persist refreshed subscription",
			logger.SubscriptionID(sub.ProviderSubID), logger.Error(err))
	}
	return sub
}

// CreateCheckoutLink creates a hosted checkout session with the active
// provider, pre-filled with the user's billing email.
func (s *Service) CreateCheckoutLink(ctx context.Context, email, priceID, successURL string) (*billing.CheckoutLink, error) {
	return s.provider.CreateCheckout(ctx, billing.CheckoutRequest{
		PriceID:    priceID,
		Email:      email,
		SuccessURL: successURL,
	})
}

// GetCustomerPortalLink returns a portal link for the user's current
// subscription. Returns ErrSubscriptionNotFound if the user has none.
func (s *Service) GetCustomerPortalLink(ctx context.Context, userID uuid.UUID) (*billing.PortalLink, error) {
	sub, err := s.store.LatestForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.provider.CreatePortalSession(ctx, sub.CustomerID)
}
