package quota

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// PlanResolver reports the effective plan for an authenticated user.
// Implemented by the subscription service.
type PlanResolver interface {
	PlanForUser(ctx context.Context, userID uuid.UUID, force bool) string
}

// Service is the quota accountant: it resolves the identity's plan, looks up
// the feature limit, and checks or consumes usage against it.
type Service struct {
	store    Store
	plans    map[string]Plan
	resolver PlanResolver
	log      *slog.Logger
	now      func() time.Time
}

// ServiceOption configures optional Service settings.
type ServiceOption func(*Service)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a quota service. Panics if required dependencies are
// nil to fail fast during initialization. Returns an error if the plan
// catalog fails to load or is incomplete.
func NewService(ctx context.Context, src PlanSource, store Store, resolver PlanResolver, log *slog.Logger, opts ...ServiceOption) (*Service, error) {
	if src == nil {
		panic("quota: PlanSource is required")
	}
	if store == nil {
		panic("quota: Store is required")
	}
	if resolver == nil {
		panic("quota: PlanResolver is required")
	}
	if log == nil {
		log = slog.Default()
	}

	plans, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := validatePlans(plans); err != nil {
		return nil, err
	}

	s := &Service{
		store:    store,
		plans:    plans,
		resolver: resolver,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CurrentPeriod returns the period key for now.
func (s *Service) CurrentPeriod() string {
	return PeriodYM(s.now())
}

// Check reports usage against the limit without consuming anything. The
// read is not serialized against concurrent consumes; callers wanting an
// admission decision use Consume.
func (s *Service) Check(ctx context.Context, id Identity, rawFeature, periodYM string) (*Result, error) {
	feature, err := MapFeature(rawFeature)
	if err != nil {
		return nil, err
	}

	plan, limit, err := s.limitFor(ctx, id, feature)
	if err != nil {
		return nil, err
	}

	usage, err := s.store.Get(ctx, id, periodYM)
	if err != nil {
		return nil, err
	}

	return buildResult(feature, plan, usage.Counter(feature), limit), nil
}

// Consume atomically claims one unit of the feature. On refusal it returns
// ErrQuotaExceeded alongside a Result describing the standing quota so
// handlers can render the same shape either way.
func (s *Service) Consume(ctx context.Context, id Identity, rawFeature, periodYM string) (*Result, error) {
	feature, err := MapFeature(rawFeature)
	if err != nil {
		return nil, err
	}

	plan, limit, err := s.limitFor(ctx, id, feature)
	if err != nil {
		return nil, err
	}

	// A zero limit means the plan does not include the feature at all; the
	// store's conditional insert cannot refuse a first row, so refuse here.
	if limit != Unlimited && limit <= 0 {
		return buildResult(feature, plan, 0, limit), ErrQuotaExceeded
	}

	current, err := s.store.Increment(ctx, id, periodYM, feature, limit)
	if errors.Is(err, ErrQuotaExceeded) {
		return buildResult(feature, plan, limit, limit), ErrQuotaExceeded
	}
	if err != nil {
		return nil, err
	}

	return buildResult(feature, plan, current, limit), nil
}

// limitFor resolves the identity's plan and the feature limit within it.
func (s *Service) limitFor(ctx context.Context, id Identity, feature Feature) (string, int64, error) {
	planName := PlanAnonymous
	if !id.IsAnonymous() {
		planName = s.resolver.PlanForUser(ctx, id.UserID, false)
	}

	plan, ok := s.plans[planName]
	if !ok {
		s.log.WarnContext(ctx, "plan missing from catalog", slog.String("plan", planName))
		return "", 0, ErrPlanNotFound
	}
	return planName, plan.Limits[feature], nil
}

func buildResult(feature Feature, plan string, current, limit int64) *Result {
	r := &Result{
		Feature: feature,
		Plan:    plan,
		Current: current,
		Limit:   limit,
	}
	if limit == Unlimited {
		r.Remaining = Unlimited
		r.Allowed = true
		return r
	}
	r.Remaining = limit - current
	if r.Remaining < 0 {
		r.Remaining = 0
	}
	r.Allowed = current < limit
	return r
}
