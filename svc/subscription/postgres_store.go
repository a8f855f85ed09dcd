package subscription

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradecardhq/tradecard/pkg/pg"
)

const subscriptionColumns = `
	id, user_id, provider, provider_sub_id, customer_id, plan, status,
	product_id, product_name, price_id, period_start, period_end,
	cancel_at_period_end, metadata, created_at, updated_at`

// PostgresStore implements Store on top of a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed subscription store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Upsert relies on the unique index on (user_id, provider) so webhook
// redelivery and out-of-order updates collapse into a single row.
func (s *PostgresStore) Upsert(ctx context.Context, sub *Subscription) (*Subscription, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO subscriptions (
			id, user_id, provider, provider_sub_id, customer_id, plan, status,
			product_id, product_name, price_id, period_start, period_end,
			cancel_at_period_end, metadata, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now(), now())
		ON CONFLICT (user_id, provider) DO UPDATE SET
			provider_sub_id      = EXCLUDED.provider_sub_id,
			customer_id          = EXCLUDED.customer_id,
			plan                 = EXCLUDED.plan,
			status               = EXCLUDED.status,
			product_id           = EXCLUDED.product_id,
			product_name         = EXCLUDED.product_name,
			price_id             = EXCLUDED.price_id,
			period_start         = EXCLUDED.period_start,
			period_end           = EXCLUDED.period_end,
			cancel_at_period_end = EXCLUDED.cancel_at_period_end,
			metadata             = EXCLUDED.metadata,
			updated_at           = now()
		RETURNING `+subscriptionColumns,
		uuid.New(), sub.UserID, sub.Provider, sub.ProviderSubID, sub.CustomerID,
		sub.Plan, sub.Status, sub.ProductID, sub.ProductName, sub.PriceID,
		sub.PeriodStart, sub.PeriodEnd, sub.CancelAtPeriodEnd, sub.Metadata)
	return scanSubscription(row)
}

func (s *PostgresStore) Update(ctx context.Context, sub *Subscription) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE subscriptions SET
			plan = $2, status = $3, product_id = $4, product_name = $5,
			price_id = $6, period_start = $7, period_end = $8,
			cancel_at_period_end = $9, updated_at = now()
		WHERE id = $1`,
		sub.ID, sub.Plan, sub.Status, sub.ProductID, sub.ProductName,
		sub.PriceID, sub.PeriodStart, sub.PeriodEnd, sub.CancelAtPeriodEnd)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (s *PostgresStore) LatestForUser(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE user_id = $1 AND status IN ('active', 'past_due')
		ORDER BY created_at DESC
		LIMIT 1`, userID)
	return scanSubscription(row)
}

func (s *PostgresStore) GetByProviderSubID(ctx context.Context, provider, providerSubID string) (*Subscription, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE provider = $1 AND provider_sub_id = $2`, provider, providerSubID)
	return scanSubscription(row)
}

type pgxRow interface {
	Scan(dest ...any) error
}

func scanSubscription(row pgxRow) (*Subscription, error) {
	var sub Subscription
	err := row.Scan(
		&sub.ID, &sub.UserID, &sub.Provider, &sub.ProviderSubID, &sub.CustomerID,
		&sub.Plan, &sub.Status, &sub.ProductID, &sub.ProductName, &sub.PriceID,
		&sub.PeriodStart, &sub.PeriodEnd, &sub.CancelAtPeriodEnd, &sub.Metadata,
		&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}
