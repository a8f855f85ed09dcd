package quota

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradecardhq/tradecard/pkg/pg"
)

// featureColumns maps features to their counter columns. Column names are
// interpolated into SQL, so they come from this fixed table only.
var featureColumns = map[Feature]string{
	FeaturePhotos:    "photos_processed",
	FeatureMagicFill: "magic_fill_count",
	FeatureExport:    "export_count",
}

// PostgresStore implements Store on top of a pgx connection pool. User
// counters live in usage_stats and anonymous counters in ip_quotas; the
// tables are shaped identically apart from their identity column.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed usage store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, id Identity, periodYM string) (Usage, error) {
	var (
		query string
		arg   any
	)
	if id.IsAnonymous() {
		query = `
			SELECT photos_processed, magic_fill_count, export_count
			FROM ip_quotas WHERE ip_address = $1 AND period_ym = $2`
		arg = id.IP
	} else {
		query = `
			SELECT photos_processed, magic_fill_count, export_count
			FROM usage_stats WHERE user_id = $1 AND period_ym = $2`
		arg = id.UserID
	}

	var u Usage
	err := s.pool.QueryRow(ctx, query, arg, periodYM).Scan(
		&u.PhotosProcessed, &u.MagicFillCount, &u.ExportCount)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return Usage{}, nil
		}
		return Usage{}, errors.Join(ErrFailedToQuery, err)
	}
	return u, nil
}

// Increment performs the claim as a single conditional upsert: the insert
// arm covers the first consumption of a period, and the update arm only
// fires while the counter is under the limit. No row back means the limit
// was already reached and nothing changed.
func (s *PostgresStore) Increment(ctx context.Context, id Identity, periodYM string, feature Feature, limit int64) (int64, error) {
	col, ok := featureColumns[feature]
	if !ok {
		return 0, ErrInvalidFeature
	}

	var (
		table, idCol string
		arg          any
	)
	if id.IsAnonymous() {
		table, idCol, arg = "ip_quotas", "ip_address", id.IP
	} else {
		table, idCol, arg = "usage_stats", "user_id", id.UserID
	}

	query := fmt.Sprintf(`
		INSERT INTO %[1]s AS q (id, %[2]s, period_ym, %[3]s, created_at, updated_at)
		VALUES ($1, $2, $3, 1, now(), now())
		ON CONFLICT (%[2]s, period_ym) DO UPDATE
			SET %[3]s = q.%[3]s + 1, updated_at = now()
			WHERE $4::bigint = -1 OR q.%[3]s < $4::bigint
		RETURNING %[3]s`, table, idCol, col)

	var current int64
	err := s.pool.QueryRow(ctx, query, uuid.New(), arg, periodYM, limit).Scan(&current)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return 0, ErrQuotaExceeded
		}
		return 0, errors.Join(ErrFailedToQuery, err)
	}
	return current, nil
}
