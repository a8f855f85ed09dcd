package draft

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradecardhq/tradecard/pkg/pg"
)

const draftColumns = `
	id, user_id, title, slug, description, price, photo_urls,
	card_content, created_at, updated_at`

// PostgresStore implements Store on top of a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed draft store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, d *Draft) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO drafts (id, user_id, title, slug, description, price,
			photo_urls, card_content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		d.ID, d.UserID, d.Title, d.Slug, d.Description, d.Price,
		d.PhotoURLs, d.CardContent, d.CreatedAt, d.UpdatedAt)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Draft, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+draftColumns+` FROM drafts WHERE id = $1`, id)
	return scanDraft(row)
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Draft, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+draftColumns+`
		FROM drafts WHERE user_id = $1
		ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, d *Draft) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE drafts SET
			title = $2, slug = $3, description = $4, price = $5,
			photo_urls = $6, card_content = $7, updated_at = $8
		WHERE id = $1`,
		d.ID, d.Title, d.Slug, d.Description, d.Price,
		d.PhotoURLs, d.CardContent, d.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDraftNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM drafts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDraftNotFound
	}
	return nil
}

func scanDraft(row pgx.Row) (*Draft, error) {
	var d Draft
	err := row.Scan(
		&d.ID, &d.UserID, &d.Title, &d.Slug, &d.Description, &d.Price,
		&d.PhotoURLs, &d.CardContent, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}
	return &d, nil
}
