package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	catalog "github.com/minilingo/minilingo/internal/catalog/domain"
	"github.com/minilingo/minilingo/internal/checkout/domain"
)

// PostgresAttemptRepository records terminal purchase attempts in
// Postgres. Used in sync mode where attempt history is shared with the
// support tooling.
type PostgresAttemptRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAttemptRepository creates the repository.
func NewPostgresAttemptRepository(pool *pgxpool.Pool) *PostgresAttemptRepository {
	return &PostgresAttemptRepository{pool: pool}
}

// Init creates the backing table if it does not exist.
func (r *PostgresAttemptRepository) Init(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS purchase_attempts (
			id         UUID PRIMARY KEY,
			user_id    UUID NOT NULL,
			product_id TEXT NOT NULL,
			language   TEXT NOT NULL,
			level      TEXT NOT NULL,
			state      TEXT NOT NULL,
			cause      TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return err
}

// Save upserts a terminal attempt record.
func (r *PostgresAttemptRepository) Save(ctx context.Context, record domain.AttemptRecord) error {
	query := `
		INSERT INTO purchase_attempts (id, user_id, product_id, language, level, state, cause)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			cause = EXCLUDED.cause
	`
	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.UserID,
		record.ProductID,
		record.Language,
		string(record.Level),
		string(record.State),
		record.Cause,
	)
	return err
}

// ListByUser returns all recorded attempts for a user, newest first.
func (r *PostgresAttemptRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.AttemptRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, product_id, language, level, state, cause
		FROM purchase_attempts
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AttemptRecord
	for rows.Next() {
		var (
			rec          domain.AttemptRecord
			level, state string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.ProductID, &rec.Language, &level, &state, &rec.Cause); err != nil {
			return nil, err
		}
		rec.Level = catalog.LevelCode(level)
		rec.State = domain.AttemptState(state)
		out = append(out, rec)
	}
	return out, rows.Err()
}
