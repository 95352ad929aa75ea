// Package persistence stores checkout state on the device (SQLite) or,
// in sync mode, in Postgres.
package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	catalog "github.com/minilingo/minilingo/internal/catalog/domain"
	"github.com/minilingo/minilingo/internal/checkout/domain"
)

// SQLiteAttemptRepository records terminal purchase attempts in the local
// device database.
type SQLiteAttemptRepository struct {
	db *sql.DB
}

// NewSQLiteAttemptRepository creates the repository.
func NewSQLiteAttemptRepository(db *sql.DB) *SQLiteAttemptRepository {
	return &SQLiteAttemptRepository{db: db}
}

// Init creates the backing table if it does not exist.
func (r *SQLiteAttemptRepository) Init(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS purchase_attempts (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			product_id TEXT NOT NULL,
			language   TEXT NOT NULL,
			level      TEXT NOT NULL,
			state      TEXT NOT NULL,
			cause      TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)
	`)
	return err
}

// Save upserts a terminal attempt record.
func (r *SQLiteAttemptRepository) Save(ctx context.Context, record domain.AttemptRecord) error {
	query := `
		INSERT INTO purchase_attempts (id, user_id, product_id, language, level, state, cause, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			state = excluded.state,
			cause = excluded.cause
	`
	_, err := r.db.ExecContext(ctx, query,
		record.ID.String(),
		record.UserID.String(),
		record.ProductID,
		record.Language,
		string(record.Level),
		string(record.State),
		record.Cause,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// ListByUser returns all recorded attempts for a user, newest first.
func (r *SQLiteAttemptRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.AttemptRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, product_id, language, level, state, cause
		FROM purchase_attempts
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AttemptRecord
	for rows.Next() {
		var (
			rec          domain.AttemptRecord
			id, user     string
			level, state string
		)
		if err := rows.Scan(&id, &user, &rec.ProductID, &rec.Language, &level, &state, &rec.Cause); err != nil {
			return nil, err
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if rec.UserID, err = uuid.Parse(user); err != nil {
			return nil, err
		}
		rec.Level = catalog.LevelCode(level)
		rec.State = domain.AttemptState(state)
		out = append(out, rec)
	}
	return out, rows.Err()
}
