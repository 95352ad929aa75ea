package persistence

import (
	"context"
	"database/sql"

	catalog "github.com/minilingo/minilingo/internal/catalog/domain"
)

// SQLiteCartRepository snapshots the picked selection keys between CLI
// invocations. The snapshot is device-local, scoped to the session, and
// cleared on logout; entitlement state itself is never persisted.
// Restored keys always pass back through Selection.Restore, which drops
// anything the user has since become entitled to.
type SQLiteCartRepository struct {
	db *sql.DB
}

// NewSQLiteCartRepository creates the repository.
func NewSQLiteCartRepository(db *sql.DB) *SQLiteCartRepository {
	return &SQLiteCartRepository{db: db}
}

// Init creates the backing table if it does not exist.
func (r *SQLiteCartRepository) Init(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS cart_selections (
			language TEXT NOT NULL,
			level    TEXT NOT NULL,
			PRIMARY KEY (language, level)
		)
	`)
	return err
}

// Save replaces the snapshot with the given keys.
func (r *SQLiteCartRepository) Save(ctx context.Context, keys []catalog.Key) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_selections`); err != nil {
		return err
	}
	for _, key := range keys {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cart_selections (language, level) VALUES (?, ?)`,
			key.Language, string(key.Level),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Load returns the snapshot keys.
func (r *SQLiteCartRepository) Load(ctx context.Context) ([]catalog.Key, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT language, level FROM cart_selections`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Key
	for rows.Next() {
		var language, level string
		if err := rows.Scan(&language, &level); err != nil {
			return nil, err
		}
		out = append(out, catalog.Key{Language: language, Level: catalog.LevelCode(level)})
	}
	return out, rows.Err()
}

// Clear drops the snapshot. Called on logout.
func (r *SQLiteCartRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_selections`)
	return err
}
