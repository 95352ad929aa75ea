// Package persistence stores session credentials in the local device
// database.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/minilingo/minilingo/internal/identity/domain"
)

const (
	keyUserID    = "user_id"
	keyAuthToken = "auth_token"
)

// SQLiteCredentialRepository persists the auth token and user ID as
// opaque key/value rows.
type SQLiteCredentialRepository struct {
	db *sql.DB
}

// NewSQLiteCredentialRepository creates the repository.
func NewSQLiteCredentialRepository(db *sql.DB) *SQLiteCredentialRepository {
	return &SQLiteCredentialRepository{db: db}
}

// Init creates the backing table if it does not exist.
func (r *SQLiteCredentialRepository) Init(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS session_credentials (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	return err
}

// Save upserts both credential rows.
func (r *SQLiteCredentialRepository) Save(ctx context.Context, creds domain.Credentials) error {
	now := time.Now().UTC().Format(time.RFC3339)
	query := `
		INSERT INTO session_credentials (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, keyUserID, creds.UserID.String(), now); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, query, keyAuthToken, creds.Token, now)
	return err
}

// Load returns the persisted credentials, or ErrNoSession when none are
// stored.
func (r *SQLiteCredentialRepository) Load(ctx context.Context) (domain.Credentials, error) {
	var creds domain.Credentials

	var rawUser string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM session_credentials WHERE key = ?`, keyUserID,
	).Scan(&rawUser)
	if errors.Is(err, sql.ErrNoRows) {
		return creds, domain.ErrNoSession
	}
	if err != nil {
		return creds, err
	}

	if creds.UserID, err = uuid.Parse(rawUser); err != nil {
		return creds, err
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT value FROM session_credentials WHERE key = ?`, keyAuthToken,
	).Scan(&creds.Token)
	if errors.Is(err, sql.ErrNoRows) {
		return creds, domain.ErrNoSession
	}
	return creds, err
}

// Delete removes all credential rows.
func (r *SQLiteCredentialRepository) Delete(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM session_credentials`)
	return err
}
