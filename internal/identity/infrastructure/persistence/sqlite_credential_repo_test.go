package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/minilingo/minilingo/internal/identity/domain"
)

func newTestRepo(t *testing.T) *SQLiteCredentialRepository {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	repo := NewSQLiteCredentialRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func TestSQLiteCredentialRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	userID := uuid.New()

	require.NoError(t, repo.Save(ctx, domain.Credentials{UserID: userID, Token: "tok-1"}))

	creds, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, userID, creds.UserID)
	require.Equal(t, "tok-1", creds.Token)
}

func TestSQLiteCredentialRepository_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Save(ctx, domain.Credentials{UserID: uuid.New(), Token: "old"}))

	userID := uuid.New()
	require.NoError(t, repo.Save(ctx, domain.Credentials{UserID: userID, Token: "new"}))

	creds, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, userID, creds.UserID)
	require.Equal(t, "new", creds.Token)
}

func TestSQLiteCredentialRepository_LoadWithoutRows(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Load(context.Background())
	require.ErrorIs(t, err, domain.ErrNoSession)
}

func TestSQLiteCredentialRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Save(ctx, domain.Credentials{UserID: uuid.New(), Token: "tok"}))
	require.NoError(t, repo.Delete(ctx))

	_, err := repo.Load(ctx)
	require.ErrorIs(t, err, domain.ErrNoSession)
}
