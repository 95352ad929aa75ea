package application

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	catalog "github.com/minilingo/minilingo/internal/catalog/domain"
	"github.com/minilingo/minilingo/internal/entitlements/domain"
)

type fakeHistoryClient struct {
	records []domain.Record
	err     error
	calls   int
}

func (f *fakeHistoryClient) PaidVideos(ctx context.Context, userID uuid.UUID) ([]domain.Record, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func TestStore_AddIsIdempotent(t *testing.T) {
	store := NewStore(&fakeHistoryClient{}, nil, nil)
	record := domain.Record{Language: "Hindi", Level: catalog.LevelJunior}

	for i := 0; i < 3; i++ {
		store.Add(record)
	}

	require.True(t, store.IsEntitled("Hindi", catalog.LevelJunior))
	require.Equal(t, 1, store.Len())
}

func TestStore_ClearEmptiesEverything(t *testing.T) {
	store := NewStore(&fakeHistoryClient{}, nil, nil)
	store.Add(domain.Record{Language: "Hindi", Level: catalog.LevelJunior})
	store.Add(domain.Record{Language: "Tamil", Level: catalog.LevelPreJunior})

	store.Clear()

	require.Equal(t, 0, store.Len())
	for _, o := range catalog.Offerings() {
		require.False(t, store.IsEntitled(o.Language, o.Level))
	}
}

func TestStore_RefreshReplacesWholeSet(t *testing.T) {
	history := &fakeHistoryClient{records: []domain.Record{
		{Language: "Telugu", Level: catalog.LevelJunior},
	}}
	store := NewStore(history, nil, nil)
	store.Add(domain.Record{Language: "Hindi", Level: catalog.LevelPreJunior})

	require.NoError(t, store.Refresh(context.Background(), uuid.New()))

	require.True(t, store.IsEntitled("Telugu", catalog.LevelJunior))
	require.False(t, store.IsEntitled("Hindi", catalog.LevelPreJunior))
	require.Equal(t, 1, store.Len())
}

func TestStore_RefreshEmptyResponseClears(t *testing.T) {
	history := &fakeHistoryClient{records: []domain.Record{}}
	store := NewStore(history, nil, nil)
	store.Add(domain.Record{Language: "Hindi", Level: catalog.LevelJunior})

	require.NoError(t, store.Refresh(context.Background(), uuid.New()))
	require.Equal(t, 0, store.Len())
}

func TestStore_RefreshFailurePreservesSet(t *testing.T) {
	history := &fakeHistoryClient{err: errors.New("connection refused")}
	store := NewStore(history, nil, nil)
	store.Add(domain.Record{Language: "Hindi", Level: catalog.LevelJunior})

	err := store.Refresh(context.Background(), uuid.New())

	require.ErrorIs(t, err, domain.ErrRefreshFailed)
	require.True(t, store.IsEntitled("Hindi", catalog.LevelJunior))
	require.Equal(t, 1, store.Len())
}

func TestStore_RefreshProtocolViolationPreservesSet(t *testing.T) {
	history := &fakeHistoryClient{err: domain.ErrProtocolViolation}
	store := NewStore(history, nil, nil)
	store.Add(domain.Record{Language: "Tamil", Level: catalog.LevelJunior})

	err := store.Refresh(context.Background(), uuid.New())

	require.ErrorIs(t, err, domain.ErrRefreshFailed)
	require.True(t, store.IsEntitled("Tamil", catalog.LevelJunior))
}
