package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	catalog "github.com/minilingo/minilingo/internal/catalog/domain"
	"github.com/minilingo/minilingo/internal/entitlements/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, func() string { return "test-token" }, 5*time.Second, nil)
}

func TestClient_PaidVideos(t *testing.T) {
	userID := uuid.New()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payment/my-paid-videos", r.URL.Path)
		require.Equal(t, userID.String(), r.URL.Query().Get("user_id"))
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"language":"Hindi","level":"Junior"},{"language":"Tamil","level":"Pre Junior"}]`))
	})

	records, err := client.PaidVideos(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, []domain.Record{
		{Language: "Hindi", Level: catalog.LevelJunior},
		{Language: "Tamil", Level: catalog.LevelPreJunior},
	}, records)
}

func TestClient_PaidVideosEmptyArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	records, err := client.PaidVideos(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestClient_PaidVideosHTMLBodyIsProtocolViolation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body>Sign in to continue</body></html>`))
	})

	_, err := client.PaidVideos(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrProtocolViolation)
}

func TestClient_PaidVideosObjectBodyIsProtocolViolation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"not found"}`))
	})

	_, err := client.PaidVideos(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrProtocolViolation)
}

func TestClient_PaidVideosNon2xx(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.PaidVideos(context.Background(), uuid.New())
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrProtocolViolation)
}

func TestClient_PaidVideosUnknownLevelLabel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"language":"Hindi","level":"Senior"}]`))
	})

	_, err := client.PaidVideos(context.Background(), uuid.New())
	require.ErrorIs(t, err, catalog.ErrUnknownLevel)
}
