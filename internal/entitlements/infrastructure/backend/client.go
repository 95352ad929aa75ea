// Package backend implements the REST client for the payment backend's
// purchase-history endpoint.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	catalog "github.com/minilingo/minilingo/internal/catalog/domain"
	"github.com/minilingo/minilingo/internal/entitlements/domain"
)

// Client fetches purchase history over HTTPS with bearer-token auth. Calls
// run through a circuit breaker so a flapping backend stops being hammered
// while the session keeps its last known entitlement set.
type Client struct {
	baseURL string
	tokenFn func() string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *slog.Logger
}

// NewClient creates a history client. tokenFn supplies the current session
// bearer token on each request.
func NewClient(baseURL string, tokenFn func() string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "payment-history",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &Client{
		baseURL: baseURL,
		tokenFn: tokenFn,
		http:    &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
		logger:  logger,
	}
}

type paidVideo struct {
	Language string `json:"language"`
	Level    string `json:"level"`
}

// PaidVideos returns the authoritative entitlement list for the user. An
// empty array from the backend is a valid "no purchases" answer; anything
// that is not a JSON array is a protocol violation.
func (c *Client) PaidVideos(ctx context.Context, userID uuid.UUID) ([]domain.Record, error) {
	endpoint := fmt.Sprintf("%s/payment/my-paid-videos?user_id=%s",
		c.baseURL, url.QueryEscape(userID.String()))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w (got %q)", domain.ErrProtocolViolation, preview(trimmed))
	}

	var raw []paidVideo
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProtocolViolation, err)
	}

	records := make([]domain.Record, 0, len(raw))
	for _, v := range raw {
		level, err := catalog.LevelFromLabel(v.Level)
		if err != nil {
			return nil, fmt.Errorf("purchase history entry for %q: %w", v.Language, err)
		}
		records = append(records, domain.Record{Language: v.Language, Level: level})
	}
	return records, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if token := c.tokenFn(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("purchase history returned status %d", resp.StatusCode)
		}
		return body, nil
	})
}

func preview(body []byte) string {
	const max = 64
	if len(body) > max {
		body = body[:max]
	}
	return string(body)
}
