// Package application holds the session-scoped entitlement store.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	catalog "github.com/minilingo/minilingo/internal/catalog/domain"
	"github.com/minilingo/minilingo/internal/entitlements/domain"
	"github.com/minilingo/minilingo/internal/shared/infrastructure/eventbus"
)

// Store is the authoritative session cache of which offerings the current
// user has paid for. It is populated from the backend on session entry and
// after every verified purchase; it is never persisted locally.
//
// Membership is monotonically non-decreasing within a session: Add only
// inserts, and the only removals are a full replace by a successful
// Refresh or a full Clear on logout.
type Store struct {
	history   domain.HistoryClient
	publisher eventbus.Publisher
	logger    *slog.Logger

	mu      sync.RWMutex
	records map[domain.Record]struct{}
}

// NewStore creates an empty store. The publisher may be nil.
func NewStore(history domain.HistoryClient, publisher eventbus.Publisher, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		history:   history,
		publisher: publisher,
		logger:    logger,
		records:   make(map[domain.Record]struct{}),
	}
}

// refreshedEvent is the payload published after a successful refresh.
type refreshedEvent struct {
	UserID string `json:"user_id"`
	Count  int    `json:"count"`
}

// Refresh fetches the authoritative purchase history and atomically
// replaces the whole local set. An explicit empty response clears the set;
// any fetch or protocol error leaves the set untouched and is surfaced as
// ErrRefreshFailed, never as "no entitlements".
func (s *Store) Refresh(ctx context.Context, userID uuid.UUID) error {
	records, err := s.history.PaidVideos(ctx, userID)
	if err != nil {
		s.logger.Warn("entitlement refresh failed, keeping local set",
			"user_id", userID.String(),
			"error", err,
		)
		return fmt.Errorf("%w: %w", domain.ErrRefreshFailed, err)
	}

	next := make(map[domain.Record]struct{}, len(records))
	for _, r := range records {
		next[r] = struct{}{}
	}

	s.mu.Lock()
	s.records = next
	s.mu.Unlock()

	s.logger.Debug("entitlements refreshed", "user_id", userID.String(), "count", len(next))
	s.publish(ctx, userID, len(next))
	return nil
}

// IsEntitled reports whether the user owns the (language, level) offering.
func (s *Store) IsEntitled(language string, level catalog.LevelCode) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[domain.Record{Language: language, Level: level}]
	return ok
}

// Add inserts a record after a verified purchase. Re-adding an existing
// record is a no-op. Only the purchase orchestrator calls this.
func (s *Store) Add(record domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record] = struct{}{}
}

// Clear empties the set unconditionally. Called on logout.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[domain.Record]struct{})
}

// Records returns a snapshot of the current set.
func (s *Store) Records() []domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Record, 0, len(s.records))
	for r := range s.records {
		out = append(out, r)
	}
	return out
}

// Len returns the number of entitlements held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) publish(ctx context.Context, userID uuid.UUID, count int) {
	if s.publisher == nil {
		return
	}
	payload, err := eventbus.Envelope(eventbus.RoutingKeyEntitlementsRefreshed, userID, refreshedEvent{
		UserID: userID.String(),
		Count:  count,
	})
	if err != nil {
		s.logger.Warn("failed to build refresh event", "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, eventbus.RoutingKeyEntitlementsRefreshed, payload); err != nil {
		s.logger.Warn("failed to publish refresh event", "error", err)
	}
}
