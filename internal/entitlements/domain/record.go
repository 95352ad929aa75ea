// Package domain holds the entitlement model: the set of course offerings
// the signed-in user has permanently paid for.
package domain

import (
	"context"

	catalog "github.com/minilingo/minilingo/internal/catalog/domain"
	"github.com/google/uuid"
)

// Record marks one offering as paid for by the current user. Entitlements
// are permanent and irrevocable; client logic never removes one except by
// clearing the whole session.
type Record struct {
	Language string
	Level    catalog.LevelCode
}

// Offering resolves the record to its catalog offering.
func (r Record) Offering() (catalog.Offering, bool) {
	return catalog.OfferingFor(r.Language, r.Level)
}

// HistoryClient fetches the authoritative purchase history for a user from
// the backend. An empty slice means the user has no entitlements; a nil
// error with a nil slice is not distinguished from empty.
type HistoryClient interface {
	PaidVideos(ctx context.Context, userID uuid.UUID) ([]Record, error)
}
