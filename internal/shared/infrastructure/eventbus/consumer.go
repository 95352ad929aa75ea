package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Routing keys for the events this engine publishes.
const (
	RoutingKeyEntitlementsRefreshed = "entitlements.set.refreshed"
	RoutingKeyPurchaseVerified      = "checkout.purchase.verified"
	RoutingKeyPurchaseFailed        = "checkout.purchase.failed"
)

// EventConsumer handles specific event types.
type EventConsumer interface {
	// EventTypes returns the routing keys this consumer handles,
	// e.g. ["checkout.purchase.verified"].
	EventTypes() []string

	// Handle processes the event.
	Handle(ctx context.Context, event *ConsumedEvent) error
}

// ConsumedEvent is an event as received from the bus.
type ConsumedEvent struct {
	EventID    uuid.UUID       `json:"event_id"`
	RoutingKey string          `json:"routing_key"`
	OccurredAt time.Time       `json:"occurred_at"`
	UserID     uuid.UUID       `json:"user_id,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

// Envelope serializes a payload into the wire form Publish expects.
func Envelope(routingKey string, userID uuid.UUID, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ConsumedEvent{
		EventID:    uuid.New(),
		RoutingKey: routingKey,
		OccurredAt: time.Now().UTC(),
		UserID:     userID,
		Payload:    body,
	})
}
