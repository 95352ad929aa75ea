package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type capturingConsumer struct {
	types  []string
	err    error
	mu     sync.Mutex
	events []*ConsumedEvent
}

func (c *capturingConsumer) EventTypes() []string { return c.types }

func (c *capturingConsumer) Handle(ctx context.Context, event *ConsumedEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return c.err
}

func (c *capturingConsumer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestInProcessBus_DeliversToRegisteredConsumer(t *testing.T) {
	bus := NewInProcessBus(nil)
	consumer := &capturingConsumer{types: []string{RoutingKeyPurchaseVerified}}
	bus.RegisterConsumer(consumer)

	userID := uuid.New()
	payload, err := Envelope(RoutingKeyPurchaseVerified, userID, map[string]string{"product_id": "hindi_junior"})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), RoutingKeyPurchaseVerified, payload))

	require.Equal(t, 1, consumer.count())
	event := consumer.events[0]
	require.Equal(t, RoutingKeyPurchaseVerified, event.RoutingKey)
	require.Equal(t, userID, event.UserID)

	var body map[string]string
	require.NoError(t, json.Unmarshal(event.Payload, &body))
	require.Equal(t, "hindi_junior", body["product_id"])
}

func TestInProcessBus_UnmatchedRoutingKeyIsDropped(t *testing.T) {
	bus := NewInProcessBus(nil)
	consumer := &capturingConsumer{types: []string{RoutingKeyPurchaseVerified}}
	bus.RegisterConsumer(consumer)

	payload, err := Envelope(RoutingKeyPurchaseFailed, uuid.New(), map[string]string{})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), RoutingKeyPurchaseFailed, payload))
	require.Zero(t, consumer.count())
}

func TestInProcessBus_ConsumerErrorDoesNotPropagate(t *testing.T) {
	bus := NewInProcessBus(nil)
	failing := &capturingConsumer{
		types: []string{RoutingKeyEntitlementsRefreshed},
		err:   errors.New("consumer broke"),
	}
	healthy := &capturingConsumer{types: []string{RoutingKeyEntitlementsRefreshed}}
	bus.RegisterConsumer(failing)
	bus.RegisterConsumer(healthy)

	payload, err := Envelope(RoutingKeyEntitlementsRefreshed, uuid.New(), map[string]int{"count": 2})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), RoutingKeyEntitlementsRefreshed, payload))
	require.Equal(t, 1, failing.count())
	require.Equal(t, 1, healthy.count())
}

func TestInProcessBus_MalformedPayloadIsSwallowed(t *testing.T) {
	bus := NewInProcessBus(nil)
	consumer := &capturingConsumer{types: []string{RoutingKeyPurchaseVerified}}
	bus.RegisterConsumer(consumer)

	require.NoError(t, bus.Publish(context.Background(), RoutingKeyPurchaseVerified, []byte("not json")))
	require.Zero(t, consumer.count())
}

func TestEnvelope_FillsWireFields(t *testing.T) {
	userID := uuid.New()
	payload, err := Envelope(RoutingKeyPurchaseFailed, userID, map[string]string{"cause": "rejected"})
	require.NoError(t, err)

	var event ConsumedEvent
	require.NoError(t, json.Unmarshal(payload, &event))
	require.NotEqual(t, uuid.Nil, event.EventID)
	require.Equal(t, RoutingKeyPurchaseFailed, event.RoutingKey)
	require.Equal(t, userID, event.UserID)
	require.False(t, event.OccurredAt.IsZero())
}
