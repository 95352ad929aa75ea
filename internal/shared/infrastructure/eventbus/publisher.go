// Package eventbus carries domain events (entitlement refreshes, purchase
// outcomes) between the engine and any interested consumers. Local mode
// uses the in-process bus; when an AMQP URL is configured the RabbitMQ
// publisher mirrors the same events to a topic exchange.
package eventbus

import "context"

// Publisher sends serialized events to the bus.
type Publisher interface {
	// Publish sends a message under the given routing key.
	Publish(ctx context.Context, routingKey string, payload []byte) error

	// Close releases the underlying connection.
	Close() error
}
