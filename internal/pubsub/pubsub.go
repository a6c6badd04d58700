// Package pubsub is the in-process message bus between the session
// coordinator and the connection fan-out. Room events are published to
// a topic in store-mutation order and consumed in that same order, so
// every participant observes membership changes and messages in a
// consistent sequence.
package pubsub

import "context"

// Message is the structure passed between components on the bus.
type Message struct {
	// Topic identifies the channel the message belongs to (e.g. "room.events").
	Topic string
	// UserID identifies the user who triggered the message, if any.
	UserID string
	// Payload contains the raw message data, typically a JSON-encoded frame.
	Payload []byte
	// Metadata carries routing hints such as the target room id and an
	// optional excluded connection.
	Metadata map[string]string
}

// Handler processes a received message.
type Handler func(ctx context.Context, msg Message) error

// Publisher sends messages to the bus.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber receives messages from the bus.
type Subscriber interface {
	// Subscribe starts listening on the given topic, processing each
	// message with the handler. It returns once the subscription is
	// active; processing continues until ctx is canceled.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}
