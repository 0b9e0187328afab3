// Package broker defines the interface for message brokers and provides implementations.
package broker

import "context"

// Broker abstracts message publishing and consumption between the coding
// agents submitting edits and the merge pipeline consuming them.
// Implementations: in-memory (local mode) and Redpanda/Kafka (distributed mode).
type Broker interface {
	// Publish sends a message to a topic with an optional key for partitioning.
	// The in-memory broker ignores the key; Redpanda/Kafka uses it for
	// partition assignment so edits to one file stay ordered.
	Publish(ctx context.Context, topic string, key string, value []byte) error

	// Subscribe returns a channel for consuming messages from a topic.
	// groupID coordinates consumer groups in Kafka; the in-memory broker
	// ignores it.
	Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error)

	// Close shuts down the broker connection gracefully.
	Close() error
}

// Message represents a consumed message from a broker.
type Message struct {
	Topic     string
	Key       string
	Value     []byte
	Offset    int64
	Partition int32
	Timestamp int64
}
