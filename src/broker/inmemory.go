// Package broker provides implementations of the Broker interface.
package broker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// InMemoryBroker is a channel-backed Broker for local, single-process runs.
// Every subscriber to a topic receives every message published to it.
type InMemoryBroker struct {
	mu     sync.Mutex
	subs   map[string][]chan Message
	offset map[string]int64
	closed bool
}

// NewInMemoryBroker creates a new InMemoryBroker instance.
func NewInMemoryBroker() *InMemoryBroker {
	return &InMemoryBroker{
		subs:   make(map[string][]chan Message),
		offset: make(map[string]int64),
	}
}

// Publish delivers a message to every subscriber of the topic.
func (b *InMemoryBroker) Publish(ctx context.Context, topic string, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("broker is closed")
	}

	msg := Message{
		Topic:     topic,
		Key:       key,
		Value:     value,
		Offset:    b.offset[topic],
		Timestamp: time.Now().UnixMilli(),
	}
	b.offset[topic]++

	for _, ch := range b.subs[topic] {
		select {
		case ch <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// Subscribe registers a new consumer channel for the topic.
// groupID is ignored for the in-memory broker.
func (b *InMemoryBroker) Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("broker is closed")
	}

	ch := make(chan Message, 100)
	b.subs[topic] = append(b.subs[topic], ch)
	return ch, nil
}

// Close shuts down the broker and closes all subscriber channels.
func (b *InMemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for _, chans := range b.subs {
		for _, ch := range chans {
			close(ch)
		}
	}
	b.subs = make(map[string][]chan Message)

	return nil
}
