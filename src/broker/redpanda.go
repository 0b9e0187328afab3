// Package broker provides the Redpanda/Kafka broker implementation.
package broker

import (
	"context"
	"fmt"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"
)

// RedpandaBroker is a Kafka-compatible Broker built on franz-go. It carries
// edit submissions between agent processes that share no memory.
type RedpandaBroker struct {
	producer  *kgo.Client
	brokers   []string
	mu        sync.RWMutex
	consumers map[string]*kgo.Client // topic:groupID -> consumer client
	closed    bool
}

// NewRedpandaBroker connects a producer client to the given broker addresses
// (e.g. ["localhost:19092"]).
func NewRedpandaBroker(brokers []string) (*RedpandaBroker, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker address is required")
	}

	producer, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka client: %w", err)
	}

	return &RedpandaBroker{
		producer:  producer,
		brokers:   brokers,
		consumers: make(map[string]*kgo.Client),
	}, nil
}

// Publish produces one record synchronously. The key keeps all edits for a
// file on the same partition, preserving per-file submission order.
func (b *RedpandaBroker) Publish(ctx context.Context, topic string, key string, value []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("broker is closed")
	}

	record := &kgo.Record{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	}

	results := b.producer.ProduceSync(ctx, record)
	if err := results.FirstErr(); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	return nil
}

// Subscribe creates a consumer for the topic and consumer group and returns
// a channel of messages. Consumption starts from the beginning of the topic
// so a collector restarted mid-session still sees every submitted edit.
func (b *RedpandaBroker) Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("broker is closed")
	}

	consumerKey := fmt.Sprintf("%s:%s", topic, groupID)
	if _, exists := b.consumers[consumerKey]; exists {
		return nil, fmt.Errorf("consumer already exists for topic %s and group %s", topic, groupID)
	}

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(b.brokers...),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	b.consumers[consumerKey] = consumer

	msgChan := make(chan Message, 100)
	go b.consumeLoop(ctx, consumer, msgChan)

	return msgChan, nil
}

// consumeLoop polls the consumer and forwards records until the context is
// cancelled or the client is closed.
func (b *RedpandaBroker) consumeLoop(ctx context.Context, consumer *kgo.Client, msgChan chan<- Message) {
	defer close(msgChan)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			fetches := consumer.PollFetches(ctx)
			if fetches.IsClientClosed() {
				return
			}

			if errs := fetches.Errors(); len(errs) > 0 {
				for _, err := range errs {
					fmt.Printf("[RedpandaBroker] Fetch error: %v\n", err.Err)
				}
				continue
			}

			fetches.EachRecord(func(record *kgo.Record) {
				msg := Message{
					Topic:     record.Topic,
					Key:       string(record.Key),
					Value:     record.Value,
					Offset:    record.Offset,
					Partition: record.Partition,
					Timestamp: record.Timestamp.UnixMilli(),
				}

				select {
				case msgChan <- msg:
				case <-ctx.Done():
				}
			})
		}
	}
}

// Close shuts down all consumers and the producer.
func (b *RedpandaBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for _, consumer := range b.consumers {
		consumer.Close()
	}
	b.consumers = make(map[string]*kgo.Client)

	b.producer.Close()

	return nil
}
