package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var _ Publisher = (*KafkaPublisher)(nil)

// KafkaPublisher writes snapshot events to a Kafka topic keyed by rates date.
type KafkaPublisher struct {
	writer       messageWriter
	writeTimeout time.Duration
}

// NewKafkaPublisher creates a publisher for topic on the given brokers.
func NewKafkaPublisher(brokers []string, topic string, writeTimeout time.Duration) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			WriteTimeout:           writeTimeout,
		},
		writeTimeout: writeTimeout,
	}
}

// PublishSnapshot encodes event as JSON and writes it synchronously.
func (k *KafkaPublisher) PublishSnapshot(ctx context.Context, event SnapshotEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode snapshot event: %w", err)
	}

	if k.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, k.writeTimeout)
		defer cancel()
	}

	msg := kafka.Message{
		Key:   []byte(event.Base + ":" + event.Date),
		Value: value,
		Time:  event.StoredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte("snapshot.stored")},
			{Key: "run-id", Value: []byte(event.RunID)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write snapshot event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}
