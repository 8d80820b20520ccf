package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const kafkaWriteTimeout = 5 * time.Second

// messageWriter is the subset of *kafka.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaLog publishes entries as JSON, keyed by entry id.
type KafkaLog struct {
	w messageWriter
}

// NewKafkaLog creates a synchronous producer for topic.
func NewKafkaLog(brokers []string, topic string) *KafkaLog {
	return &KafkaLog{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: kafkaWriteTimeout,
	}}
}

// Append implements Sink.
func (l *KafkaLog) Append(ctx context.Context, e Entry) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode activity: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(e.ID),
		Value: value,
		Time:  e.Time,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(e.Action)},
		},
	}
	if err := l.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish activity: %w", err)
	}
	return nil
}

// Close flushes and closes the producer.
func (l *KafkaLog) Close() error {
	return l.w.Close()
}
