package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// EventOrderPlaced is the type header value of published events
const EventOrderPlaced = "order.placed"

// MessageWriter is the subset of *kafka.Writer the notifier needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes placed orders as JSON events keyed by order id
type KafkaNotifier struct {
	writer MessageWriter
}

// NewKafkaWriter creates a writer for the order events topic
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaNotifier(writer MessageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: writer}
}

func (n *KafkaNotifier) NotifyOrderPlaced(ctx context.Context, s OrderSummary) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(s.OrderID.String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(EventOrderPlaced)},
		},
		Time: s.PlacedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}
	return nil
}

// Close flushes and closes the writer
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
