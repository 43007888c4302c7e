// Package kafka publishes dispatch audit records to a Kafka topic for
// downstream analytics. The sink is optional; the jobs treat a nil publisher
// as disabled.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/dorjecito/thermosafe-sub000/internal/domain"
)

// Publisher produces audit records to a Kafka topic.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the audit topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes and writes one dispatch record.
func (p *Publisher) Publish(ctx context.Context, rec domain.DispatchRecord) error {
	msg, err := serializeRecord(rec)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeRecord marshals a DispatchRecord into a Kafka message keyed by
// token digest so all events for one subscriber land on the same partition.
func serializeRecord(rec domain.DispatchRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize dispatch record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.TokenDigest),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "hazard", Value: []byte(rec.Hazard)},
			{Key: "at", Value: []byte(rec.At.Format(time.RFC3339))},
		},
	}, nil
}
