//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/dorjecito/thermosafe-sub000/internal/adapter/kafka"
	"github.com/dorjecito/thermosafe-sub000/internal/domain"
)

const testAuditTopic = "notification-events"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-broker Kafka container and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestAuditPublisherRoundTrip verifies that a published dispatch record
// arrives on the audit topic with the expected key, headers, and payload.
func TestAuditPublisherRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testAuditTopic)

	publisher := kafkaadapter.NewPublisher([]string{broker}, testAuditTopic, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	at := time.Now().UTC().Truncate(time.Second)
	rec := domain.DispatchRecord{
		TokenDigest: domain.TokenDigest("tok-integration"),
		Hazard:      "heat",
		Level:       2,
		Value:       41.9,
		Lang:        "ca",
		Outcome:     "dispatched",
		At:          at,
	}
	require.NoError(t, publisher.Publish(ctx, rec))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testAuditTopic,
		GroupID:     fmt.Sprintf("test-audit-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from audit topic")

	assert.Equal(t, []byte(rec.TokenDigest), msg.Key)

	var got domain.DispatchRecord
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, rec.Hazard, got.Hazard)
	assert.Equal(t, rec.Level, got.Level)
	assert.Equal(t, rec.Outcome, got.Outcome)
	assert.InDelta(t, rec.Value, got.Value, 0.001)
	assert.NotContains(t, string(msg.Value), "tok-integration")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "heat", headers["hazard"])
	_, err = time.Parse(time.RFC3339, headers["at"])
	assert.NoError(t, err, "at header should be valid RFC3339")
}

// TestAuditPublisherOrdering verifies that records for one subscriber land on
// the same partition in publish order.
func TestAuditPublisherOrdering(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testAuditTopic)

	publisher := kafkaadapter.NewPublisher([]string{broker}, testAuditTopic, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	outcomes := []string{"dispatch_error", "dispatched"}
	for _, outcome := range outcomes {
		require.NoError(t, publisher.Publish(ctx, domain.DispatchRecord{
			TokenDigest: domain.TokenDigest("tok-ordered"),
			Hazard:      "wind",
			Level:       1,
			Value:       55.0,
			Lang:        "gl",
			Outcome:     outcome,
			At:          time.Now().UTC(),
		}))
	}

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testAuditTopic,
		GroupID:     fmt.Sprintf("test-order-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	for _, want := range outcomes {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err)

		var got domain.DispatchRecord
		require.NoError(t, json.Unmarshal(msg.Value, &got))
		assert.Equal(t, want, got.Outcome)
	}
}
