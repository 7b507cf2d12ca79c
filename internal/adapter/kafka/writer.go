package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/fishing-log-enrichment/internal/config"
	"github.com/couchcryptid/fishing-log-enrichment/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes enrichment events to a Kafka topic.
// It implements enrich.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes events and writes them in a single WriteMessages call.
// Events for the same record share a key and so land on the same partition.
func (w *Writer) Publish(ctx context.Context, events ...domain.EnrichmentEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d enrichment events: %w", len(msgs), err)
	}
	w.logger.Debug("published enrichment events", "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an EnrichmentEvent into a Kafka message.
func serializeToMessage(event domain.EnrichmentEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize enrichment event: %w", err)
	}
	headers := []kafkago.Header{
		{Key: "event_kind", Value: []byte(event.Kind)},
		{Key: "occurred_at", Value: []byte(event.OccurredAt.UTC().Format(time.RFC3339))},
	}
	if event.Group != "" {
		headers = append(headers, kafkago.Header{Key: "group", Value: []byte(event.Group)})
	}
	return kafkago.Message{
		Key:     []byte(strconv.FormatInt(event.RecordID, 10)),
		Value:   data,
		Headers: headers,
		Time:    event.OccurredAt,
	}, nil
}
