package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/site-reconciliation-service/internal/config"
	"github.com/couchcryptid/site-reconciliation-service/internal/domain"
)

// messageWriter is the subset of *kafkago.Writer used by Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes classified site records to a Kafka topic, one message per
// record. It implements pipeline.Sink.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

func (w *Writer) Name() string { return "kafka" }

// Publish serializes every record in the report and writes them in a single
// WriteMessages call. Records are keyed by site key so each site stays on one
// partition across refreshes.
func (w *Writer) Publish(ctx context.Context, report *domain.Report) error {
	if report == nil || len(report.Records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(report.Records))
	for i := range report.Records {
		msg, err := serializeToMessage(report.Records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write site records: %w", err)
	}
	w.logger.Debug("published site records", "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a SiteRecord into a Kafka message.
func serializeToMessage(rec domain.SiteRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize site record %s: %w", rec.Key, err)
	}
	return kafkago.Message{
		Key:   []byte(rec.Key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "category", Value: []byte(rec.Category)},
			{Key: "loaded_at", Value: []byte(rec.LoadedAt.Format(time.RFC3339))},
		},
	}, nil
}
