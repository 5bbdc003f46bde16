package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/charging-station-etl/internal/config"
	"github.com/couchcryptid/charging-station-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// writeChunk bounds the messages handed to one WriteMessages call.
const writeChunk = 500

// messageWriter is the subset of *kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes canonical stations to a Kafka topic, one message per
// station keyed by its canonical id. It implements pipeline.Loader.
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
		BatchSize:    writeChunk,
	}
	return &Writer{writer: w, logger: logger}
}

// Load serializes every station in the snapshot and publishes them in
// chunks. Keys are stable across runs, so a compacted topic keeps the latest
// version of each station.
func (w *Writer) Load(ctx context.Context, snapshot domain.Snapshot) error {
	if len(snapshot.Stations) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(snapshot.Stations))
	for i := range snapshot.Stations {
		msg, err := serializeToMessage(snapshot.Stations[i], snapshot.MergedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	for start := 0; start < len(msgs); start += writeChunk {
		end := min(start+writeChunk, len(msgs))
		if err := w.writer.WriteMessages(ctx, msgs[start:end]...); err != nil {
			return fmt.Errorf("write stations %d-%d: %w", start, end, err)
		}
	}
	w.logger.Info("stations published", "stations", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a CanonicalStation into a Kafka message.
func serializeToMessage(station domain.CanonicalStation, mergedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(station)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize station %s: %w", station.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(station.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source_count", Value: []byte(strconv.Itoa(len(station.Sources)))},
			{Key: "wide_spread", Value: []byte(strconv.FormatBool(station.WideSpread))},
			{Key: "merged_at", Value: []byte(mergedAt.Format(time.RFC3339))},
		},
	}, nil
}
