package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/charging-station-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	calls  [][]kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, append([]kafkago.Message(nil), msgs...))
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

var mergedAt = time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

func TestSerializeToMessage(t *testing.T) {
	station := domain.CanonicalStation{
		ID:         "cs-abc",
		Name:       "Alexanderplatz",
		Latitude:   52.52005,
		Longitude:  13.40495,
		WideSpread: true,
		Sources:    []domain.SourceID{"BNA", "OCM"},
		Provenance: []domain.NaturalKey{
			{Source: "BNA", ExternalID: "1"},
			{Source: "OCM", ExternalID: "77"},
			{Source: "OCM", ExternalID: "78"},
		},
	}

	msg, err := serializeToMessage(station, mergedAt)
	require.NoError(t, err)

	assert.Equal(t, []byte("cs-abc"), msg.Key)
	assert.Contains(t, string(msg.Value), `"name":"Alexanderplatz"`)

	var decoded domain.CanonicalStation
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, station.Provenance, decoded.Provenance)

	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "source_count", msg.Headers[0].Key)
	assert.Equal(t, []byte("2"), msg.Headers[0].Value)
	assert.Equal(t, "wide_spread", msg.Headers[1].Key)
	assert.Equal(t, []byte("true"), msg.Headers[1].Value)
	assert.Equal(t, "merged_at", msg.Headers[2].Key)
	assert.Equal(t, []byte("2026-03-01T06:00:00Z"), msg.Headers[2].Value)
}

func TestWriter_LoadChunks(t *testing.T) {
	fw := &fakeWriter{}
	w := &Writer{writer: fw, logger: slog.Default()}

	stations := make([]domain.CanonicalStation, writeChunk+3)
	for i := range stations {
		stations[i] = domain.CanonicalStation{ID: fmt.Sprintf("cs-%04d", i)}
	}

	require.NoError(t, w.Load(context.Background(), domain.Snapshot{MergedAt: mergedAt, Stations: stations}))
	require.Len(t, fw.calls, 2)
	assert.Len(t, fw.calls[0], writeChunk)
	assert.Len(t, fw.calls[1], 3)
	assert.Equal(t, []byte("cs-0000"), fw.calls[0][0].Key)
	assert.Equal(t, []byte(fmt.Sprintf("cs-%04d", writeChunk+2)), fw.calls[1][2].Key)

	require.NoError(t, w.Close())
	assert.True(t, fw.closed)
}

func TestWriter_LoadEmptySnapshot(t *testing.T) {
	fw := &fakeWriter{}
	w := &Writer{writer: fw, logger: slog.Default()}

	require.NoError(t, w.Load(context.Background(), domain.Snapshot{MergedAt: mergedAt}))
	assert.Empty(t, fw.calls)
}

func TestWriter_LoadError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("leader not available")}
	w := &Writer{writer: fw, logger: slog.Default()}

	err := w.Load(context.Background(), domain.Snapshot{Stations: []domain.CanonicalStation{{ID: "cs-1"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
}
