package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/charging-station-etl/internal/domain"
	"github.com/couchcryptid/charging-station-etl/internal/merge"
	"github.com/couchcryptid/charging-station-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// SnapshotExtractor reads the current per-source record collections.
type SnapshotExtractor interface {
	Extract(ctx context.Context) (map[domain.SourceID][]domain.Record, error)
}

// Merger consolidates per-source records into canonical stations.
type Merger interface {
	Merge(input map[domain.SourceID][]domain.Record) (merge.Result, error)
}

// Loader publishes a consolidated snapshot.
type Loader interface {
	Load(ctx context.Context, snapshot domain.Snapshot) error
}

// Sink is a named Loader; the name labels logs and metrics.
type Sink struct {
	Name   string
	Loader Loader
}

// Summary describes the last successful cycle.
type Summary struct {
	MergedAt         time.Time     `json:"merged_at"`
	InputRecords     int           `json:"input_records"`
	Rejected         int           `json:"rejected"`
	Stations         int           `json:"stations"`
	WideSpreadGroups int           `json:"wide_spread_groups"`
	Duration         time.Duration `json:"duration_ns"`
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Pipeline runs the extract-merge-load cycle at startup and then on a fixed
// interval.
type Pipeline struct {
	extractor SnapshotExtractor
	merger    Merger
	sinks     []Sink
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	interval  time.Duration

	ready atomic.Bool
	last  atomic.Pointer[Summary]
}

// New creates a Pipeline with the given stages and observability.
func New(e SnapshotExtractor, m Merger, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, interval time.Duration, sinks ...Sink) *Pipeline {
	return &Pipeline{
		extractor: e,
		merger:    m,
		sinks:     sinks,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
		interval:  interval,
	}
}

// CheckReadiness returns nil once a snapshot has been published, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no snapshot has been published yet")
	}
	return nil
}

// LastRun returns the summary of the last successful cycle.
func (p *Pipeline) LastRun() (Summary, bool) {
	s := p.last.Load()
	if s == nil {
		return Summary{}, false
	}
	return *s, true
}

// Run executes cycles until the context is cancelled. A failed cycle is
// retried with exponential backoff; the previous snapshot stays published.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "interval", p.interval, "sinks", len(p.sinks))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff
	for {
		wait := p.interval
		if err := p.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			p.logger.Error("consolidation cycle failed", "error", err, "retry_in", backoff)
			wait = backoff
			backoff = nextBackoff(backoff, maxBackoff)
		} else {
			backoff = initialBackoff
		}

		if !p.sleep(ctx, wait) {
			break
		}
	}
	p.logger.Info("pipeline stopping", "reason", ctx.Err())
	return nil
}

// RunOnce performs a single extract-merge-load cycle.
func (p *Pipeline) RunOnce(ctx context.Context) error {
	start := p.clock.Now()

	input, err := p.extractor.Extract(ctx)
	if err != nil {
		p.metrics.CycleErrors.WithLabelValues("extract").Inc()
		return fmt.Errorf("extract: %w", err)
	}
	for source, records := range input {
		p.metrics.RecordsExtracted.WithLabelValues(string(source)).Add(float64(len(records)))
	}

	mergeStart := p.clock.Now()
	res, err := p.merger.Merge(input)
	if err != nil {
		p.metrics.CycleErrors.WithLabelValues("merge").Inc()
		return fmt.Errorf("merge: %w", err)
	}
	p.metrics.MergeDuration.Observe(p.clock.Since(mergeStart).Seconds())
	p.metrics.RecordsRejected.Add(float64(res.Rejected()))
	p.metrics.WideSpreadGroups.Add(float64(res.WideSpreadGroups))

	snapshot := domain.Snapshot{
		MergedAt: p.clock.Now().UTC(),
		Stations: res.Stations,
	}
	if err := p.load(ctx, snapshot); err != nil {
		p.metrics.CycleErrors.WithLabelValues("load").Inc()
		return err
	}

	duration := p.clock.Since(start)
	p.metrics.CanonicalStations.Set(float64(len(res.Stations)))
	p.metrics.StationGroups.Set(float64(res.Groups))
	p.metrics.CycleDuration.Observe(duration.Seconds())
	p.metrics.LastSuccess.Set(float64(snapshot.MergedAt.Unix()))
	p.recordCompleteness(res.Sources)

	p.last.Store(&Summary{
		MergedAt:         snapshot.MergedAt,
		InputRecords:     res.InputRecords,
		Rejected:         res.Rejected(),
		Stations:         len(res.Stations),
		WideSpreadGroups: res.WideSpreadGroups,
		Duration:         duration,
	})
	p.ready.Store(true)

	p.logger.Info("snapshot published",
		"stations", len(res.Stations),
		"input_records", res.InputRecords,
		"rejected", res.Rejected(),
		"wide_spread_groups", res.WideSpreadGroups,
		"duration", duration,
	)
	return nil
}

func (p *Pipeline) recordCompleteness(sources map[domain.SourceID]merge.SourceStats) {
	for source, st := range sources {
		label := string(source)
		p.metrics.SourceRecords.WithLabelValues(label).Set(float64(st.Records))
		p.metrics.SourceRecordsMerged.WithLabelValues(label).Set(float64(st.Merged))
		for _, attr := range merge.Attributes() {
			p.metrics.SourceAttributeMissing.WithLabelValues(label, attr).Set(st.MissingRatio(attr))
		}
	}
}

// load writes the snapshot to every sink. All sinks are attempted even when
// one fails.
func (p *Pipeline) load(ctx context.Context, snapshot domain.Snapshot) error {
	var errs []error
	for _, s := range p.sinks {
		if err := s.Loader.Load(ctx, snapshot); err != nil {
			p.logger.Error("load failed", "sink", s.Name, "error", err)
			errs = append(errs, fmt.Errorf("load %s: %w", s.Name, err))
			continue
		}
		p.metrics.StationsLoaded.WithLabelValues(s.Name).Add(float64(len(snapshot.Stations)))
	}
	return errors.Join(errs...)
}

// sleep waits for d on the pipeline clock. Returns false if the context was
// cancelled first.
func (p *Pipeline) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-p.clock.After(d):
		return true
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
