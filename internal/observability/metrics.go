package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "charging_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// consolidation pipeline.
type Metrics struct {
	RecordsExtracted  *prometheus.CounterVec // labels: source
	RecordsRejected   prometheus.Counter
	CanonicalStations prometheus.Gauge
	StationGroups     prometheus.Gauge
	WideSpreadGroups  prometheus.Counter
	StationsLoaded    *prometheus.CounterVec // labels: sink
	CycleErrors       *prometheus.CounterVec // labels: stage={extract,merge,load}
	PipelineRunning   prometheus.Gauge
	LastSuccess       prometheus.Gauge

	SourceRecords          *prometheus.GaugeVec // labels: source
	SourceRecordsMerged    *prometheus.GaugeVec // labels: source
	SourceAttributeMissing *prometheus.GaugeVec // labels: source, attribute

	MergeDuration prometheus.Histogram
	CycleDuration prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_extracted_total",
			Help:      "Normalized records read from connector output, by source.",
		}, []string{"source"}),
		RecordsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_rejected_total",
			Help:      "Records dropped for a missing key or unusable coordinates.",
		}),
		CanonicalStations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "canonical_stations",
			Help:      "Canonical stations produced by the last successful merge.",
		}),
		StationGroups: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "station_groups",
			Help:      "Record groups formed by the last successful merge.",
		}),
		WideSpreadGroups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wide_spread_groups_total",
			Help:      "Groups whose members lie further apart than the match radius.",
		}),
		StationsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stations_loaded_total",
			Help:      "Canonical stations written, by sink.",
		}, []string{"sink"}),
		CycleErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycle_errors_total",
			Help:      "Failed consolidation cycles, by stage.",
		}, []string{"stage"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last cycle that loaded a snapshot.",
		}),
		SourceRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_records",
			Help:      "Valid records per source in the last successful merge.",
		}, []string{"source"}),
		SourceRecordsMerged: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_records_merged",
			Help:      "Records per source that share their station with another record.",
		}, []string{"source"}),
		SourceAttributeMissing: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_attribute_missing_ratio",
			Help:      "Share of a source's records without a value for the attribute.",
		}, []string{"source", "attribute"}),
		MergeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "merge_duration_seconds",
			Help:      "Duration of the record-linkage and merge step.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete extract-merge-load cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RecordsExtracted,
		m.RecordsRejected,
		m.CanonicalStations,
		m.StationGroups,
		m.WideSpreadGroups,
		m.StationsLoaded,
		m.CycleErrors,
		m.PipelineRunning,
		m.LastSuccess,
		m.SourceRecords,
		m.SourceRecordsMerged,
		m.SourceAttributeMissing,
		m.MergeDuration,
		m.CycleDuration,
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics on a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
