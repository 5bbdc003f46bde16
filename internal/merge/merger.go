package merge

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/couchcryptid/charging-station-etl/internal/domain"
)

// Result is the outcome of one merge run.
type Result struct {
	// Stations are sorted by ID.
	Stations []domain.CanonicalStation

	// Rejections lists the records dropped for a missing key or unusable
	// coordinates, grouped by source in priority order.
	Rejections []*domain.InvalidRecordError

	InputRecords     int
	Groups           int
	WideSpreadGroups int

	// Sources reports attribute completeness for the valid records of each
	// source.
	Sources map[domain.SourceID]SourceStats
}

// Rejected returns the number of dropped records.
func (r Result) Rejected() int { return len(r.Rejections) }

// Merger links records that describe the same station and emits one
// canonical station per group. A Merger is immutable after New and safe for
// concurrent Merge calls.
type Merger struct {
	opts     Options
	priority priority
	matcher  *Matcher
	canon    *Canonicalizer
	logger   *slog.Logger
}

// New validates opts and returns a Merger. A nil logger discards output.
func New(opts Options, logger *slog.Logger) (*Merger, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	opts.SourcePriority = slices.Clone(opts.SourcePriority)
	return &Merger{
		opts:     opts,
		priority: newPriority(opts.SourcePriority),
		matcher:  NewMatcher(opts),
		canon:    NewCanonicalizer(opts),
		logger:   logger,
	}, nil
}

// Options returns a copy of the merger's configuration.
func (m *Merger) Options() Options {
	opts := m.opts
	opts.SourcePriority = slices.Clone(m.opts.SourcePriority)
	return opts
}

// Merge consolidates per-source record collections. Records with a missing
// key or unusable coordinates are skipped and reported in the result. A
// duplicate natural key aborts the run with a *domain.DuplicateNaturalKeyError
// and no partial output.
func (m *Merger) Merge(input map[domain.SourceID][]domain.Record) (Result, error) {
	records, rejections, total, err := m.prepare(input)
	if err != nil {
		return Result{}, err
	}

	index := NewIndex()
	uf := NewUnionFind(len(records))
	byKey := make(map[domain.NaturalKey]domain.Record, len(records))

	for _, rec := range records {
		key := rec.Key()
		byKey[key] = rec
		uf.Add(key)

		p, _ := rec.Point()
		for _, cand := range index.QueryRadius(p, m.matcher.Radius()) {
			decision := m.matcher.Explain(rec, cand)
			if !decision.Duplicate {
				m.logger.Debug("candidate rejected",
					"record", key.String(),
					"candidate", cand.Key().String(),
					"reason", decision.Reason,
					"distance_m", decision.DistanceMeters,
					"name_score", decision.NameScore,
					"operator_score", decision.OperatorScore,
				)
				continue
			}
			if uf.Union(key, cand.Key()) {
				m.logger.Debug("records linked",
					"record", key.String(),
					"candidate", cand.Key().String(),
					"distance_m", decision.DistanceMeters,
					"name_score", decision.NameScore,
				)
			}
		}

		if err := index.Insert(rec); err != nil {
			return Result{}, fmt.Errorf("merge: %w", err)
		}
	}

	groups := uf.Groups()
	res := Result{
		Stations:     make([]domain.CanonicalStation, 0, len(groups)),
		Rejections:   rejections,
		InputRecords: total,
		Groups:       len(groups),
	}
	grouped := make([][]domain.Record, len(groups))
	for gi, keys := range groups {
		members := make([]domain.Record, len(keys))
		for i, k := range keys {
			members[i] = byKey[k]
		}
		grouped[gi] = members
		st := m.canon.Canonicalize(members)
		if st.WideSpread {
			res.WideSpreadGroups++
			m.logger.Warn("wide-spread station group",
				"id", st.ID,
				"members", len(keys),
				"spread_m", st.SpreadMeters,
				"radius_m", m.matcher.Radius(),
			)
		}
		res.Stations = append(res.Stations, st)
	}
	slices.SortFunc(res.Stations, func(a, b domain.CanonicalStation) int {
		return strings.Compare(a.ID, b.ID)
	})
	res.Sources = sourceStats(grouped)
	m.logCompleteness(res.Sources)

	m.logger.Info("merge complete",
		"input_records", res.InputRecords,
		"rejected", res.Rejected(),
		"stations", len(res.Stations),
		"wide_spread_groups", res.WideSpreadGroups,
	)
	return res, nil
}

func (m *Merger) logCompleteness(stats map[domain.SourceID]SourceStats) {
	sources := make([]domain.SourceID, 0, len(stats))
	for s := range stats {
		sources = append(sources, s)
	}
	slices.SortFunc(sources, m.priority.compareSources)
	for _, s := range sources {
		st := stats[s]
		attrs := make([]any, 0, 2*len(attributes)+6)
		attrs = append(attrs, "source", string(s), "records", st.Records, "merged", st.Merged)
		for _, a := range attributes {
			attrs = append(attrs, "missing_"+a.name, st.Missing[a.name])
		}
		m.logger.Debug("source completeness", attrs...)
	}
}

// prepare flattens the input, drops invalid records, detects duplicate keys
// and returns the valid records in (priority, external id) order.
func (m *Merger) prepare(input map[domain.SourceID][]domain.Record) ([]domain.Record, []*domain.InvalidRecordError, int, error) {
	sources := make([]domain.SourceID, 0, len(input))
	for s := range input {
		sources = append(sources, s)
	}
	slices.SortFunc(sources, m.priority.compareSources)

	var (
		total      int
		records    []domain.Record
		rejections []*domain.InvalidRecordError
	)
	seen := make(map[domain.NaturalKey]bool)
	for _, source := range sources {
		for _, rec := range input[source] {
			total++
			if rec.SourceID == "" {
				rec.SourceID = source
			}
			if rec.SourceID != source {
				rejections = append(rejections, &domain.InvalidRecordError{
					Key:    rec.Key(),
					Reason: fmt.Sprintf("source_id does not match input source %s", source),
				})
				continue
			}
			if err := rec.Validate(); err != nil {
				var invalid *domain.InvalidRecordError
				if !errors.As(err, &invalid) {
					return nil, nil, 0, err
				}
				rejections = append(rejections, invalid)
				continue
			}
			key := rec.Key()
			if seen[key] {
				return nil, nil, 0, &domain.DuplicateNaturalKeyError{Key: key}
			}
			seen[key] = true
			records = append(records, rec)
		}
	}

	for _, rej := range rejections {
		m.logger.Warn("record rejected", "key", rej.Key.String(), "reason", rej.Reason)
	}

	slices.SortFunc(records, m.priority.compareRecords)
	return records, rejections, total, nil
}
