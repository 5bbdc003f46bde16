package merge

import (
	"fmt"
	"math"
	"strings"

	"github.com/couchcryptid/charging-station-etl/internal/domain"
)

// DefaultMatchRadiusMeters is R_match: the spatial gate for duplicate candidates.
const DefaultMatchRadiusMeters = 50.0

// Options configures a Merger. The zero value is not usable; start from
// DefaultOptions.
type Options struct {
	// MatchRadiusMeters gates candidates by haversine distance (inclusive).
	MatchRadiusMeters float64

	// Similarity floors in [0, 1]. A pair whose non-empty values score below
	// the floor carries a strong negative signal. AddressFloor 0 disables
	// the address check.
	NameFloor     float64
	OperatorFloor float64
	AddressFloor  float64

	// SourcePriority orders sources for text-field conflicts, highest first.
	// Sources not listed rank below every listed source.
	SourcePriority []domain.SourceID
}

// DefaultOptions returns the 50 m radius, 0.5 name/operator floors and
// BNA > OCM > OSM priority.
func DefaultOptions() Options {
	return Options{
		MatchRadiusMeters: DefaultMatchRadiusMeters,
		NameFloor:         0.5,
		OperatorFloor:     0.5,
		AddressFloor:      0,
		SourcePriority:    append([]domain.SourceID(nil), domain.DefaultSourcePriority...),
	}
}

// Validate returns a *domain.ConfigurationError describing the first malformed setting.
func (o Options) Validate() error {
	if math.IsNaN(o.MatchRadiusMeters) || math.IsInf(o.MatchRadiusMeters, 0) || o.MatchRadiusMeters <= 0 {
		return &domain.ConfigurationError{Field: "match_radius_meters", Reason: fmt.Sprintf("must be a positive finite number, got %v", o.MatchRadiusMeters)}
	}

	floors := []struct {
		field string
		value float64
	}{
		{"name_floor", o.NameFloor},
		{"operator_floor", o.OperatorFloor},
		{"address_floor", o.AddressFloor},
	}
	for _, f := range floors {
		if math.IsNaN(f.value) || f.value < 0 || f.value > 1 {
			return &domain.ConfigurationError{Field: f.field, Reason: fmt.Sprintf("must be within [0, 1], got %v", f.value)}
		}
	}

	if len(o.SourcePriority) == 0 {
		return &domain.ConfigurationError{Field: "source_priority", Reason: "must list at least one source"}
	}
	seen := make(map[domain.SourceID]bool, len(o.SourcePriority))
	for _, s := range o.SourcePriority {
		if s == "" {
			return &domain.ConfigurationError{Field: "source_priority", Reason: "contains an empty source id"}
		}
		if seen[s] {
			return &domain.ConfigurationError{Field: "source_priority", Reason: fmt.Sprintf("lists %s twice", s)}
		}
		seen[s] = true
	}
	return nil
}

// priority ranks sources: listed sources by position, unlisted ones after
// them in lexical order.
type priority struct {
	rank map[domain.SourceID]int
}

func newPriority(order []domain.SourceID) priority {
	rank := make(map[domain.SourceID]int, len(order))
	for i, s := range order {
		rank[s] = i
	}
	return priority{rank: rank}
}

// less reports whether source a outranks source b.
func (p priority) less(a, b domain.SourceID) bool {
	ra, okA := p.rank[a]
	rb, okB := p.rank[b]
	switch {
	case okA && okB:
		return ra < rb
	case okA != okB:
		return okA
	default:
		return a < b
	}
}

func (p priority) compareSources(a, b domain.SourceID) int {
	switch {
	case p.less(a, b):
		return -1
	case p.less(b, a):
		return 1
	default:
		return 0
	}
}

// compareRecords orders records by source priority, then external id.
func (p priority) compareRecords(a, b domain.Record) int {
	if c := p.compareSources(a.SourceID, b.SourceID); c != 0 {
		return c
	}
	return strings.Compare(a.ExternalID, b.ExternalID)
}
