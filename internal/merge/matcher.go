package merge

import (
	"github.com/couchcryptid/charging-station-etl/internal/domain"
)

// Rejection reasons reported by Matcher.Explain.
const (
	ReasonNone     = ""
	ReasonLocation = "location"
	ReasonDistance = "distance"
	ReasonOperator = "operator"
	ReasonAddress  = "address"
	ReasonName     = "name"
)

// plugConflictNamePenalty is added to the name floor for pairs whose plug
// types share nothing.
const plugConflictNamePenalty = 0.2

// MatchDecision carries the per-signal scores behind a duplicate decision.
// Scores are -1 when either side of the comparison is empty (neutral).
type MatchDecision struct {
	Duplicate      bool
	Reason         string
	DistanceMeters float64
	NameScore      float64
	OperatorScore  float64
	AddressScore   float64
	PlugConflict   bool
}

// Matcher decides whether two records denote the same physical station.
// It is a pure, symmetric predicate.
type Matcher struct {
	radius        float64
	nameFloor     float64
	operatorFloor float64
	addressFloor  float64
}

// NewMatcher builds a Matcher from validated options.
func NewMatcher(opts Options) *Matcher {
	return &Matcher{
		radius:        opts.MatchRadiusMeters,
		nameFloor:     opts.NameFloor,
		operatorFloor: opts.OperatorFloor,
		addressFloor:  opts.AddressFloor,
	}
}

// Radius returns R_match; the spatial index must be queried with at least this radius.
func (m *Matcher) Radius() float64 { return m.radius }

// IsDuplicate reports whether a and b are the same station.
func (m *Matcher) IsDuplicate(a, b domain.Record) bool {
	return m.Explain(a, b).Duplicate
}

// Explain evaluates every signal and returns the decision with its scores.
//
// Missing values never reject. Non-empty values reject when:
//   - the operators score below the operator floor;
//   - the addresses score below the address floor (when that floor is set);
//   - the names score below the name floor.
//
// Disjoint plug types never reject on their own; they raise the name floor
// by plugConflictNamePenalty, so only a clearly matching name survives them.
func (m *Matcher) Explain(a, b domain.Record) MatchDecision {
	d := MatchDecision{NameScore: -1, OperatorScore: -1, AddressScore: -1}

	pa, okA := a.Point()
	pb, okB := b.Point()
	if !okA || !okB {
		d.Reason = ReasonLocation
		return d
	}
	d.DistanceMeters = domain.DistanceMeters(pa, pb)
	if d.DistanceMeters > m.radius {
		d.Reason = ReasonDistance
		return d
	}

	d.OperatorScore = score(domain.NormalizeOperator(a.Operator), domain.NormalizeOperator(b.Operator))
	d.NameScore = score(domain.NormalizeText(a.Name), domain.NormalizeText(b.Name))
	d.AddressScore = score(domain.NormalizeAddress(a.Address), domain.NormalizeAddress(b.Address))
	d.PlugConflict = plugsDisjoint(a.PlugTypes, b.PlugTypes)

	if d.OperatorScore >= 0 && d.OperatorScore < m.operatorFloor {
		d.Reason = ReasonOperator
		return d
	}
	if m.addressFloor > 0 && d.AddressScore >= 0 && d.AddressScore < m.addressFloor {
		d.Reason = ReasonAddress
		return d
	}
	if d.NameScore >= 0 && d.NameScore < m.effectiveNameFloor(d.PlugConflict) {
		d.Reason = ReasonName
		return d
	}

	d.Duplicate = true
	return d
}

// effectiveNameFloor is the name floor, raised when the plug types conflict.
func (m *Matcher) effectiveNameFloor(plugConflict bool) float64 {
	if plugConflict {
		return min(1, m.nameFloor+plugConflictNamePenalty)
	}
	return m.nameFloor
}

// score returns the similarity of two normalized values, or -1 when either is empty.
func score(a, b string) float64 {
	if a == "" || b == "" {
		return -1
	}
	return domain.Similarity(a, b)
}

// plugsDisjoint reports whether two non-empty plug-type sets share no element.
func plugsDisjoint(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, p := range a {
		if n := domain.NormalizePlugType(p); n != "" {
			set[n] = true
		}
	}
	if len(set) == 0 {
		return false
	}
	nonEmpty := false
	for _, p := range b {
		n := domain.NormalizePlugType(p)
		if n == "" {
			continue
		}
		nonEmpty = true
		if set[n] {
			return false
		}
	}
	return nonEmpty
}
