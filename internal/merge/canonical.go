package merge

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/couchcryptid/charging-station-etl/internal/domain"
	"github.com/paulmach/orb"
)

// Canonicalizer reconciles one group of same-station records into a
// CanonicalStation. The result depends only on the set of members, never on
// their order.
type Canonicalizer struct {
	priority priority
	radius   float64
}

// NewCanonicalizer builds a Canonicalizer from validated options.
func NewCanonicalizer(opts Options) *Canonicalizer {
	return &Canonicalizer{
		priority: newPriority(opts.SourcePriority),
		radius:   opts.MatchRadiusMeters,
	}
}

// Canonicalize merges the group. Text fields follow source priority with
// fall-through on empty values; sets are unioned; coordinates are averaged.
func (c *Canonicalizer) Canonicalize(group []domain.Record) domain.CanonicalStation {
	if len(group) == 0 {
		return domain.CanonicalStation{}
	}

	members := slices.Clone(group)
	slices.SortFunc(members, c.priority.compareRecords)

	center, points := centroid(members)

	st := domain.CanonicalStation{
		Name:     pickText(members, func(r domain.Record) string { return r.Name }),
		Operator: pickText(members, func(r domain.Record) string { return r.Operator }),
		Address: domain.Address{
			Street:   pickText(members, func(r domain.Record) string { return r.Address.Street }),
			Postcode: pickText(members, func(r domain.Record) string { return r.Address.Postcode }),
			Town:     pickText(members, func(r domain.Record) string { return r.Address.Town }),
			District: pickText(members, func(r domain.Record) string { return r.Address.District }),
			State:    pickText(members, func(r domain.Record) string { return r.Address.State }),
			Country:  pickText(members, func(r domain.Record) string { return r.Address.Country }),
		},
		Payment:        pickText(members, func(r domain.Record) string { return r.Payment }),
		Authentication: pickText(members, func(r domain.Record) string { return r.Authentication }),
		Latitude:       center[1],
		Longitude:      center[0],
		PowerKW:        unionPositive(members, func(r domain.Record) []float64 { return r.PowerKW }),
		AmperageA:      unionPositive(members, func(r domain.Record) []float64 { return r.AmperageA }),
		VoltageV:       unionPositive(members, func(r domain.Record) []float64 { return r.VoltageV }),
		TotalKW:        pickNumber(members, func(r domain.Record) float64 { return r.TotalKW }),
		PlugTypes:      unionPlugs(members),
		Capacity:       maxCapacity(members),
		Sources:        c.sources(members),
		Provenance:     provenance(members),
	}
	if n := len(st.PowerKW); n > 0 {
		st.MaxKW = st.PowerKW[n-1]
	}
	st.DCSupport = hasDCPlug(st.PlugTypes)
	st.SpreadMeters, st.WideSpread = c.spread(center, points)
	st.ID = canonicalID(st.Provenance)
	return st
}

// pickText walks members in priority order and returns the first source's
// non-empty value. Several members of that source tie-break on the longest
// value, then the lexically smallest.
func pickText(members []domain.Record, get func(domain.Record) string) string {
	var best string
	var bestSource domain.SourceID
	for _, m := range members {
		if best != "" && m.SourceID != bestSource {
			break
		}
		v := strings.TrimSpace(get(m))
		if v == "" {
			continue
		}
		if best == "" || longer(v, best) {
			best, bestSource = v, m.SourceID
		}
	}
	return best
}

func longer(a, b string) bool {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la != lb {
		return la > lb
	}
	return a < b
}

// pickNumber is pickText for positive measurements: the first source with a
// usable value wins, and several members of that source keep the largest.
func pickNumber(members []domain.Record, get func(domain.Record) float64) float64 {
	var best float64
	var bestSource domain.SourceID
	for _, m := range members {
		if best > 0 && m.SourceID != bestSource {
			break
		}
		if v := get(m); usable(v) && v > best {
			best, bestSource = v, m.SourceID
		}
	}
	return best
}

// unionPositive unions one numeric set attribute across members, dropping
// zero, negative and non-finite values.
func unionPositive(members []domain.Record, get func(domain.Record) []float64) []float64 {
	var out []float64
	for _, m := range members {
		for _, v := range get(m) {
			if usable(v) {
				out = append(out, v)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func usable(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

func unionPlugs(members []domain.Record) []string {
	var out []string
	for _, m := range members {
		for _, p := range m.PlugTypes {
			if n := domain.NormalizePlugType(p); n != "" {
				out = append(out, n)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func maxCapacity(members []domain.Record) int {
	capacity := 0
	for _, m := range members {
		capacity = max(capacity, m.Capacity)
	}
	return capacity
}

// hasDCPlug reports whether any connector is a DC fast-charging type.
func hasDCPlug(plugs []string) bool {
	for _, p := range plugs {
		if strings.Contains(p, "DC") || strings.Contains(p, "CCS") || strings.Contains(p, "CHADEMO") {
			return true
		}
	}
	return false
}

// centroid averages member coordinates summed in natural-key order so the
// floating-point result does not depend on priority settings.
func centroid(members []domain.Record) (orb.Point, []orb.Point) {
	byKey := slices.Clone(members)
	slices.SortFunc(byKey, func(a, b domain.Record) int { return compareKeys(a.Key(), b.Key()) })
	points := make([]orb.Point, 0, len(byKey))
	for _, m := range byKey {
		if p, ok := m.Point(); ok {
			points = append(points, p)
		}
	}
	return domain.Centroid(points), points
}

func (c *Canonicalizer) sources(members []domain.Record) []domain.SourceID {
	var out []domain.SourceID
	for _, m := range members {
		if len(out) == 0 || out[len(out)-1] != m.SourceID {
			out = append(out, m.SourceID)
		}
	}
	return out
}

func provenance(members []domain.Record) []domain.NaturalKey {
	keys := make([]domain.NaturalKey, len(members))
	for i, m := range members {
		keys[i] = m.Key()
	}
	slices.SortFunc(keys, compareKeys)
	return keys
}

// spread returns the largest member distance from the centroid and whether
// any two members are further apart than the match radius.
func (c *Canonicalizer) spread(center orb.Point, points []orb.Point) (float64, bool) {
	var maxFromCenter float64
	wide := false
	for i, p := range points {
		maxFromCenter = max(maxFromCenter, domain.DistanceMeters(center, p))
		if wide {
			continue
		}
		for _, q := range points[i+1:] {
			if domain.DistanceMeters(p, q) > c.radius {
				wide = true
				break
			}
		}
	}
	return maxFromCenter, wide
}

// canonicalID hashes the sorted provenance so the same group gets the same id
// on every run.
func canonicalID(keys []domain.NaturalKey) string {
	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k.String()))
		h.Write([]byte{'\n'})
	}
	return "cs-" + hex.EncodeToString(h.Sum(nil)[:10])
}
