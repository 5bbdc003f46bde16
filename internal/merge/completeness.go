package merge

import (
	"strings"

	"github.com/couchcryptid/charging-station-etl/internal/domain"
)

// SourceStats summarizes the valid records one source contributed to a run.
type SourceStats struct {
	Records int `json:"records"`
	// Merged counts records that share their station with at least one other
	// record.
	Merged int `json:"merged"`
	// Missing counts records without a value, per attribute name. Every name
	// in Attributes is present, zero included.
	Missing map[string]int `json:"missing"`
}

// MissingRatio returns the share of records missing attr, or 0 for a source
// without records.
func (s SourceStats) MissingRatio(attr string) float64 {
	if s.Records == 0 {
		return 0
	}
	return float64(s.Missing[attr]) / float64(s.Records)
}

type attribute struct {
	name    string
	missing func(domain.Record) bool
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

var attributes = []attribute{
	{"name", func(r domain.Record) bool { return blank(r.Name) }},
	{"operator", func(r domain.Record) bool { return blank(r.Operator) }},
	{"payment", func(r domain.Record) bool { return blank(r.Payment) }},
	{"authentication", func(r domain.Record) bool { return blank(r.Authentication) }},
	{"power_kw", func(r domain.Record) bool { return len(r.PowerKW) == 0 }},
	{"amperage_a", func(r domain.Record) bool { return len(r.AmperageA) == 0 }},
	{"voltage_v", func(r domain.Record) bool { return len(r.VoltageV) == 0 }},
	{"plug_types", func(r domain.Record) bool { return len(r.PlugTypes) == 0 }},
	{"total_kw", func(r domain.Record) bool { return !usable(r.TotalKW) }},
	{"capacity", func(r domain.Record) bool { return r.Capacity <= 0 }},
	{"street", func(r domain.Record) bool { return blank(r.Address.Street) }},
	{"postcode", func(r domain.Record) bool { return blank(r.Address.Postcode) }},
	{"town", func(r domain.Record) bool { return blank(r.Address.Town) }},
	{"district", func(r domain.Record) bool { return blank(r.Address.District) }},
	{"state", func(r domain.Record) bool { return blank(r.Address.State) }},
	{"country", func(r domain.Record) bool { return blank(r.Address.Country) }},
}

// Attributes lists the attribute names counted in SourceStats.Missing.
func Attributes() []string {
	names := make([]string, len(attributes))
	for i, a := range attributes {
		names[i] = a.name
	}
	return names
}

// sourceStats tallies completeness per source over the grouped records.
func sourceStats(groups [][]domain.Record) map[domain.SourceID]SourceStats {
	out := make(map[domain.SourceID]SourceStats)
	for _, group := range groups {
		for _, r := range group {
			st, ok := out[r.SourceID]
			if !ok {
				st.Missing = make(map[string]int, len(attributes))
				for _, a := range attributes {
					st.Missing[a.name] = 0
				}
			}
			st.Records++
			if len(group) > 1 {
				st.Merged++
			}
			for _, a := range attributes {
				if a.missing(r) {
					st.Missing[a.name]++
				}
			}
			out[r.SourceID] = st
		}
	}
	return out
}
