package domain

import (
	"math"
	"strings"
	"time"

	"github.com/paulmach/orb"
)

// SourceID identifies an upstream provider of station data.
type SourceID string

const (
	// SourceBNA is the Bundesnetzagentur charging-point registry (regulator).
	SourceBNA SourceID = "BNA"
	// SourceOCM is Open Charge Map (crowdsourced charging map).
	SourceOCM SourceID = "OCM"
	// SourceOSM is OpenStreetMap amenity=charging_station (general crowdsourced map).
	SourceOSM SourceID = "OSM"
)

// DefaultSourcePriority is the regulator-first precedence used for field conflicts.
var DefaultSourcePriority = []SourceID{SourceBNA, SourceOCM, SourceOSM}

// ParseSourceID normalizes a source identifier, e.g. " osm " -> "OSM".
func ParseSourceID(s string) SourceID {
	return SourceID(strings.ToUpper(strings.TrimSpace(s)))
}

// NaturalKey is the (source, external id) pair under which a record enters the system.
type NaturalKey struct {
	Source     SourceID `json:"source_id"`
	ExternalID string   `json:"external_id"`
}

func (k NaturalKey) String() string {
	return string(k.Source) + ":" + k.ExternalID
}

// Less orders keys by source, then external id.
func (k NaturalKey) Less(other NaturalKey) bool {
	if k.Source != other.Source {
		return k.Source < other.Source
	}
	return k.ExternalID < other.ExternalID
}

// Address holds the structured address parts reported by a source.
// Sources with a single free-text address put it in Street.
type Address struct {
	Street   string `json:"street,omitempty"`
	Postcode string `json:"postcode,omitempty"`
	Town     string `json:"town,omitempty"`
	District string `json:"district,omitempty"`
	State    string `json:"state,omitempty"`
	Country  string `json:"country,omitempty"`
}

// IsEmpty reports whether no address part is set.
func (a Address) IsEmpty() bool {
	return a == Address{}
}

// Record is one normalized observation of a station from one source, as
// emitted by the connectors. TotalKW is the connected load the source reports
// for the whole station (0 = unknown), not the sum of PowerKW.
type Record struct {
	SourceID   SourceID `json:"source_id"`
	ExternalID string   `json:"external_id"`

	// Pointers distinguish "not reported" from the 0,0 coordinate.
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	Name           string    `json:"name,omitempty"`
	Operator       string    `json:"operator,omitempty"`
	Address        Address   `json:"address,omitempty"`
	PowerKW        []float64 `json:"power_kw,omitempty"`
	AmperageA      []float64 `json:"amperage_a,omitempty"`
	VoltageV       []float64 `json:"voltage_v,omitempty"`
	PlugTypes      []string  `json:"plug_types,omitempty"`
	TotalKW        float64   `json:"total_kw,omitempty"`
	Capacity       int       `json:"capacity,omitempty"`
	Payment        string    `json:"payment,omitempty"`
	Authentication string    `json:"authentication,omitempty"`

	RawAttributes map[string]any `json:"raw_attributes,omitempty"`
}

// Key returns the record's natural key.
func (r Record) Key() NaturalKey {
	return NaturalKey{Source: r.SourceID, ExternalID: r.ExternalID}
}

// Point returns the record location in orb (lon, lat) order. ok is false
// when either coordinate is missing.
func (r Record) Point() (orb.Point, bool) {
	if r.Latitude == nil || r.Longitude == nil {
		return orb.Point{}, false
	}
	return orb.Point{*r.Longitude, *r.Latitude}, true
}

// Validate checks the natural key and coordinates. Everything else is the
// connectors' responsibility.
func (r Record) Validate() error {
	key := r.Key()
	switch {
	case strings.TrimSpace(string(r.SourceID)) == "":
		return &InvalidRecordError{Key: key, Reason: "missing source_id"}
	case strings.TrimSpace(r.ExternalID) == "":
		return &InvalidRecordError{Key: key, Reason: "missing external_id"}
	case r.Latitude == nil || r.Longitude == nil:
		return &InvalidRecordError{Key: key, Reason: "missing coordinates"}
	}
	if !ValidCoordinates(*r.Latitude, *r.Longitude) {
		return &InvalidRecordError{Key: key, Reason: "coordinates out of range"}
	}
	return nil
}

// ValidCoordinates reports whether lat/lon are finite and inside the WGS-84 ranges.
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// CanonicalStation is the reconciled output for one group of records that
// denote the same physical station.
type CanonicalStation struct {
	ID             string    `json:"id"`
	Name           string    `json:"name,omitempty"`
	Operator       string    `json:"operator,omitempty"`
	Address        Address   `json:"address,omitempty"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	PowerKW        []float64 `json:"power_kw,omitempty"`
	MaxKW          float64   `json:"max_kw,omitempty"`
	TotalKW        float64   `json:"total_kw,omitempty"`
	AmperageA      []float64 `json:"amperage_a,omitempty"`
	VoltageV       []float64 `json:"voltage_v,omitempty"`
	PlugTypes      []string  `json:"plug_types,omitempty"`
	DCSupport      bool      `json:"dc_support"`
	Capacity       int       `json:"capacity,omitempty"`
	Payment        string    `json:"payment,omitempty"`
	Authentication string    `json:"authentication,omitempty"`

	Sources    []SourceID   `json:"sources"`
	Provenance []NaturalKey `json:"provenance"`

	// SpreadMeters is the largest member distance from the centroid.
	SpreadMeters float64 `json:"spread_meters"`
	// WideSpread marks groups whose members are further apart than the
	// match radius because of chained matches. Kept for audit, never split.
	WideSpread bool `json:"wide_spread"`
}

// AsRecord turns a canonical station back into an input record of the given
// source, keyed by the canonical id.
func (s CanonicalStation) AsRecord(source SourceID) Record {
	lat, lon := s.Latitude, s.Longitude
	return Record{
		SourceID:       source,
		ExternalID:     s.ID,
		Latitude:       &lat,
		Longitude:      &lon,
		Name:           s.Name,
		Operator:       s.Operator,
		Address:        s.Address,
		PowerKW:        append([]float64(nil), s.PowerKW...),
		AmperageA:      append([]float64(nil), s.AmperageA...),
		VoltageV:       append([]float64(nil), s.VoltageV...),
		PlugTypes:      append([]string(nil), s.PlugTypes...),
		TotalKW:        s.TotalKW,
		Capacity:       s.Capacity,
		Payment:        s.Payment,
		Authentication: s.Authentication,
	}
}

// Snapshot is one consolidation run's output handed to the loaders.
type Snapshot struct {
	MergedAt time.Time          `json:"merged_at"`
	Stations []CanonicalStation `json:"stations"`
}
