package merge

import (
	"testing"

	"github.com/couchcryptid/charging-station-etl/internal/domain"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestMatcher_Explain(t *testing.T) {
	origin := orb.Point{13.4050, 52.5200}
	near := northOf(origin, 10)
	far := northOf(origin, 80)

	at := func(p orb.Point, source domain.SourceID, id, name, operator string, plugs ...string) domain.Record {
		r := testRecord(source, id, p[1], p[0], name, operator)
		r.PlugTypes = plugs
		return r
	}

	tests := []struct {
		name      string
		a, b      domain.Record
		duplicate bool
		reason    string
	}{
		{
			name:      "similar name and operator",
			a:         at(origin, "BNA", "1", "Alexanderplatz", "StadtWerke"),
			b:         at(near, "OCM", "77", "Alexanderplatz Ladestation", "StadtWerke"),
			duplicate: true,
		},
		{
			name:   "beyond radius",
			a:      at(origin, "BNA", "1", "Alexanderplatz", "StadtWerke"),
			b:      at(far, "OCM", "77", "Alexanderplatz", "StadtWerke"),
			reason: ReasonDistance,
		},
		{
			name:   "operator mismatch",
			a:      at(origin, "BNA", "1", "Alexanderplatz", "StadtWerke"),
			b:      at(near, "OCM", "77", "Alexanderplatz", "Tesla"),
			reason: ReasonOperator,
		},
		{
			name:      "operator legal form ignored",
			a:         at(origin, "BNA", "1", "Alexanderplatz", "EnBW AG"),
			b:         at(near, "OCM", "77", "Alexanderplatz", "EnBW"),
			duplicate: true,
		},
		{
			name:   "name mismatch without operators",
			a:      at(origin, "BNA", "1", "Alexanderplatz", ""),
			b:      at(near, "OCM", "77", "Hauptbahnhof", ""),
			reason: ReasonName,
		},
		{
			name:   "name mismatch with matching operator",
			a:      at(origin, "BNA", "1", "Alexanderplatz", "StadtWerke"),
			b:      at(near, "OCM", "77", "Parkhaus Mitte", "StadtWerke"),
			reason: ReasonName,
		},
		{
			name:   "different stations of one operator",
			a:      at(origin, "BNA", "1", "Parkhaus Sued", "EnBW"),
			b:      at(near, "OCM", "77", "Tankstelle Mitte", "EnBW AG"),
			reason: ReasonName,
		},
		{
			name:      "name at the floor",
			a:         at(origin, "BNA", "1", "Marktplatz", "StadtWerke", "Type 2"),
			b:         at(near, "OCM", "77", "Markt", "StadtWerke", "TYPE 2"),
			duplicate: true,
		},
		{
			name:   "name at the floor with plug conflict",
			a:      at(origin, "BNA", "1", "Marktplatz", "StadtWerke", "Type 2"),
			b:      at(near, "OCM", "77", "Markt", "StadtWerke", "CHAdeMO"),
			reason: ReasonName,
		},
		{
			name:   "name mismatch with matching operator and plug conflict",
			a:      at(origin, "BNA", "1", "Alexanderplatz", "StadtWerke", "Type 2"),
			b:      at(near, "OCM", "77", "Parkhaus Mitte", "StadtWerke", "CHAdeMO"),
			reason: ReasonName,
		},
		{
			name:      "plug conflict alone is not enough",
			a:         at(origin, "BNA", "1", "Alexanderplatz", "StadtWerke", "Type 2"),
			b:         at(near, "OCM", "77", "Alexanderplatz", "StadtWerke", "CCS"),
			duplicate: true,
		},
		{
			name:      "missing name and operator are neutral",
			a:         at(origin, "BNA", "1", "Parkplatz Nord", ""),
			b:         at(near, "OSM", "5", "", ""),
			duplicate: true,
		},
	}

	m := NewMatcher(DefaultOptions())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ab := m.Explain(tt.a, tt.b)
			ba := m.Explain(tt.b, tt.a)
			assert.Equal(t, tt.duplicate, ab.Duplicate)
			assert.Equal(t, tt.reason, ab.Reason)
			assert.Equal(t, ab, ba, "matcher must be symmetric")
			assert.Equal(t, tt.duplicate, m.IsDuplicate(tt.a, tt.b))
		})
	}
}

func TestMatcher_NameFloorAppliesRegardlessOfOperator(t *testing.T) {
	origin := orb.Point{13.4050, 52.5200}
	near := northOf(origin, 5.6)

	a := testRecord("BNA", "1", origin[1], origin[0], "Parkhaus Sued", "EnBW")
	b := testRecord("OCM", "2", near[1], near[0], "Tankstelle Mitte", "EnBW")

	d := NewMatcher(DefaultOptions()).Explain(a, b)
	assert.False(t, d.Duplicate)
	assert.Equal(t, ReasonName, d.Reason)
	assert.InDelta(t, 1, d.OperatorScore, 0)
	assert.Less(t, d.NameScore, DefaultOptions().NameFloor)

	opts := DefaultOptions()
	opts.NameFloor = 0.1
	assert.True(t, NewMatcher(opts).IsDuplicate(a, b), "a lower floor accepts the pair")
}

func TestMatcher_EffectiveNameFloor(t *testing.T) {
	m := NewMatcher(DefaultOptions())
	assert.InDelta(t, 0.5, m.effectiveNameFloor(false), 1e-9)
	assert.InDelta(t, 0.7, m.effectiveNameFloor(true), 1e-9)

	opts := DefaultOptions()
	opts.NameFloor = 0.9
	assert.InDelta(t, 1, NewMatcher(opts).effectiveNameFloor(true), 1e-9)
}

func TestMatcher_NeutralScores(t *testing.T) {
	a := testRecord("BNA", "1", 52.52, 13.405, "", "")
	b := testRecord("OSM", "2", 52.52, 13.405, "", "")

	d := NewMatcher(DefaultOptions()).Explain(a, b)
	assert.True(t, d.Duplicate)
	assert.InDelta(t, -1, d.NameScore, 0)
	assert.InDelta(t, -1, d.OperatorScore, 0)
	assert.InDelta(t, -1, d.AddressScore, 0)
	assert.False(t, d.PlugConflict)
}

func TestMatcher_MissingCoordinates(t *testing.T) {
	a := testRecord("BNA", "1", 52.52, 13.405, "A", "")
	b := domain.Record{SourceID: "OSM", ExternalID: "2", Name: "A"}

	d := NewMatcher(DefaultOptions()).Explain(a, b)
	assert.False(t, d.Duplicate)
	assert.Equal(t, ReasonLocation, d.Reason)
}

func TestMatcher_AddressFloor(t *testing.T) {
	origin := orb.Point{13.4050, 52.5200}
	near := northOf(origin, 5)

	a := testRecord("BNA", "1", origin[1], origin[0], "Ladepark", "")
	a.Address = domain.Address{Street: "Hauptstraße 1", Postcode: "10115", Town: "Berlin"}
	b := testRecord("OCM", "2", near[1], near[0], "Ladepark", "")
	b.Address = domain.Address{Street: "Gartenweg 99", Postcode: "80331", Town: "München"}

	assert.True(t, NewMatcher(DefaultOptions()).IsDuplicate(a, b), "address is ignored by default")

	opts := DefaultOptions()
	opts.AddressFloor = 0.5
	d := NewMatcher(opts).Explain(a, b)
	assert.False(t, d.Duplicate)
	assert.Equal(t, ReasonAddress, d.Reason)
}

func TestPlugsDisjoint(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []string
		expected bool
	}{
		{"both empty", nil, nil, false},
		{"one empty", []string{"Type 2"}, nil, false},
		{"shared after normalization", []string{"type 2", "CCS"}, []string{" TYPE  2 "}, false},
		{"disjoint", []string{"Type 2"}, []string{"CHAdeMO"}, true},
		{"blank entries ignored", []string{"Type 2"}, []string{" "}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, plugsDisjoint(tt.a, tt.b))
			assert.Equal(t, tt.expected, plugsDisjoint(tt.b, tt.a))
		})
	}
}
