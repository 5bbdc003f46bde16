package merge

import (
	"errors"
	"math"
	"testing"

	"github.com/couchcryptid/charging-station-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	require.NoError(t, opts.Validate())
	assert.InDelta(t, 50.0, opts.MatchRadiusMeters, 0)
	assert.InDelta(t, 0.5, opts.NameFloor, 0)
	assert.InDelta(t, 0.5, opts.OperatorFloor, 0)
	assert.InDelta(t, 0.0, opts.AddressFloor, 0)
	assert.Equal(t, []domain.SourceID{"BNA", "OCM", "OSM"}, opts.SourcePriority)

	opts.SourcePriority[0] = "XXX"
	assert.Equal(t, domain.SourceBNA, domain.DefaultSourcePriority[0], "defaults must not alias")
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
		field  string
	}{
		{"zero radius", func(o *Options) { o.MatchRadiusMeters = 0 }, "match_radius_meters"},
		{"negative radius", func(o *Options) { o.MatchRadiusMeters = -5 }, "match_radius_meters"},
		{"nan radius", func(o *Options) { o.MatchRadiusMeters = math.NaN() }, "match_radius_meters"},
		{"infinite radius", func(o *Options) { o.MatchRadiusMeters = math.Inf(1) }, "match_radius_meters"},
		{"name floor above one", func(o *Options) { o.NameFloor = 1.5 }, "name_floor"},
		{"operator floor negative", func(o *Options) { o.OperatorFloor = -0.1 }, "operator_floor"},
		{"address floor nan", func(o *Options) { o.AddressFloor = math.NaN() }, "address_floor"},
		{"empty priority", func(o *Options) { o.SourcePriority = nil }, "source_priority"},
		{"blank source", func(o *Options) { o.SourcePriority = []domain.SourceID{"BNA", ""} }, "source_priority"},
		{"duplicate source", func(o *Options) { o.SourcePriority = []domain.SourceID{"BNA", "OSM", "BNA"} }, "source_priority"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)

			err := opts.Validate()
			require.ErrorIs(t, err, domain.ErrConfiguration)
			var cfgErr *domain.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestPriority_Order(t *testing.T) {
	p := newPriority([]domain.SourceID{"OSM", "BNA"})

	assert.True(t, p.less("OSM", "BNA"))
	assert.False(t, p.less("BNA", "OSM"))
	assert.True(t, p.less("BNA", "OCM"), "listed sources outrank unlisted ones")
	assert.True(t, p.less("AAA", "ZZZ"), "unlisted sources fall back to lexical order")
	assert.False(t, p.less("OSM", "OSM"))

	a := testRecord("OSM", "2", 0, 0, "", "")
	b := testRecord("OSM", "10", 0, 0, "", "")
	assert.Equal(t, 1, p.compareRecords(a, b), "external ids compare as strings")
	assert.Equal(t, 0, p.compareRecords(a, a))
}
