package merge

import (
	"math"
	"slices"
	"testing"

	"github.com/couchcryptid/charging-station-etl/internal/domain"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRecord builds a valid record at lat/lon with the given name and operator.
func testRecord(source domain.SourceID, id string, lat, lon float64, name, operator string) domain.Record {
	return domain.Record{
		SourceID:   source,
		ExternalID: id,
		Latitude:   &lat,
		Longitude:  &lon,
		Name:       name,
		Operator:   operator,
	}
}

// northOf returns the point the given distance due north of p.
func northOf(p orb.Point, meters float64) orb.Point {
	return orb.Point{p[0], p[1] + meters/orb.EarthRadius*180/math.Pi}
}

func keysOf(records []domain.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Key().String()
	}
	slices.Sort(out)
	return out
}

func TestIndex_Empty(t *testing.T) {
	ix := NewIndex()
	assert.Equal(t, 0, ix.Len())
	assert.Empty(t, ix.QueryRadius(orb.Point{13.405, 52.52}, 1000))
}

func TestIndex_QueryRadius(t *testing.T) {
	ix := NewIndex()
	require.NoError(t, ix.Insert(testRecord("BNA", "1", 52.5200, 13.4050, "", "")))
	require.NoError(t, ix.Insert(testRecord("OCM", "77", 52.5201, 13.4049, "", "")))
	require.NoError(t, ix.Insert(testRecord("OSM", "9", 52.5300, 13.4200, "", "")))
	assert.Equal(t, 3, ix.Len())

	center := orb.Point{13.4050, 52.5200}
	assert.Equal(t, []string{"BNA:1", "OCM:77"}, keysOf(ix.QueryRadius(center, 50)))
	assert.Equal(t, []string{"BNA:1", "OCM:77", "OSM:9"}, keysOf(ix.QueryRadius(center, 5000)))
	assert.Equal(t, []string{"BNA:1"}, keysOf(ix.QueryRadius(center, 0)))
}

func TestIndex_BoundaryIsInclusive(t *testing.T) {
	origin := orb.Point{13.4050, 52.5200}
	atRadius := northOf(origin, 50)
	beyond := northOf(origin, 51)

	ix := NewIndex()
	require.NoError(t, ix.Insert(testRecord("OCM", "at", atRadius[1], atRadius[0], "", "")))
	require.NoError(t, ix.Insert(testRecord("OCM", "beyond", beyond[1], beyond[0], "", "")))

	exact := domain.DistanceMeters(origin, atRadius)
	assert.InDelta(t, 50, exact, 1e-6)
	assert.Equal(t, []string{"OCM:at"}, keysOf(ix.QueryRadius(origin, exact)))
}

func TestIndex_AntimeridianNeighbours(t *testing.T) {
	ix := NewIndex()
	require.NoError(t, ix.Insert(testRecord("OSM", "west", 0, -179.9999, "", "")))
	require.NoError(t, ix.Insert(testRecord("OSM", "far", 0, -179.99, "", "")))

	got := ix.QueryRadius(orb.Point{179.9999, 0}, 50)
	assert.Equal(t, []string{"OSM:west"}, keysOf(got))
}

func TestIndex_NearPole(t *testing.T) {
	ix := NewIndex()
	require.NoError(t, ix.Insert(testRecord("OSM", "pole", 89.99995, 90, "", "")))

	got := ix.QueryRadius(orb.Point{-90, 89.99995}, 50)
	assert.Equal(t, []string{"OSM:pole"}, keysOf(got))
}

func TestIndex_InsertWithoutCoordinates(t *testing.T) {
	ix := NewIndex()
	err := ix.Insert(domain.Record{SourceID: "OSM", ExternalID: "x"})
	require.ErrorIs(t, err, domain.ErrInvalidRecord)
	assert.Equal(t, 0, ix.Len())
}

func TestSearchBounds_SplitsAtAntimeridian(t *testing.T) {
	assert.Len(t, searchBounds(orb.Point{13.4, 52.5}, 100), 1)

	bounds := searchBounds(orb.Point{179.9999, 0}, 100)
	require.Len(t, bounds, 2)
	for _, b := range bounds {
		assert.LessOrEqual(t, b.Min[0], b.Max[0])
	}
}
