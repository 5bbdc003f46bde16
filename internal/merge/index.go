package merge

import (
	"fmt"

	"github.com/couchcryptid/charging-station-etl/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/quadtree"
)

// boundPadMeters widens the bounding-box prefilter so float rounding at the
// box edge never drops a point that is within the radius. The exact
// haversine filter runs afterwards.
const boundPadMeters = 1.0

var worldBound = orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}

// Index answers "all records within r metres of p" over a growing record set.
// Records inserted after a query are not visible to it. Not safe for
// concurrent use; one Index belongs to one merge run.
type Index struct {
	tree *quadtree.Quadtree
	size int
}

type indexEntry struct {
	point  orb.Point
	record domain.Record
}

func (e *indexEntry) Point() orb.Point { return e.point }

// NewIndex creates an empty index covering the whole globe.
func NewIndex() *Index {
	return &Index{tree: quadtree.New(worldBound)}
}

// Len returns the number of inserted records.
func (ix *Index) Len() int { return ix.size }

// Insert adds a record keyed by its coordinates.
func (ix *Index) Insert(rec domain.Record) error {
	p, ok := rec.Point()
	if !ok {
		return &domain.InvalidRecordError{Key: rec.Key(), Reason: "missing coordinates"}
	}
	if err := ix.tree.Add(&indexEntry{point: p, record: rec}); err != nil {
		return fmt.Errorf("index %s: %w", rec.Key(), err)
	}
	ix.size++
	return nil
}

// QueryRadius returns every inserted record whose haversine distance to
// center is at most radiusMeters, in no particular order.
func (ix *Index) QueryRadius(center orb.Point, radiusMeters float64) []domain.Record {
	if ix.size == 0 || radiusMeters < 0 {
		return nil
	}

	var candidates []orb.Pointer
	for _, b := range searchBounds(center, radiusMeters+boundPadMeters) {
		candidates = ix.tree.InBound(candidates, b)
	}

	var out []domain.Record
	for _, c := range candidates {
		e := c.(*indexEntry)
		if domain.DistanceMeters(center, e.point) <= radiusMeters {
			out = append(out, e.record)
		}
	}
	return out
}

// searchBounds returns the box around center, split in two when it crosses
// the antimeridian. geo.NewBoundAroundPoint reports a crossing box with
// Min.X past Max.X; boxes overflowing ±180 are treated the same way.
func searchBounds(center orb.Point, meters float64) []orb.Bound {
	b := geo.NewBoundAroundPoint(center, meters)
	minX, maxX := b.Min[0], b.Max[0]
	switch {
	case maxX > 180:
		maxX -= 360
	case minX < -180:
		minX += 360
	}
	if minX <= maxX {
		return []orb.Bound{b}
	}
	west := orb.Bound{Min: orb.Point{minX, b.Min[1]}, Max: orb.Point{180, b.Max[1]}}
	east := orb.Bound{Min: orb.Point{-180, b.Min[1]}, Max: orb.Point{maxX, b.Max[1]}}
	return []orb.Bound{west, east}
}
