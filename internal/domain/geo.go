package domain

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// DistanceMeters returns the great-circle (haversine) distance between two
// (lon, lat) points on a spherical Earth.
func DistanceMeters(a, b orb.Point) float64 {
	return geo.DistanceHaversine(a, b)
}

// Centroid returns the arithmetic mean of the points. Callers pass points in
// a fixed order so the floating-point result is reproducible. Groups that
// straddle the antimeridian are averaged in 0..360 longitude space.
func Centroid(points []orb.Point) orb.Point {
	if len(points) == 0 {
		return orb.Point{}
	}
	minLon, maxLon := points[0][0], points[0][0]
	for _, p := range points[1:] {
		minLon = min(minLon, p[0])
		maxLon = max(maxLon, p[0])
	}
	wrap := maxLon-minLon > 180

	var sumLon, sumLat float64
	for _, p := range points {
		lon := p[0]
		if wrap && lon < 0 {
			lon += 360
		}
		sumLon += lon
		sumLat += p[1]
	}
	n := float64(len(points))
	lon := sumLon / n
	if lon > 180 {
		lon -= 360
	}
	return orb.Point{lon, sumLat / n}
}
