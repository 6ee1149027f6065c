package geo

import (
	"github.com/golang/geo/s2"
)

const EarthRadiusMeters = 6371000.0 // mean radius

// DistanceMeters is the great-circle distance between two points.
func DistanceMeters(a, b Point) float64 {
	p1 := s2.LatLngFromDegrees(a.Lat, a.Lon)
	p2 := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// Centroid is the arithmetic mean of the coordinates.
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	var lat, lon float64
	for _, p := range points {
		lat += p.Lat
		lon += p.Lon
	}
	n := float64(len(points))
	return Point{Lat: lat / n, Lon: lon / n}
}

// RadiusMeters is the largest distance from center to any of the points.
func RadiusMeters(center Point, points []Point) float64 {
	var r float64
	for _, p := range points {
		r = max(r, DistanceMeters(center, p))
	}
	return r
}
