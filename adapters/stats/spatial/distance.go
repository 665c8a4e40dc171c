// Package spatial implements the spatial autocorrelation engine:
// great-circle k-nearest-neighbor weight matrices and the Moran's I
// statistic with analytic and permutation-based significance.
package spatial

import (
	"math"

	"refugia/domain/atlas"
)

// earthRadiusKm is the mean Earth radius used for great-circle distances.
const earthRadiusKm = 6371.0

// Point is a coordinate on the sphere in WGS84 degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Haversine returns the great-circle distance between two coordinates in
// kilometers. Symmetric and monotonic in angular separation; the domain is
// global in scale, so planar distance is not acceptable here.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// DistanceTo returns the great-circle distance to another point in km.
func (p Point) DistanceTo(q Point) float64 {
	return Haversine(p.Lat, p.Lon, q.Lat, q.Lon)
}

// PointsOf extracts the coordinate sequence of a set of observations,
// preserving order so weight matrix rows line up with indicator entries.
func PointsOf(obs []atlas.LanguageObservation) []Point {
	points := make([]Point, len(obs))
	for i, o := range obs {
		points[i] = Point{Lat: o.Latitude, Lon: o.Longitude}
	}
	return points
}
