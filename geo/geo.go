// Package geo provides the great-circle distance and travel-time estimates
// used when synthesizing connectivity between stops that have no scheduled
// service.
package geo

import (
	"math"

	"github.com/taigatrans/routegrid/model"
)

const (
	earthRadiusKM = 6371.0
	// Average ground speed assumed for synthesized shuttle routes.
	avgSpeedKMH = 60.0
	// Synthesized legs never report less than an hour of travel.
	minDurationMin = 60
)

// DistanceKM returns the haversine distance between two points, rounded to
// the nearest kilometer. Returns 0 if either endpoint has no coordinates.
func DistanceKM(a, b model.Coord) int {
	if a.IsZero() || b.IsZero() {
		return 0
	}
	dLat := (b.Lat - a.Lat) * math.Pi / 180.0
	dLon := (b.Lon - a.Lon) * math.Pi / 180.0
	la1 := a.Lat * math.Pi / 180.0
	la2 := b.Lat * math.Pi / 180.0
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(la1)*math.Cos(la2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	d := 2 * earthRadiusKM * math.Asin(math.Sqrt(h))
	return int(math.Round(d))
}

// EstimateDurationMin converts the distance between two points into minutes
// at the average shuttle speed, floored at the minimum leg duration.
func EstimateDurationMin(a, b model.Coord) int {
	km := DistanceKM(a, b)
	min := int(math.Round(float64(km) / avgSpeedKMH * 60.0))
	if min < minDurationMin {
		return minDurationMin
	}
	return min
}
