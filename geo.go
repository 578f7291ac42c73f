package main

import "math"

const earthRadiusMeters = 6371000

// minSpeedGapSeconds is the smallest sample gap worth deriving a speed from;
// below it GPS jitter dominates the distance term.
const minSpeedGapSeconds = 5

// distanceMeters returns the great-circle distance between two coordinates
// using the haversine formula.
func distanceMeters(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}

// impliedSpeedMps derives a speed in m/s from two timestamped samples. The
// second return is false when the samples are too close in time to give a
// meaningful figure.
func impliedSpeedMps(s1, s2 LocationSample) (float64, bool) {
	elapsed := s2.Timestamp.Sub(s1.Timestamp).Seconds()
	if elapsed <= minSpeedGapSeconds {
		return 0, false
	}
	return distanceMeters(s1.Coordinate, s2.Coordinate) / elapsed, true
}
