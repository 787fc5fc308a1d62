// Package geo provides great-circle distance helpers for stop coordinates.
package geo

import "math"

const earthRadiusMeters = 6_371_000

// Haversine returns the great-circle distance in meters between two lat/lon
// points in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// BoundingBoxRadius returns the approximate degree offsets covering radius
// meters at the given latitude. The longitude offset widens towards the
// poles; latitudes beyond ±89° are clamped to keep the offset finite.
func BoundingBoxRadius(lat, radiusMeters float64) (latDeg, lonDeg float64) {
	if lat > 89 {
		lat = 89
	} else if lat < -89 {
		lat = -89
	}
	latDeg = radiusMeters / earthRadiusMeters * (180 / math.Pi)
	lonDeg = latDeg / math.Cos(toRad(lat))
	return latDeg, lonDeg
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
