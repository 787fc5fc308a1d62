package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantMeters             float64
		tolerance              float64
	}{
		{
			name: "same point returns zero",
			lat1: 48.8443, lon1: 2.3744,
			lat2: 48.8443, lon2: 2.3744,
			wantMeters: 0,
			tolerance:  0.001,
		},
		{
			name: "one ten-thousandth degree along the equator",
			lat1: 0, lon1: 0,
			lat2: 0, lon2: 0.0009,
			wantMeters: 100.08,
			tolerance:  0.1,
		},
		{
			name: "pole to pole",
			lat1: 90, lon1: 0,
			lat2: -90, lon2: 0,
			wantMeters: math.Pi * earthRadiusMeters,
			tolerance:  1,
		},
		{
			name: "quarter of the equator",
			lat1: 0, lon1: 0,
			lat2: 0, lon2: 90,
			wantMeters: math.Pi / 2 * earthRadiusMeters,
			tolerance:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.wantMeters, got, tt.tolerance)
		})
	}
}

func TestBoundingBoxRadius(t *testing.T) {
	latDeg, lonDeg := BoundingBoxRadius(0, 111_194.9)
	assert.InDelta(t, 1.0, latDeg, 0.001)
	assert.InDelta(t, 1.0, lonDeg, 0.001)

	// The longitude offset must widen away from the equator.
	_, lonDeg60 := BoundingBoxRadius(60, 111_194.9)
	assert.InDelta(t, 2.0, lonDeg60, 0.01)

	// Near the poles the offset stays finite.
	_, lonDegPole := BoundingBoxRadius(90, 100)
	assert.False(t, math.IsInf(lonDegPole, 1))
}
