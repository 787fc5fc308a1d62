package feedprep

import (
	"math"

	"github.com/lmichelin/feedprep/constants"
	"github.com/lmichelin/feedprep/geo"
)

// defaultMaxSpeed caps the plausible approach speed per mode, in km/h. A stop
// that every serving trip would have to reach faster than this sits at the
// wrong coordinates.
var defaultMaxSpeed = ByRouteType{
	Default: 120,
	ByType: map[RouteType]float64{
		RouteType_Tram:       80,
		RouteType_Subway:     110,
		RouteType_Rail:       320,
		RouteType_Bus:        110,
		RouteType_Ferry:      80,
		RouteType_CableTram:  40,
		RouteType_AerialLift: 50,
		RouteType_Funicular:  50,
		RouteType_TrolleyBus: 90,
		RouteType_Monorail:   110,
	},
}

// DropBadCoordinates removes stops whose position cannot be trusted: missing
// coordinates, values outside the valid latitude and longitude ranges, the
// (0, 0) placeholder, and stops reachable only at an implausible speed. Each
// filter is followed by a pruning pass so dependent rows go with the stop.
// The zero value of maxSpeed applies the built-in per-mode limits.
func (f *Feed) DropBadCoordinates(maxSpeed ByRouteType) {
	if maxSpeed.Default == 0 && len(maxSpeed.ByType) == 0 {
		maxSpeed = defaultMaxSpeed
	}

	f.Stops = keep(f.Stops, func(s Stop) bool {
		if validCoordinates(&s) {
			return true
		}
		f.Audit.add(constants.Stop, s.Id, s.Name, "coordinates missing, zero or out of range")
		return false
	})
	f.Prune("bad coordinates")

	slowest, modes := f.slowestApproaches()
	f.Stops = keep(f.Stops, func(s Stop) bool {
		kmh, measured := slowest[s.Id]
		if !measured || kmh < maxSpeed.Value(modes[s.Id]) {
			return true
		}
		f.Audit.add(constants.Stop, s.Id, s.Name, "implausible approach speed")
		return false
	})
	f.Prune("implausible speed")
}

func validCoordinates(s *Stop) bool {
	if s.Latitude == nil || s.Longitude == nil {
		return false
	}
	lat, lon := *s.Latitude, *s.Longitude
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return false
	}
	return lat != 0 || lon != 0
}

// slowestApproaches computes, for every stop, the minimum speed in km/h at
// which any trip travels from the preceding stop, along with the mode of the
// first trip observed there. A misplaced stop inflates the distance of every
// segment ending at it, so even its slowest approach stays implausibly fast,
// while a single express segment does not condemn a well-placed stop. Segment
// time is departure at the stop minus arrival at the previous one, floored to
// a minute.
func (f *Feed) slowestApproaches() (map[string]float64, map[string]RouteType) {
	routeTypes := map[string]RouteType{}
	for i := range f.Routes {
		routeTypes[f.Routes[i].Id] = f.Routes[i].Type
	}
	tripTypes := map[string]RouteType{}
	for i := range f.Trips {
		tripTypes[f.Trips[i].Id] = routeTypes[f.Trips[i].RouteId]
	}
	coords := map[string][2]float64{}
	for i := range f.Stops {
		s := &f.Stops[i]
		if validCoordinates(s) {
			coords[s.Id] = [2]float64{*s.Latitude, *s.Longitude}
		}
	}

	slowest := map[string]float64{}
	modes := map[string]RouteType{}
	for _, r := range f.visitRuns() {
		for i := r.start + 1; i < r.end; i++ {
			prev, cur := &f.StopVisits[i-1], &f.StopVisits[i]
			from, okFrom := coords[prev.StopId]
			to, okTo := coords[cur.StopId]
			if !okFrom || !okTo {
				continue
			}
			meters := geo.Haversine(from[0], from[1], to[0], to[1])
			minutes := (cur.Departure - prev.Arrival).Minutes()
			if minutes < 1 {
				minutes = 1
			}
			kmh := 60 * meters / (minutes * 1000)
			if best, ok := slowest[cur.StopId]; !ok || kmh < best {
				slowest[cur.StopId] = kmh
			}
			if _, ok := modes[cur.StopId]; !ok {
				modes[cur.StopId] = tripTypes[cur.TripId]
			}
		}
	}
	return slowest, modes
}
