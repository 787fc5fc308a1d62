package feedprep

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// ByRouteType is a scalar that can be overridden per route type.
type ByRouteType struct {
	Default float64
	ByType  map[RouteType]float64
}

// Value resolves the setting for a route type, falling back to the default.
func (b ByRouteType) Value(t RouteType) float64 {
	if v, ok := b.ByType[t]; ok {
		return v
	}
	return b.Default
}

// TransferConfig controls transfer matching.
type TransferConfig struct {
	// MaxDistance is the longest walkable connection in meters.
	MaxDistance ByRouteType
	// MinDwell is the minimum connection slack in minutes, regardless of
	// how close the two stops are.
	MinDwell ByRouteType
	// WalkSpeed in meters per second, used to turn distance into dwell.
	WalkSpeed float64
	// MaxWait caps the admitted wait in minutes.
	MaxWait int
	// ReverseWait also reports by how many minutes the rider just missed
	// the previous departure.
	ReverseWait bool
	// KeepSameAgency keeps transfers between routes of the same agency.
	KeepSameAgency bool
}

func (cfg TransferConfig) validate() error {
	check := func(name string, b ByRouteType, allowZero bool) error {
		values := []float64{b.Default}
		for _, v := range b.ByType {
			values = append(values, v)
		}
		for _, v := range values {
			if math.IsNaN(v) || v < 0 || (!allowZero && v == 0) {
				return fmt.Errorf("transfer config: invalid %s %v", name, v)
			}
		}
		return nil
	}
	if err := check("max distance", cfg.MaxDistance, false); err != nil {
		return err
	}
	if err := check("min dwell", cfg.MinDwell, true); err != nil {
		return err
	}
	if cfg.WalkSpeed <= 0 || math.IsNaN(cfg.WalkSpeed) {
		return fmt.Errorf("transfer config: invalid walk speed %v", cfg.WalkSpeed)
	}
	if cfg.MaxWait <= 0 {
		return fmt.Errorf("transfer config: invalid max wait %d", cfg.MaxWait)
	}
	return nil
}

// TransferRecord is one admitted connection between two scheduled visits.
type TransferRecord struct {
	FromStopId    string
	FromStopName  string
	FromRouteId   string
	FromRouteName string
	FromTripId    string
	FromDirection DirectionID
	ToStopId      string
	ToStopName    string
	ToRouteId     string
	ToRouteName   string
	ToTripId      string
	ToDirection   DirectionID

	// Time is the arrival at the source stop.
	Time time.Duration
	// Distance between the two stops in meters.
	Distance float64
	// WaitMinutes from arrival to the boarded departure, floored.
	WaitMinutes int
	// ReverseWaitMinutes is the margin by which the previous departure was
	// missed, when requested and one exists.
	ReverseWaitMinutes *int
}

// visitEvent is one flattened stop visit with its trip context.
type visitEvent struct {
	tripId    string
	routeId   string
	direction DirectionID
	stopId    string
	arrival   time.Duration
	departure time.Duration
	first     bool
	last      bool
}

// stopGroup is every event sharing (stop, route, direction), with the
// group's operating envelope and location.
type stopGroup struct {
	stopId    string
	routeId   string
	routeType RouteType
	agencyId  string
	direction DirectionID
	lon, lat  float64
	start     time.Duration // earliest departure
	end       time.Duration // latest arrival
	events    []visitEvent  // sorted by (departure, tripId)
}

// MatchTransfers computes walkable connections between nearby stops. For
// every disembarkation at a stop it finds the next departure of each nearby
// route that a rider can reach on foot, and admits it when the wait stays
// under the configured cap.
func (f *Feed) MatchTransfers(cfg TransferConfig) ([]TransferRecord, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	groups := f.transferGroups()
	if len(groups) == 0 {
		return nil, nil
	}

	maxDistance := cfg.MaxDistance.Default
	for _, v := range cfg.MaxDistance.ByType {
		if v > maxDistance {
			maxDistance = v
		}
	}
	maxWait := time.Duration(cfg.MaxWait) * time.Minute

	type candidate struct {
		src, dst *stopGroup
		distance float64
		dwell    time.Duration
	}
	var candidates []candidate
	for _, pair := range Pairs(groups, func(g *stopGroup) (float64, float64) {
		return g.lon, g.lat
	}, maxDistance, true) {
		src, dst := pair.Left, pair.Right
		if src.routeId == dst.routeId {
			continue
		}
		if !cfg.KeepSameAgency && src.agencyId == dst.agencyId {
			continue
		}
		limit := math.Max(cfg.MaxDistance.Value(src.routeType), cfg.MaxDistance.Value(dst.routeType))
		if pair.Distance > limit {
			continue
		}
		walk := time.Duration(pair.Distance / cfg.WalkSpeed * float64(time.Second))
		dwell := time.Duration(math.Max(cfg.MinDwell.Value(src.routeType), cfg.MinDwell.Value(dst.routeType))*60) * time.Second
		if walk > dwell {
			dwell = walk
		}
		// The two envelopes must come within the allowed wait of each
		// other. Admission keys off event arrivals, so this filter must
		// stay a superset of what per-event matching can admit.
		if src.start-maxWait > dst.end || src.end+maxWait < dst.start {
			continue
		}
		candidates = append(candidates, candidate{src: src, dst: dst, distance: pair.Distance, dwell: dwell})
	}

	// One candidate per (source stop, source route, source direction,
	// target route, target direction), keeping the closest.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})
	type pairKey struct {
		srcStop  string
		srcRoute string
		srcDir   DirectionID
		dstRoute string
		dstDir   DirectionID
	}
	seenPairs := map[pairKey]bool{}
	var records []TransferRecord
	type recordKey struct {
		srcStop  string
		srcRoute string
		srcDir   DirectionID
		dstTrip  string
	}
	best := map[recordKey]int{}

	for _, c := range candidates {
		key := pairKey{c.src.stopId, c.src.routeId, c.src.direction, c.dst.routeId, c.dst.direction}
		if seenPairs[key] {
			continue
		}
		seenPairs[key] = true

		for _, ev := range c.src.events {
			if ev.last {
				// Nobody disembarks at the end of the line to reboard it.
				continue
			}
			if ev.arrival+maxWait < c.dst.start || ev.arrival > c.dst.end {
				continue
			}
			board := ev.arrival + c.dwell
			i := sort.Search(len(c.dst.events), func(i int) bool {
				return c.dst.events[i].departure >= board
			})
			for ; i < len(c.dst.events); i++ {
				if !c.dst.events[i].first {
					break
				}
			}
			if i >= len(c.dst.events) {
				continue
			}
			target := c.dst.events[i]
			wait := int(math.Floor((target.departure - ev.arrival).Minutes()))
			if wait >= cfg.MaxWait {
				continue
			}

			rec := TransferRecord{
				FromStopId:    c.src.stopId,
				FromStopName:  f.stopName(c.src.stopId),
				FromRouteId:   c.src.routeId,
				FromRouteName: f.routeName(c.src.routeId),
				FromTripId:    ev.tripId,
				FromDirection: c.src.direction,
				ToStopId:      c.dst.stopId,
				ToStopName:    f.stopName(c.dst.stopId),
				ToRouteId:     c.dst.routeId,
				ToRouteName:   f.routeName(c.dst.routeId),
				ToTripId:      target.tripId,
				ToDirection:   c.dst.direction,
				Time:          ev.arrival,
				Distance:      c.distance,
				WaitMinutes:   wait,
			}
			if cfg.ReverseWait {
				if j := lastDepartureBefore(c.dst.events, board); j >= 0 {
					missed := c.dst.events[j]
					rev := int(math.Floor((missed.departure - ev.arrival - c.dwell).Minutes()))
					rec.ReverseWaitMinutes = &rev
				}
			}

			rkey := recordKey{c.src.stopId, c.src.routeId, c.src.direction, target.tripId}
			if at, ok := best[rkey]; ok {
				if records[at].WaitMinutes <= rec.WaitMinutes {
					continue
				}
				records[at] = rec
				continue
			}
			best[rkey] = len(records)
			records = append(records, rec)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		a, b := &records[i], &records[j]
		if a.FromStopId != b.FromStopId {
			return a.FromStopId < b.FromStopId
		}
		if a.FromTripId != b.FromTripId {
			return a.FromTripId < b.FromTripId
		}
		if a.ToTripId != b.ToTripId {
			return a.ToTripId < b.ToTripId
		}
		return a.Time < b.Time
	})
	return records, nil
}

// lastDepartureBefore finds the latest non-first event departing strictly
// before the cutoff, or -1.
func lastDepartureBefore(events []visitEvent, cutoff time.Duration) int {
	i := sort.Search(len(events), func(i int) bool {
		return events[i].departure >= cutoff
	})
	for i--; i >= 0; i-- {
		if !events[i].first {
			return i
		}
	}
	return -1
}

// transferGroups flattens the schedule into located event groups keyed by
// (stop, route, direction). Stops without coordinates cannot be paired and
// are skipped.
func (f *Feed) transferGroups() []*stopGroup {
	routes := map[string]*Route{}
	for i := range f.Routes {
		routes[f.Routes[i].Id] = &f.Routes[i]
	}
	trips := map[string]*Trip{}
	for i := range f.Trips {
		trips[f.Trips[i].Id] = &f.Trips[i]
	}
	stops := map[string]*Stop{}
	for i := range f.Stops {
		stops[f.Stops[i].Id] = &f.Stops[i]
	}

	type groupKey struct {
		stopId    string
		routeId   string
		direction DirectionID
	}
	byKey := map[groupKey]*stopGroup{}
	var order []groupKey

	for _, r := range f.visitRuns() {
		trip := trips[r.tripId]
		if trip == nil {
			continue
		}
		route := routes[trip.RouteId]
		if route == nil {
			continue
		}
		for i := r.start; i < r.end; i++ {
			v := &f.StopVisits[i]
			stop := stops[v.StopId]
			if stop == nil || stop.Longitude == nil || stop.Latitude == nil {
				continue
			}
			ev := visitEvent{
				tripId:    trip.Id,
				routeId:   route.Id,
				direction: trip.DirectionId,
				stopId:    v.StopId,
				arrival:   v.Arrival,
				departure: v.Departure,
				first:     i == r.start,
				last:      i == r.end-1,
			}
			key := groupKey{v.StopId, route.Id, trip.DirectionId}
			g := byKey[key]
			if g == nil {
				g = &stopGroup{
					stopId:    v.StopId,
					routeId:   route.Id,
					routeType: route.Type,
					agencyId:  route.AgencyId,
					direction: trip.DirectionId,
					lon:       *stop.Longitude,
					lat:       *stop.Latitude,
					start:     ev.departure,
					end:       ev.arrival,
				}
				byKey[key] = g
				order = append(order, key)
			}
			if ev.departure < g.start {
				g.start = ev.departure
			}
			if ev.arrival > g.end {
				g.end = ev.arrival
			}
			g.events = append(g.events, ev)
		}
	}

	groups := make([]*stopGroup, 0, len(order))
	for _, key := range order {
		g := byKey[key]
		sort.SliceStable(g.events, func(i, j int) bool {
			if g.events[i].departure != g.events[j].departure {
				return g.events[i].departure < g.events[j].departure
			}
			return g.events[i].tripId < g.events[j].tripId
		})
		groups = append(groups, g)
	}
	return groups
}
