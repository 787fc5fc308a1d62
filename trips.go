package feedprep

import (
	"fmt"
	"sort"
)

// NormalizeTrips gives every visit run its own trip id. Feeds sometimes reuse
// one trip id for several consecutive runs, visible as a sequence reset in the
// middle of the trip's stop visits. After this pass each run carries a distinct
// id, with the Trips row duplicated for every extra run, so a trip id always
// identifies a single journey.
func (f *Feed) NormalizeTrips() {
	runsByTrip := map[string][]run{}
	for _, r := range f.visitRuns() {
		runsByTrip[r.tripId] = append(runsByTrip[r.tripId], r)
	}

	taken := map[string]bool{}
	for i := range f.Trips {
		taken[f.Trips[i].Id] = true
	}
	for id := range runsByTrip {
		taken[id] = true
	}

	tripIndex := map[string]int{}
	for i := range f.Trips {
		tripIndex[f.Trips[i].Id] = i
	}

	renamed := false
	// Iterate the Trips table rather than the map so output is deterministic.
	for _, trip := range append([]Trip(nil), f.Trips...) {
		runs := runsByTrip[trip.Id]
		if len(runs) < 2 {
			continue
		}
		for n, r := range runs[1:] {
			id := fmt.Sprintf("%s_%d", trip.Id, n+2)
			for taken[id] {
				id += "_"
			}
			taken[id] = true
			for i := r.start; i < r.end; i++ {
				f.StopVisits[i].TripId = id
			}
			duplicate := f.Trips[tripIndex[trip.Id]]
			duplicate.Id = id
			f.Trips = append(f.Trips, duplicate)
			renamed = true
		}
	}
	if !renamed {
		return
	}

	// Renaming can break the (TripId, Sequence) ordering the rest of the
	// code relies on.
	sort.SliceStable(f.StopVisits, func(i, j int) bool {
		a, b := &f.StopVisits[i], &f.StopVisits[j]
		if a.TripId != b.TripId {
			return a.TripId < b.TripId
		}
		return a.Sequence < b.Sequence
	})
	sort.SliceStable(f.Trips, func(i, j int) bool {
		return f.Trips[i].Id < f.Trips[j].Id
	})
}
