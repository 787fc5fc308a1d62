package feedprep

import "github.com/lmichelin/feedprep/constants"

// SimplifyStations flattens the stop hierarchy down to boardable locations.
// Entrances, generic nodes and boarding areas are removed, and wherever a
// platform belongs to a station, visits and transfer hints are rewritten to
// the station and the platform row is removed. Running it twice is a no-op.
func (f *Feed) SimplifyStations() {
	f.Stops = keep(f.Stops, func(s Stop) bool {
		if s.Type <= LocationType_Station {
			return true
		}
		f.Audit.add(constants.Stop, s.Id, s.Name, "not a boardable location")
		return false
	})

	// parent maps each platform to its station, when that station exists.
	stations := map[string]bool{}
	for i := range f.Stops {
		if f.Stops[i].Type == LocationType_Station {
			stations[f.Stops[i].Id] = true
		}
	}
	if len(stations) == 0 {
		return
	}
	parent := map[string]string{}
	for i := range f.Stops {
		s := &f.Stops[i]
		if s.Type == LocationType_Stop && s.ParentId != "" && stations[s.ParentId] {
			parent[s.Id] = s.ParentId
		}
	}

	for i := range f.StopVisits {
		if p, ok := parent[f.StopVisits[i].StopId]; ok {
			f.StopVisits[i].StopId = p
		}
	}
	for i := range f.Transfers {
		if p, ok := parent[f.Transfers[i].FromStopId]; ok {
			f.Transfers[i].FromStopId = p
		}
		if p, ok := parent[f.Transfers[i].ToStopId]; ok {
			f.Transfers[i].ToStopId = p
		}
	}

	f.Stops = keep(f.Stops, func(s Stop) bool {
		if _, child := parent[s.Id]; child {
			f.Audit.add(constants.Stop, s.Id, s.Name, "merged into parent station")
			return false
		}
		return true
	})
	// Stations now play the role of plain stops.
	for i := range f.Stops {
		if f.Stops[i].Type == LocationType_Station {
			f.Stops[i].Type = LocationType_Stop
			f.Stops[i].ParentId = ""
		}
	}
}
