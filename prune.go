package feedprep

import (
	"fmt"

	"github.com/lmichelin/feedprep/constants"
)

// Prune removes every row that breaks the feed's referential integrity: rows
// with duplicated unique keys, rows referencing keys that no longer exist,
// and keyed rows nothing references anymore. Removing a row can orphan rows
// in other tables, so the battery of checks repeats until the feed's total
// row count stops decreasing.
//
// Trip runs in the StopVisits table are treated atomically: when any visit
// of a run must go, the whole run goes, and runs shorter than two visits are
// removed outright. Every removed identifier is recorded in the audit log
// exactly once, tagged with the given label.
func (f *Feed) Prune(label string) {
	a := &auditor{feed: f, label: label, seen: map[string]bool{}}
	for {
		before := f.TotalRows()
		f.pruneShortRuns(a)
		f.pruneStops(a)
		f.pruneAgencies(a)
		f.pruneRoutes(a)
		f.pruneServices(a)
		f.pruneTrips(a)
		if f.TotalRows() == before {
			break
		}
	}
	f.pruneShapePoints(a)
}

// auditor records removals in the feed's audit log, deduplicating so that a
// key dropped in one pass and re-encountered in the next is logged once.
type auditor struct {
	feed  *Feed
	label string
	seen  map[string]bool
}

func (a *auditor) drop(entity constants.Entity, id, name, reason string) {
	key := string(entity) + "\x00" + id
	if a.seen[key] {
		return
	}
	a.seen[key] = true
	a.feed.Audit.add(entity, id, name, reason)
}

// uniqueKeys collects the key of every row, auditing rows whose key was
// already taken. The returned keep set excludes the duplicates themselves
// but not their first occurrence.
func uniqueKeys[T any](a *auditor, entity constants.Entity, rows []T, key, name func(T) string) map[string]bool {
	keys := make(map[string]bool, len(rows))
	for _, row := range rows {
		k := key(row)
		if keys[k] {
			a.drop(entity, k, name(row), "duplicated")
			continue
		}
		keys[k] = true
	}
	return keys
}

func keep[T any](rows []T, pred func(T) bool) []T {
	out := rows[:0]
	for _, row := range rows {
		if pred(row) {
			out = append(out, row)
		}
	}
	return out
}

// firstOccurrence reports whether this row is the first with its key, for
// filtering duplicates while keeping the initial row.
func firstOccurrence[T any](key func(T) string) func(T) bool {
	seen := map[string]bool{}
	return func(row T) bool {
		k := key(row)
		if seen[k] {
			return false
		}
		seen[k] = true
		return true
	}
}

// keepRuns filters the StopVisits table run by run, auditing each removed
// run under its trip id.
func (f *Feed) keepRuns(a *auditor, reason string, pred func(r run) bool) {
	var next []StopVisit
	for _, r := range f.visitRuns() {
		if pred(r) {
			next = append(next, f.StopVisits[r.start:r.end]...)
			continue
		}
		a.drop(constants.Trip, r.tripId, "", reason)
	}
	f.StopVisits = next
}

func (f *Feed) pruneShortRuns(a *auditor) {
	f.keepRuns(a, "trip visits fewer than two stops", func(r run) bool {
		return r.end-r.start >= 2
	})
}

// pruneStops intersects stop ids between the Stops table and the StopVisits
// table. Transfer hints participate as an optional table: a hint survives
// only while both of its endpoints do.
func (f *Feed) pruneStops(a *auditor) {
	stopIds := uniqueKeys(a, constants.Stop, f.Stops,
		func(s Stop) string { return s.Id },
		func(s Stop) string { return s.Name })
	visited := map[string]bool{}
	for i := range f.StopVisits {
		visited[f.StopVisits[i].StopId] = true
	}

	first := firstOccurrence(func(s Stop) string { return s.Id })
	f.Stops = keep(f.Stops, func(s Stop) bool {
		if !first(s) {
			return false
		}
		if !visited[s.Id] {
			a.drop(constants.Stop, s.Id, s.Name, a.label)
			return false
		}
		return true
	})

	f.keepRuns(a, a.label, func(r run) bool {
		for _, v := range f.StopVisits[r.start:r.end] {
			if !stopIds[v.StopId] {
				return false
			}
		}
		return true
	})

	valid := map[string]bool{}
	for i := range f.Stops {
		valid[f.Stops[i].Id] = true
	}
	f.Transfers = keep(f.Transfers, func(t TransferHint) bool {
		if valid[t.FromStopId] && valid[t.ToStopId] {
			return true
		}
		a.drop(constants.Transfer, fmt.Sprintf("%s:%s", t.FromStopId, t.ToStopId), "", a.label)
		return false
	})
}

// pruneAgencies intersects agency ids between the Agencies and Routes
// tables, with fare attributes as an optional participant.
func (f *Feed) pruneAgencies(a *auditor) {
	agencyIds := uniqueKeys(a, constants.Agency, f.Agencies,
		func(ag Agency) string { return ag.Id },
		func(ag Agency) string { return ag.Name })
	used := map[string]bool{}
	for i := range f.Routes {
		used[f.Routes[i].AgencyId] = true
	}

	first := firstOccurrence(func(ag Agency) string { return ag.Id })
	f.Agencies = keep(f.Agencies, func(ag Agency) bool {
		if !first(ag) {
			return false
		}
		if !used[ag.Id] {
			a.drop(constants.Agency, ag.Id, ag.Name, a.label)
			return false
		}
		return true
	})

	f.Routes = keep(f.Routes, func(r Route) bool {
		if agencyIds[r.AgencyId] {
			return true
		}
		a.drop(constants.Route, r.Id, r.ShortName, a.label)
		return false
	})

	if len(f.FareAttributes) > 0 {
		valid := map[string]bool{}
		for i := range f.Agencies {
			valid[f.Agencies[i].Id] = true
		}
		f.FareAttributes = keep(f.FareAttributes, func(fa FareAttribute) bool {
			if fa.AgencyId == "" || valid[fa.AgencyId] {
				return true
			}
			a.drop(constants.Fare, fa.Id, "", a.label)
			return false
		})
	}
}

// pruneRoutes intersects route ids between the Routes and Trips tables,
// with fare rules as an optional participant.
func (f *Feed) pruneRoutes(a *auditor) {
	routeIds := uniqueKeys(a, constants.Route, f.Routes,
		func(r Route) string { return r.Id },
		func(r Route) string { return r.ShortName })
	used := map[string]bool{}
	for i := range f.Trips {
		used[f.Trips[i].RouteId] = true
	}

	first := firstOccurrence(func(r Route) string { return r.Id })
	f.Routes = keep(f.Routes, func(r Route) bool {
		if !first(r) {
			return false
		}
		if !used[r.Id] {
			a.drop(constants.Route, r.Id, r.ShortName, a.label)
			return false
		}
		return true
	})

	f.Trips = keep(f.Trips, func(t Trip) bool {
		if routeIds[t.RouteId] {
			return true
		}
		a.drop(constants.Trip, t.Id, t.Headsign, a.label)
		return false
	})

	if len(f.FareRules) > 0 {
		valid := map[string]bool{}
		for i := range f.Routes {
			valid[f.Routes[i].Id] = true
		}
		f.FareRules = keep(f.FareRules, func(fr FareRule) bool {
			if fr.RouteId == "" || valid[fr.RouteId] {
				return true
			}
			a.drop(constants.Fare, fr.FareId, "", a.label)
			return false
		})
	}
}

// pruneServices intersects service ids between the trips that use them and
// the calendar tables that define them. Neither side is a unique table: a
// service id may legitimately span several calendar date rows.
func (f *Feed) pruneServices(a *auditor) {
	defined := map[string]bool{}
	for i := range f.Calendars {
		defined[f.Calendars[i].ServiceId] = true
	}
	for i := range f.ServiceDates {
		defined[f.ServiceDates[i].ServiceId] = true
	}
	used := map[string]bool{}
	for i := range f.Trips {
		used[f.Trips[i].ServiceId] = true
	}

	f.Trips = keep(f.Trips, func(t Trip) bool {
		if defined[t.ServiceId] {
			return true
		}
		a.drop(constants.Trip, t.Id, t.Headsign, a.label)
		return false
	})
	f.Calendars = keep(f.Calendars, func(c Calendar) bool {
		if used[c.ServiceId] {
			return true
		}
		a.drop(constants.Service, c.ServiceId, "", a.label)
		return false
	})
	f.ServiceDates = keep(f.ServiceDates, func(sd ServiceDate) bool {
		if used[sd.ServiceId] {
			return true
		}
		a.drop(constants.Service, sd.ServiceId, "", a.label)
		return false
	})
}

// pruneTrips intersects trip ids between the Trips and StopVisits tables.
func (f *Feed) pruneTrips(a *auditor) {
	tripIds := uniqueKeys(a, constants.Trip, f.Trips,
		func(t Trip) string { return t.Id },
		func(t Trip) string { return t.Headsign })
	visited := map[string]bool{}
	for i := range f.StopVisits {
		visited[f.StopVisits[i].TripId] = true
	}

	first := firstOccurrence(func(t Trip) string { return t.Id })
	f.Trips = keep(f.Trips, func(t Trip) bool {
		if !first(t) {
			return false
		}
		if !visited[t.Id] {
			a.drop(constants.Trip, t.Id, t.Headsign, a.label)
			return false
		}
		return true
	})

	f.keepRuns(a, a.label, func(r run) bool {
		return tripIds[r.tripId]
	})
}

// pruneShapePoints drops the points of shapes no surviving trip references.
// Shapes reference nothing themselves, so one pass after the fixed-point
// loop suffices.
func (f *Feed) pruneShapePoints(a *auditor) {
	used := map[string]bool{}
	for i := range f.Trips {
		if id := f.Trips[i].ShapeId; id != "" {
			used[id] = true
		}
	}
	f.ShapePoints = keep(f.ShapePoints, func(p ShapePoint) bool {
		if used[p.ShapeId] {
			return true
		}
		a.drop(constants.Shape, p.ShapeId, "", a.label)
		return false
	})
}
