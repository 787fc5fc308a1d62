package feedprep

import (
	"fmt"
	"sort"
	"time"

	"github.com/lmichelin/feedprep/constants"
)

// NormalizeCalendar rewrites the two-table calendar into a single list of
// explicit service dates. Weekly patterns are expanded day by day, calendar
// date exceptions are merged on top, and the result is bounded to a single
// calendar year: the given one, or the year with the most trips when year
// is zero. Afterwards Calendars is nil and every ServiceDate row carries
// the added exception type.
//
// An empty result is a fatal error: a feed without a single service date
// cannot run anything.
func (f *Feed) NormalizeCalendar(year int) error {
	active := map[serviceDay]bool{}
	invalid := map[string]bool{}

	for _, cal := range f.Calendars {
		if cal.StartDate.After(cal.EndDate) {
			f.Audit.add(constants.Service, cal.ServiceId, "", "start date after end date")
			invalid[cal.ServiceId] = true
			continue
		}
		for d := cal.StartDate; !d.After(cal.EndDate); d = d.AddDate(0, 0, 1) {
			if cal.RunsOn(d.Weekday()) {
				active[serviceDay{cal.ServiceId, d}] = true
			}
		}
	}
	for _, sd := range f.ServiceDates {
		// A service whose weekly range is nonsense is dropped outright,
		// exceptions included.
		if invalid[sd.ServiceId] {
			continue
		}
		day := serviceDay{sd.ServiceId, sd.Date}
		switch sd.ExceptionType {
		case ServiceAdded:
			active[day] = true
		case ServiceRemoved:
			delete(active, day)
		}
	}
	if len(active) == 0 {
		return fmt.Errorf("feed %q has no active service dates", f.Name)
	}

	if year == 0 {
		year = f.busiestYear(active)
	}
	dates := make([]ServiceDate, 0, len(active))
	for day := range active {
		if day.date.Year() != year {
			continue
		}
		dates = append(dates, ServiceDate{
			ServiceId:     day.serviceId,
			Date:          day.date,
			ExceptionType: ServiceAdded,
		})
	}
	if len(dates) == 0 {
		return fmt.Errorf("feed %q has no active service dates in %d", f.Name, year)
	}
	sort.Slice(dates, func(i, j int) bool {
		if dates[i].ServiceId != dates[j].ServiceId {
			return dates[i].ServiceId < dates[j].ServiceId
		}
		return dates[i].Date.Before(dates[j].Date)
	})

	f.Calendars = nil
	f.ServiceDates = dates
	return nil
}

// serviceDay is a (service id, service date) pair during normalization.
type serviceDay struct {
	serviceId string
	date      time.Time
}

// busiestYear picks the year whose service dates carry the most trips.
// Each date is weighted by the number of trips running on its service id.
// Ties go to the earliest year.
func (f *Feed) busiestYear(active map[serviceDay]bool) int {
	tripsPerService := map[string]int{}
	for i := range f.Trips {
		tripsPerService[f.Trips[i].ServiceId]++
	}
	perYear := map[int]int{}
	for day := range active {
		weight := tripsPerService[day.serviceId]
		if weight == 0 {
			weight = 1
		}
		perYear[day.date.Year()] += weight
	}
	best, bestCount := 0, -1
	for y, count := range perYear {
		if count > bestCount || (count == bestCount && y < best) {
			best, bestCount = y, count
		}
	}
	return best
}
