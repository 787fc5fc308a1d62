// Package feedprep builds a structurally consistent in-memory model of a
// public transport schedule feed and derives transfer opportunities between
// independent services at nearby stops.
//
// A Feed is populated once by Load and then mutated in place by the
// normalization passes (NormalizeCalendar, SimplifyStations, Prune), each of
// which is idempotent. MatchTransfers and Pairs treat the feed as read-only
// and return derived value tables. A Feed is not safe for concurrent
// mutation; use Copy to obtain an independent instance.
package feedprep

import (
	"time"

	"github.com/lmichelin/feedprep/warnings"
)

// Feed holds the typed tables of one schedule dataset.
type Feed struct {
	// Name of the source directory or archive, without extension.
	Name string

	Agencies       []Agency
	Routes         []Route
	Trips          []Trip
	Stops          []Stop
	StopVisits     []StopVisit
	Calendars      []Calendar
	ServiceDates   []ServiceDate
	Transfers      []TransferHint
	FareAttributes []FareAttribute
	FareRules      []FareRule
	ShapePoints    []ShapePoint

	// Audit records every row the normalization passes remove.
	Audit *AuditLog

	// Warnings lists rows ingestion skipped.
	Warnings []warnings.Warning
}

// Agency corresponds to a single row in the agency.txt file.
type Agency struct {
	Id       string
	Name     string
	Url      string
	Timezone string
	Language string
	Phone    string
}

// Route corresponds to a single row in the routes.txt file.
type Route struct {
	Id        string
	AgencyId  string
	ShortName string
	LongName  string
	Type      RouteType
	Color     string
	TextColor string
}

// Trip corresponds to a single row in the trips.txt file.
type Trip struct {
	Id          string
	RouteId     string
	ServiceId   string
	DirectionId DirectionID
	Headsign    string
	ShortName   string
	BlockId     string
	ShapeId     string
}

// Stop corresponds to a single row in the stops.txt file.
type Stop struct {
	Id           string
	Code         string
	Name         string
	Longitude    *float64
	Latitude     *float64
	Type         LocationType
	ParentId     string
	PlatformCode string
}

// StopVisit is one scheduled arrival/departure event of a trip at a stop.
// Arrival and Departure are durations since midnight and may exceed 24h.
//
// StopVisits are kept ordered by (TripId, Sequence). A trip's consecutive
// visits form a run; runs are pruned as atomic units.
type StopVisit struct {
	TripId       string
	StopId       string
	Sequence     int
	Arrival      time.Duration
	Departure    time.Duration
	DistTraveled *float64
}

// Calendar is a weekly recurring service pattern from calendar.txt. After
// NormalizeCalendar the Calendars table is nil and all dates live in
// ServiceDates.
type Calendar struct {
	ServiceId string
	Monday    bool
	Tuesday   bool
	Wednesday bool
	Thursday  bool
	Friday    bool
	Saturday  bool
	Sunday    bool
	StartDate time.Time
	EndDate   time.Time
}

// RunsOn reports whether the weekly pattern includes the given weekday.
func (c *Calendar) RunsOn(day time.Weekday) bool {
	switch day {
	case time.Monday:
		return c.Monday
	case time.Tuesday:
		return c.Tuesday
	case time.Wednesday:
		return c.Wednesday
	case time.Thursday:
		return c.Thursday
	case time.Friday:
		return c.Friday
	case time.Saturday:
		return c.Saturday
	default:
		return c.Sunday
	}
}

// ServiceDate is one calendar date on which a service operates (or, before
// normalization, an explicit exception from calendar_dates.txt).
type ServiceDate struct {
	ServiceId     string
	Date          time.Time
	ExceptionType ExceptionType
}

// TransferHint corresponds to a single row in the transfers.txt file.
type TransferHint struct {
	FromStopId      string
	ToStopId        string
	Type            TransferType
	MinTransferTime *int32
}

// FareAttribute corresponds to a single row in the fare_attributes.txt file.
type FareAttribute struct {
	Id           string
	Price        string
	CurrencyType string
	AgencyId     string
}

// FareRule corresponds to a single row in the fare_rules.txt file.
type FareRule struct {
	FareId        string
	RouteId       string
	OriginId      string
	DestinationId string
}

// ShapePoint is one point of a trip geometry from shapes.txt.
type ShapePoint struct {
	ShapeId      string
	Latitude     float64
	Longitude    float64
	Sequence     int
	DistTraveled *float64
}

// TotalRows is the number of rows across all tables. The integrity engine
// iterates until this stops decreasing.
func (f *Feed) TotalRows() int {
	return len(f.Agencies) + len(f.Routes) + len(f.Trips) + len(f.Stops) +
		len(f.StopVisits) + len(f.Calendars) + len(f.ServiceDates) +
		len(f.Transfers) + len(f.FareAttributes) + len(f.FareRules) +
		len(f.ShapePoints)
}

// Description returns per-table row counts.
func (f *Feed) Description() map[string]int {
	return map[string]int{
		"agencies":        len(f.Agencies),
		"routes":          len(f.Routes),
		"trips":           len(f.Trips),
		"stops":           len(f.Stops),
		"stop_visits":     len(f.StopVisits),
		"calendars":       len(f.Calendars),
		"service_dates":   len(f.ServiceDates),
		"transfers":       len(f.Transfers),
		"fare_attributes": len(f.FareAttributes),
		"fare_rules":      len(f.FareRules),
		"shape_points":    len(f.ShapePoints),
	}
}

// Copy returns a deep, independent duplicate of the feed. Mutating the copy
// never affects the original.
func (f *Feed) Copy() *Feed {
	c := &Feed{
		Name:           f.Name,
		Agencies:       append([]Agency(nil), f.Agencies...),
		Routes:         append([]Route(nil), f.Routes...),
		Trips:          append([]Trip(nil), f.Trips...),
		Stops:          append([]Stop(nil), f.Stops...),
		StopVisits:     append([]StopVisit(nil), f.StopVisits...),
		Calendars:      append([]Calendar(nil), f.Calendars...),
		ServiceDates:   append([]ServiceDate(nil), f.ServiceDates...),
		Transfers:      append([]TransferHint(nil), f.Transfers...),
		FareAttributes: append([]FareAttribute(nil), f.FareAttributes...),
		FareRules:      append([]FareRule(nil), f.FareRules...),
		ShapePoints:    append([]ShapePoint(nil), f.ShapePoints...),
		Warnings:       append([]warnings.Warning(nil), f.Warnings...),
	}
	// The row slices above still share pointer targets with the original.
	for i := range c.Stops {
		c.Stops[i].Longitude = clonePtr(c.Stops[i].Longitude)
		c.Stops[i].Latitude = clonePtr(c.Stops[i].Latitude)
	}
	for i := range c.StopVisits {
		c.StopVisits[i].DistTraveled = clonePtr(c.StopVisits[i].DistTraveled)
	}
	for i := range c.Transfers {
		c.Transfers[i].MinTransferTime = clonePtr(c.Transfers[i].MinTransferTime)
	}
	for i := range c.ShapePoints {
		c.ShapePoints[i].DistTraveled = clonePtr(c.ShapePoints[i].DistTraveled)
	}
	if f.Audit != nil {
		c.Audit = f.Audit.Copy()
	}
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// run is one consecutive (TripId, ascending Sequence) slice of StopVisits.
type run struct {
	tripId     string
	start, end int // half-open index range into Feed.StopVisits
}

// visitRuns slices the ordered StopVisits table into runs. A new run begins
// when the trip id changes or the sequence number stops increasing.
func (f *Feed) visitRuns() []run {
	var runs []run
	for i := range f.StopVisits {
		v := &f.StopVisits[i]
		if len(runs) > 0 {
			last := &runs[len(runs)-1]
			prev := &f.StopVisits[i-1]
			if last.tripId == v.TripId && prev.Sequence < v.Sequence {
				last.end = i + 1
				continue
			}
		}
		runs = append(runs, run{tripId: v.TripId, start: i, end: i + 1})
	}
	return runs
}

// stopName resolves a stop id to its human label, or "" when unresolvable.
func (f *Feed) stopName(id string) string {
	for i := range f.Stops {
		if f.Stops[i].Id == id {
			return f.Stops[i].Name
		}
	}
	return ""
}

// routeName resolves a route id to its short name, or "" when unresolvable.
func (f *Feed) routeName(id string) string {
	for i := range f.Routes {
		if f.Routes[i].Id == id {
			return f.Routes[i].ShortName
		}
	}
	return ""
}
