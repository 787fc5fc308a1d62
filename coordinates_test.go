package feedprep

import (
	"math"
	"testing"

	"github.com/lmichelin/feedprep/constants"
)

// coordFeed is validFeed with positions and times filled in: s1 and s2 are
// about 111 meters apart with a five minute ride between them.
func coordFeed() *Feed {
	feed := validFeed()
	feed.Stops[0].Latitude = ptr(45.0)
	feed.Stops[0].Longitude = ptr(2.0)
	feed.Stops[1].Latitude = ptr(45.001)
	feed.Stops[1].Longitude = ptr(2.0)
	feed.StopVisits[0].Arrival = duration("08:00:00")
	feed.StopVisits[0].Departure = duration("08:00:00")
	feed.StopVisits[1].Arrival = duration("08:05:00")
	feed.StopVisits[1].Departure = duration("08:05:00")
	return feed
}

func TestDropBadCoordinatesKeepsValidStops(t *testing.T) {
	feed := coordFeed()
	feed.DropBadCoordinates(ByRouteType{})
	if len(feed.Stops) != 2 {
		t.Errorf("len(Stops) = %d, want 2", len(feed.Stops))
	}
	if len(feed.Audit.Records) != 0 {
		t.Errorf("Audit.Records = %v, want empty", feed.Audit.Records)
	}
}

func TestDropBadCoordinatesInvalidValues(t *testing.T) {
	for _, tc := range []struct {
		desc   string
		mutate func(*Stop)
	}{
		{"latitude out of range", func(s *Stop) { s.Latitude = ptr(200.0) }},
		{"longitude out of range", func(s *Stop) { s.Longitude = ptr(-200.0) }},
		{"null island", func(s *Stop) { s.Latitude = ptr(0.0); s.Longitude = ptr(0.0) }},
		{"missing latitude", func(s *Stop) { s.Latitude = nil }},
		{"not a number", func(s *Stop) { s.Longitude = ptr(math.NaN()) }},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			feed := coordFeed()
			tc.mutate(&feed.Stops[1])
			feed.DropBadCoordinates(ByRouteType{})
			for _, s := range feed.Stops {
				if s.Id == "s2" {
					t.Fatal("stop s2 survived with unusable coordinates")
				}
			}
			assertAudited(t, feed, constants.Stop, "s2")
			assertAuditReason(t, feed, "s2", "coordinates missing, zero or out of range")
		})
	}
}

func assertAuditReason(t *testing.T, feed *Feed, id, reason string) {
	t.Helper()
	for _, rec := range feed.Audit.Records {
		if rec.Id == id && rec.Reason == reason {
			return
		}
	}
	t.Errorf("Audit.Records = %v, want %s dropped for %q", feed.Audit.Records, id, reason)
}

func TestDropBadCoordinatesImplausibleSpeed(t *testing.T) {
	feed := coordFeed()
	// Move s2 about 111 km away while the timetable still claims a one
	// minute ride from s1, an approach speed in the thousands of km/h.
	feed.Stops[1].Latitude = ptr(46.0)
	feed.StopVisits[1].Arrival = duration("08:01:00")
	feed.StopVisits[1].Departure = duration("08:01:00")

	feed.DropBadCoordinates(ByRouteType{})

	for _, s := range feed.Stops {
		if s.Id == "s2" {
			t.Fatal("stop s2 survived an impossible timetable")
		}
	}
	assertAuditReason(t, feed, "s2", "implausible approach speed")
}

func TestDropBadCoordinatesSlowestApproachDecides(t *testing.T) {
	feed := coordFeed()
	feed.Stops[1].Latitude = ptr(46.0)
	feed.StopVisits[1].Arrival = duration("08:01:00")
	feed.StopVisits[1].Departure = duration("08:01:00")
	// A second trip covers the same 111 km in three hours. One express
	// segment does not condemn a stop that another trip reaches sanely.
	feed.Trips = append(feed.Trips, Trip{Id: "slow", RouteId: "route", ServiceId: "weekday"})
	feed.StopVisits = append(feed.StopVisits,
		StopVisit{TripId: "slow", StopId: "s1", Sequence: 1, Arrival: duration("09:00:00"), Departure: duration("09:00:00")},
		StopVisit{TripId: "slow", StopId: "s2", Sequence: 2, Arrival: duration("12:00:00"), Departure: duration("12:00:00")},
	)

	feed.DropBadCoordinates(ByRouteType{})

	if len(feed.Stops) != 2 {
		t.Errorf("len(Stops) = %d, want 2", len(feed.Stops))
	}
	if len(feed.Audit.Records) != 0 {
		t.Errorf("Audit.Records = %v, want empty", feed.Audit.Records)
	}
}

func TestDropBadCoordinatesPerModeOverride(t *testing.T) {
	feed := coordFeed()
	feed.Stops[1].Latitude = ptr(46.0)
	feed.StopVisits[1].Arrival = duration("09:00:00")
	feed.StopVisits[1].Departure = duration("09:00:00")
	// 111 km in an hour is fine for the default limit but not for a mode
	// capped at 100 km/h.
	feed.DropBadCoordinates(ByRouteType{
		Default: 120,
		ByType:  map[RouteType]float64{RouteType_Bus: 100},
	})
	assertAuditReason(t, feed, "s2", "implausible approach speed")
}

func TestNormalizePipelineDropsOutOfRangeStop(t *testing.T) {
	feed := coordFeed()
	feed.Stops = append(feed.Stops, Stop{Id: "s3", Name: "Nowhere", Latitude: ptr(200.0), Longitude: ptr(2.0)})
	feed.Trips = append(feed.Trips, Trip{Id: "t2", RouteId: "route", ServiceId: "weekday"})
	feed.StopVisits = append(feed.StopVisits,
		StopVisit{TripId: "t2", StopId: "s1", Sequence: 1, Arrival: duration("10:00:00"), Departure: duration("10:00:00")},
		StopVisit{TripId: "t2", StopId: "s3", Sequence: 2, Arrival: duration("10:10:00"), Departure: duration("10:10:00")},
	)

	feed.SimplifyStations()
	feed.DropBadCoordinates(ByRouteType{})
	if err := feed.NormalizeCalendar(2021); err != nil {
		t.Fatalf("NormalizeCalendar() err = %v, want nil", err)
	}
	feed.NormalizeTrips()
	feed.Prune("normalize")

	for _, s := range feed.Stops {
		if s.Id == "s3" {
			t.Fatal("stop s3 survived normalization with latitude 200")
		}
	}
	for _, tr := range feed.Trips {
		if tr.Id == "t2" {
			t.Error("trip t2 survived with its only destination removed")
		}
	}
	assertAuditReason(t, feed, "s3", "coordinates missing, zero or out of range")
}
