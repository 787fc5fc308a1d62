package feedprep

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestRand() *rand.Rand {
	return rand.New(rand.NewSource(7))
}

func TestCopyIsIndependent(t *testing.T) {
	feed := validFeed()
	feed.Stops[0].Latitude = ptr(48.85)
	feed.Stops[0].Longitude = ptr(2.35)
	feed.Transfers = []TransferHint{{FromStopId: "s1", ToStopId: "s2", MinTransferTime: ptr(int32(120))}}
	copied := feed.Copy()

	if diff := cmp.Diff(copied, feed); diff != "" {
		t.Fatalf("Copy() diff = %s", diff)
	}

	copied.Routes[0].Id = "changed"
	copied.StopVisits = copied.StopVisits[:1]
	copied.Audit.add("route", "changed", "", "test")
	// Pointer-typed fields must not alias the original rows.
	*copied.Stops[0].Latitude = 99
	*copied.Stops[0].Longitude = 99
	*copied.Transfers[0].MinTransferTime = 99

	if feed.Routes[0].Id != "route" {
		t.Errorf("mutating the copy changed the original route id to %q", feed.Routes[0].Id)
	}
	if len(feed.StopVisits) != 2 {
		t.Errorf("len(StopVisits) = %d, want 2", len(feed.StopVisits))
	}
	if len(feed.Audit.Records) != 0 {
		t.Errorf("Audit.Records = %v, want empty", feed.Audit.Records)
	}
	if got := *feed.Stops[0].Latitude; got == 99 {
		t.Error("mutating the copy changed the original stop latitude")
	}
	if got := *feed.Stops[0].Longitude; got == 99 {
		t.Error("mutating the copy changed the original stop longitude")
	}
	if got := *feed.Transfers[0].MinTransferTime; got == 99 {
		t.Error("mutating the copy changed the original transfer time")
	}
}

func TestVisitRuns(t *testing.T) {
	feed := &Feed{
		StopVisits: []StopVisit{
			{TripId: "t1", StopId: "a", Sequence: 1},
			{TripId: "t1", StopId: "b", Sequence: 2},
			{TripId: "t1", StopId: "c", Sequence: 3},
			// Sequence resets within the same trip id: a second run.
			{TripId: "t1", StopId: "a", Sequence: 1},
			{TripId: "t1", StopId: "b", Sequence: 2},
			{TripId: "t2", StopId: "a", Sequence: 5},
		},
	}
	runs := feed.visitRuns()
	want := []run{
		{tripId: "t1", start: 0, end: 3},
		{tripId: "t1", start: 3, end: 5},
		{tripId: "t2", start: 5, end: 6},
	}
	if diff := cmp.Diff(runs, want, cmp.AllowUnexported(run{})); diff != "" {
		t.Errorf("visitRuns() diff = %s", diff)
	}
}

func TestTotalRowsAndDescription(t *testing.T) {
	feed := validFeed()
	if got := feed.TotalRows(); got != 7 {
		t.Errorf("TotalRows() = %d, want 7", got)
	}
	desc := feed.Description()
	if desc["stop_visits"] != 2 {
		t.Errorf(`Description()["stop_visits"] = %d, want 2`, desc["stop_visits"])
	}
	if desc["routes"] != 1 {
		t.Errorf(`Description()["routes"] = %d, want 1`, desc["routes"])
	}
}

func TestSetDefaults(t *testing.T) {
	feed := validFeed()
	feed.Routes = []Route{
		{Id: "plain", Type: RouteType_Bus},
		{Id: "styled", Type: RouteType_Bus, Color: "FF0000", TextColor: "FFFFFF"},
	}
	feed.SetDefaults(newTestRand())

	if len(feed.Routes[0].Color) != 6 {
		t.Errorf("Routes[0].Color = %q, want a 6 digit hex color", feed.Routes[0].Color)
	}
	if feed.Routes[0].TextColor != "000000" {
		t.Errorf("Routes[0].TextColor = %q, want 000000", feed.Routes[0].TextColor)
	}
	if feed.Routes[1].Color != "FF0000" || feed.Routes[1].TextColor != "FFFFFF" {
		t.Errorf("Routes[1] colors changed: %+v", feed.Routes[1])
	}

	// The same seed yields the same colors.
	other := validFeed()
	other.Routes = []Route{{Id: "plain", Type: RouteType_Bus}}
	other.SetDefaults(newTestRand())
	if other.Routes[0].Color != feed.Routes[0].Color {
		t.Errorf("colors differ across identical seeds: %q vs %q", other.Routes[0].Color, feed.Routes[0].Color)
	}
}

func TestModalFilter(t *testing.T) {
	feed := validFeed()
	feed.Routes = append(feed.Routes, Route{Id: "train", AgencyId: "agency", Type: RouteType_Rail})
	feed.Trips = append(feed.Trips, Trip{Id: "train_trip", RouteId: "train", ServiceId: "weekday"})
	feed.StopVisits = append(feed.StopVisits,
		StopVisit{TripId: "train_trip", StopId: "s1", Sequence: 1},
		StopVisit{TripId: "train_trip", StopId: "s2", Sequence: 2},
	)

	buses := feed.ModalFilter(RouteType_Bus)

	if len(buses.Routes) != 1 || buses.Routes[0].Type != RouteType_Bus {
		t.Errorf("Routes = %v, want only the bus route", buses.Routes)
	}
	if len(buses.Trips) != 1 || buses.Trips[0].Id != "trip" {
		t.Errorf("Trips = %v, want only the bus trip", buses.Trips)
	}
	// The receiver keeps everything.
	if len(feed.Routes) != 2 || len(feed.Trips) != 2 {
		t.Errorf("ModalFilter mutated the receiver: %d routes, %d trips", len(feed.Routes), len(feed.Trips))
	}
}
