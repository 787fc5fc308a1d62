package feedprep

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeCalendarExpandsWeeklyPattern(t *testing.T) {
	feed := validFeed()
	feed.ServiceDates = nil
	feed.Calendars = []Calendar{{
		ServiceId: "weekday",
		Monday:    true,
		Wednesday: true,
		Friday:    true,
		StartDate: date(2021, time.January, 1),
		EndDate:   date(2021, time.January, 15),
	}}

	require.NoError(t, feed.NormalizeCalendar(2021))

	// Jan 1 2021 is a Friday.
	want := []ServiceDate{
		{ServiceId: "weekday", Date: date(2021, time.January, 1), ExceptionType: ServiceAdded},
		{ServiceId: "weekday", Date: date(2021, time.January, 4), ExceptionType: ServiceAdded},
		{ServiceId: "weekday", Date: date(2021, time.January, 6), ExceptionType: ServiceAdded},
		{ServiceId: "weekday", Date: date(2021, time.January, 8), ExceptionType: ServiceAdded},
		{ServiceId: "weekday", Date: date(2021, time.January, 11), ExceptionType: ServiceAdded},
		{ServiceId: "weekday", Date: date(2021, time.January, 13), ExceptionType: ServiceAdded},
		{ServiceId: "weekday", Date: date(2021, time.January, 15), ExceptionType: ServiceAdded},
	}
	assert.Equal(t, want, feed.ServiceDates)
	assert.Nil(t, feed.Calendars)
}

func TestNormalizeCalendarMergesExceptions(t *testing.T) {
	feed := validFeed()
	feed.Calendars = []Calendar{{
		ServiceId: "weekday",
		Monday:    true,
		Wednesday: true,
		Friday:    true,
		StartDate: date(2021, time.January, 1),
		EndDate:   date(2021, time.January, 15),
	}}
	feed.ServiceDates = []ServiceDate{
		// Remove one pattern date and add an out-of-pattern one.
		{ServiceId: "weekday", Date: date(2021, time.January, 8), ExceptionType: ServiceRemoved},
		{ServiceId: "weekday", Date: date(2021, time.January, 2), ExceptionType: ServiceAdded},
	}

	require.NoError(t, feed.NormalizeCalendar(2021))

	dates := make([]time.Time, len(feed.ServiceDates))
	for i, sd := range feed.ServiceDates {
		dates[i] = sd.Date
	}
	assert.Contains(t, dates, date(2021, time.January, 2))
	assert.NotContains(t, dates, date(2021, time.January, 8))
	assert.Len(t, dates, 7)
}

func TestNormalizeCalendarDropsInvalidRanges(t *testing.T) {
	feed := validFeed()
	feed.Calendars = []Calendar{
		{
			ServiceId: "backwards",
			Monday:    true,
			StartDate: date(2021, time.June, 1),
			EndDate:   date(2021, time.January, 1),
		},
		{
			ServiceId: "weekday",
			Monday:    true,
			StartDate: date(2021, time.January, 4),
			EndDate:   date(2021, time.January, 4),
		},
	}
	// The broken service goes away entirely, its added exceptions with it.
	feed.ServiceDates = []ServiceDate{
		{ServiceId: "backwards", Date: date(2021, time.March, 1), ExceptionType: ServiceAdded},
	}

	require.NoError(t, feed.NormalizeCalendar(2021))

	require.Len(t, feed.ServiceDates, 1)
	assert.Equal(t, "weekday", feed.ServiceDates[0].ServiceId)
	require.Len(t, feed.Audit.Records, 1)
	assert.Equal(t, "backwards", feed.Audit.Records[0].Id)
}

func TestNormalizeCalendarFatalWhenEmpty(t *testing.T) {
	feed := validFeed()
	feed.Calendars = []Calendar{{
		ServiceId: "never",
		StartDate: date(2021, time.January, 1),
		EndDate:   date(2021, time.January, 31),
		// No weekday flags set.
	}}
	feed.ServiceDates = nil

	assert.Error(t, feed.NormalizeCalendar(2021))
}

func TestNormalizeCalendarFatalWhenYearEmpty(t *testing.T) {
	feed := validFeed()
	feed.Calendars = nil
	feed.ServiceDates = []ServiceDate{
		{ServiceId: "weekday", Date: date(2021, time.March, 1), ExceptionType: ServiceAdded},
	}

	assert.Error(t, feed.NormalizeCalendar(1999))
}

func TestNormalizeCalendarBoundsToYear(t *testing.T) {
	feed := validFeed()
	feed.Calendars = nil
	feed.ServiceDates = []ServiceDate{
		{ServiceId: "weekday", Date: date(2020, time.December, 31), ExceptionType: ServiceAdded},
		{ServiceId: "weekday", Date: date(2021, time.January, 1), ExceptionType: ServiceAdded},
		{ServiceId: "weekday", Date: date(2022, time.January, 1), ExceptionType: ServiceAdded},
	}

	require.NoError(t, feed.NormalizeCalendar(2021))

	require.Len(t, feed.ServiceDates, 1)
	assert.Equal(t, date(2021, time.January, 1), feed.ServiceDates[0].Date)
}

func TestNormalizeCalendarPicksBusiestYear(t *testing.T) {
	feed := validFeed()
	// Two trips run on the weekday service, one on the weekend service.
	feed.Trips = []Trip{
		{Id: "t1", RouteId: "route", ServiceId: "weekday"},
		{Id: "t2", RouteId: "route", ServiceId: "weekday"},
		{Id: "t3", RouteId: "route", ServiceId: "weekend"},
	}
	feed.Calendars = nil
	feed.ServiceDates = []ServiceDate{
		{ServiceId: "weekday", Date: date(2021, time.June, 1), ExceptionType: ServiceAdded},
		{ServiceId: "weekend", Date: date(2022, time.June, 4), ExceptionType: ServiceAdded},
	}

	require.NoError(t, feed.NormalizeCalendar(0))

	require.Len(t, feed.ServiceDates, 1)
	assert.Equal(t, 2021, feed.ServiceDates[0].Date.Year())
}

func TestNormalizeCalendarIsIdempotent(t *testing.T) {
	feed := validFeed()
	feed.Calendars = []Calendar{{
		ServiceId: "weekday",
		Monday:    true,
		StartDate: date(2021, time.January, 4),
		EndDate:   date(2021, time.January, 18),
	}}
	feed.ServiceDates = nil

	require.NoError(t, feed.NormalizeCalendar(2021))
	want := append([]ServiceDate(nil), feed.ServiceDates...)
	require.NoError(t, feed.NormalizeCalendar(2021))

	assert.Equal(t, want, feed.ServiceDates)
}
