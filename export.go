package feedprep

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lmichelin/feedprep/constants"
)

// Export writes the feed back out as fixed-name tabular files, either into
// a directory or, when compress is set, into a single zip archive at path.
// Re-loading the result yields the same model.
func (f *Feed) Export(path string, compress bool) error {
	tables := f.exportTables()
	if !compress {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return err
		}
		for _, table := range tables {
			if err := writeTableFile(filepath.Join(path, string(table.name)), table.rows); err != nil {
				return fmt.Errorf("failed to write %q: %w", table.name, err)
			}
		}
		return nil
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(out)
	for _, table := range tables {
		w, err := zw.Create(string(table.name))
		if err == nil {
			err = writeTable(w, table.rows)
		}
		if err != nil {
			out.Close()
			return fmt.Errorf("failed to write %q: %w", table.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

type exportTable struct {
	name constants.File
	rows [][]string
}

func writeTableFile(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeTable(file, rows); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func writeTable(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func (f *Feed) exportTables() []exportTable {
	var tables []exportTable
	add := func(name constants.File, header []string, rows [][]string) {
		if len(rows) == 0 {
			return
		}
		tables = append(tables, exportTable{name: name, rows: append([][]string{header}, rows...)})
	}

	rows := make([][]string, 0, len(f.Agencies))
	for _, a := range f.Agencies {
		rows = append(rows, []string{a.Id, a.Name, a.Url, a.Timezone, a.Language, a.Phone})
	}
	add(constants.AgencyFile,
		[]string{"agency_id", "agency_name", "agency_url", "agency_timezone", "agency_lang", "agency_phone"}, rows)

	rows = make([][]string, 0, len(f.Routes))
	for _, r := range f.Routes {
		rows = append(rows, []string{
			r.Id, r.AgencyId, r.ShortName, r.LongName,
			strconv.Itoa(int(r.Type)), r.Color, r.TextColor,
		})
	}
	add(constants.RoutesFile,
		[]string{"route_id", "agency_id", "route_short_name", "route_long_name", "route_type", "route_color", "route_text_color"}, rows)

	rows = make([][]string, 0, len(f.Stops))
	for _, s := range f.Stops {
		rows = append(rows, []string{
			s.Id, s.Code, s.Name,
			formatFloatPtr(s.Latitude), formatFloatPtr(s.Longitude),
			strconv.Itoa(int(s.Type)), s.ParentId, s.PlatformCode,
		})
	}
	add(constants.StopsFile,
		[]string{"stop_id", "stop_code", "stop_name", "stop_lat", "stop_lon", "location_type", "parent_station", "platform_code"}, rows)

	rows = make([][]string, 0, len(f.Calendars))
	for _, c := range f.Calendars {
		flag := func(b bool) string {
			if b {
				return "1"
			}
			return "0"
		}
		rows = append(rows, []string{
			c.ServiceId,
			flag(c.Monday), flag(c.Tuesday), flag(c.Wednesday), flag(c.Thursday),
			flag(c.Friday), flag(c.Saturday), flag(c.Sunday),
			formatFeedDate(c.StartDate), formatFeedDate(c.EndDate),
		})
	}
	add(constants.CalendarFile,
		[]string{"service_id", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday", "start_date", "end_date"}, rows)

	rows = make([][]string, 0, len(f.ServiceDates))
	for _, sd := range f.ServiceDates {
		rows = append(rows, []string{sd.ServiceId, formatFeedDate(sd.Date), strconv.Itoa(int(sd.ExceptionType))})
	}
	add(constants.CalendarDatesFile, []string{"service_id", "date", "exception_type"}, rows)

	rows = make([][]string, 0, len(f.Trips))
	for _, t := range f.Trips {
		rows = append(rows, []string{
			t.Id, t.RouteId, t.ServiceId, formatDirection(t.DirectionId),
			t.Headsign, t.ShortName, t.BlockId, t.ShapeId,
		})
	}
	add(constants.TripsFile,
		[]string{"trip_id", "route_id", "service_id", "direction_id", "trip_headsign", "trip_short_name", "block_id", "shape_id"}, rows)

	rows = make([][]string, 0, len(f.StopVisits))
	for _, v := range f.StopVisits {
		rows = append(rows, []string{
			v.TripId, formatFeedTime(v.Arrival), formatFeedTime(v.Departure),
			v.StopId, strconv.Itoa(v.Sequence), formatFloatPtr(v.DistTraveled),
		})
	}
	add(constants.StopTimesFile,
		[]string{"trip_id", "arrival_time", "departure_time", "stop_id", "stop_sequence", "shape_dist_traveled"}, rows)

	rows = make([][]string, 0, len(f.Transfers))
	for _, t := range f.Transfers {
		minTime := ""
		if t.MinTransferTime != nil {
			minTime = strconv.Itoa(int(*t.MinTransferTime))
		}
		rows = append(rows, []string{t.FromStopId, t.ToStopId, strconv.Itoa(int(t.Type)), minTime})
	}
	add(constants.TransfersFile,
		[]string{"from_stop_id", "to_stop_id", "transfer_type", "min_transfer_time"}, rows)

	rows = make([][]string, 0, len(f.FareAttributes))
	for _, fa := range f.FareAttributes {
		rows = append(rows, []string{fa.Id, fa.Price, fa.CurrencyType, fa.AgencyId})
	}
	add(constants.FareAttributesFile, []string{"fare_id", "price", "currency_type", "agency_id"}, rows)

	rows = make([][]string, 0, len(f.FareRules))
	for _, fr := range f.FareRules {
		rows = append(rows, []string{fr.FareId, fr.RouteId, fr.OriginId, fr.DestinationId})
	}
	add(constants.FareRulesFile, []string{"fare_id", "route_id", "origin_id", "destination_id"}, rows)

	rows = make([][]string, 0, len(f.ShapePoints))
	for _, p := range f.ShapePoints {
		rows = append(rows, []string{
			p.ShapeId,
			strconv.FormatFloat(p.Latitude, 'f', -1, 64),
			strconv.FormatFloat(p.Longitude, 'f', -1, 64),
			strconv.Itoa(p.Sequence), formatFloatPtr(p.DistTraveled),
		})
	}
	add(constants.ShapesFile,
		[]string{"shape_id", "shape_pt_lat", "shape_pt_lon", "shape_pt_sequence", "shape_dist_traveled"}, rows)

	return tables
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatDirection(d DirectionID) string {
	switch d {
	case DirectionID_False:
		return "0"
	case DirectionID_True:
		return "1"
	}
	return ""
}

// formatFeedTime renders a duration since midnight as hh:mm:ss. Hours past
// midnight keep counting up rather than wrapping.
func formatFeedTime(d time.Duration) string {
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total/60%60, total%60)
}

func formatFeedDate(t time.Time) string {
	return t.Format("20060102")
}
