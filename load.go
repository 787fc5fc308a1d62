package feedprep

import (
	"archive/zip"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lmichelin/feedprep/constants"
	"github.com/lmichelin/feedprep/csv"
	"github.com/lmichelin/feedprep/warnings"
)

// Load reads a feed from a directory or a zip archive of fixed-name tabular
// files and returns the populated entity store.
//
// Structural problems are fatal: a missing required file, a required column
// absent from a header, a required file with zero data rows, or the absence
// of both calendar files. Row-level problems only skip the row and append a
// warning; cross-table inconsistencies are left for Prune to resolve.
func Load(path string) (*Feed, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if info.IsDir() {
		return LoadFS(os.DirFS(path), name)
	}
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%s is neither a directory nor a zip archive: %w", path, err)
	}
	defer r.Close()
	return LoadFS(&r.Reader, name)
}

// LoadFS reads a feed from any file system, such as an opened zip archive.
func LoadFS(fsys fs.FS, name string) (*Feed, error) {
	feed := &Feed{Name: name, Audit: NewAuditLog()}
	var haveCalendar, haveCalendarDates bool
	for _, table := range []struct {
		file     constants.File
		required bool
		seen     *bool
		parse    func(*csv.File) (int, error)
	}{
		{file: constants.AgencyFile, required: true, parse: func(f *csv.File) (int, error) { return parseAgencies(f, feed) }},
		{file: constants.RoutesFile, required: true, parse: func(f *csv.File) (int, error) { return parseRoutes(f, feed) }},
		{file: constants.StopsFile, required: true, parse: func(f *csv.File) (int, error) { return parseStops(f, feed) }},
		{file: constants.CalendarFile, seen: &haveCalendar, parse: func(f *csv.File) (int, error) { return parseCalendars(f, feed) }},
		{file: constants.CalendarDatesFile, seen: &haveCalendarDates, parse: func(f *csv.File) (int, error) { return parseServiceDates(f, feed) }},
		{file: constants.TripsFile, required: true, parse: func(f *csv.File) (int, error) { return parseTrips(f, feed) }},
		{file: constants.StopTimesFile, required: true, parse: func(f *csv.File) (int, error) { return parseStopVisits(f, feed) }},
		{file: constants.TransfersFile, parse: func(f *csv.File) (int, error) { return parseTransferHints(f, feed) }},
		{file: constants.FareAttributesFile, parse: func(f *csv.File) (int, error) { return parseFareAttributes(f, feed) }},
		{file: constants.FareRulesFile, parse: func(f *csv.File) (int, error) { return parseFareRules(f, feed) }},
		{file: constants.ShapesFile, parse: func(f *csv.File) (int, error) { return parseShapePoints(f, feed) }},
	} {
		file, err := openTabular(fsys, table.file)
		if errors.Is(err, fs.ErrNotExist) {
			if table.required {
				return nil, fmt.Errorf("feed %q does not contain the required file %q", name, table.file)
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		if table.seen != nil {
			*table.seen = true
		}
		rows, err := table.parse(file)
		closeErr := file.Close()
		if err != nil {
			return nil, err
		}
		if closeErr != nil {
			return nil, fmt.Errorf("failed to read %q: %w", table.file, closeErr)
		}
		if table.required && rows == 0 {
			return nil, fmt.Errorf("required file %q contains no data rows", table.file)
		}
	}
	if !haveCalendar && !haveCalendarDates {
		return nil, fmt.Errorf("feed %q contains neither %q nor %q", name, constants.CalendarFile, constants.CalendarDatesFile)
	}

	sort.SliceStable(feed.StopVisits, func(i, j int) bool {
		a, b := &feed.StopVisits[i], &feed.StopVisits[j]
		if a.TripId != b.TripId {
			return a.TripId < b.TripId
		}
		return a.Sequence < b.Sequence
	})
	sort.SliceStable(feed.ShapePoints, func(i, j int) bool {
		a, b := &feed.ShapePoints[i], &feed.ShapePoints[j]
		if a.ShapeId != b.ShapeId {
			return a.ShapeId < b.ShapeId
		}
		return a.Sequence < b.Sequence
	})

	// A route may omit its agency id when the feed has a unique agency.
	if len(feed.Agencies) == 1 {
		for i := range feed.Routes {
			if feed.Routes[i].AgencyId == "" {
				feed.Routes[i].AgencyId = feed.Agencies[0].Id
			}
		}
	}
	return feed, nil
}

func openTabular(fsys fs.FS, name constants.File) (*csv.File, error) {
	f, err := fsys.Open(string(name))
	if err != nil {
		return nil, err
	}
	file, err := csv.Open(name, f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", name, err)
	}
	return file, nil
}

func missingColumnsErr(file *csv.File) error {
	if cols := file.MissingRequiredColumns(); len(cols) > 0 {
		return fmt.Errorf("file %q is missing required columns %v", file.Name(), cols)
	}
	return nil
}

func skipRow(feed *Feed, file *csv.File) bool {
	if missing := file.MissingRowKeys(); len(missing) > 0 {
		feed.Warnings = append(feed.Warnings, warnings.RowMissingColumns{
			FileName:    file.Name(),
			RowNumber:   file.RowNumber(),
			MissingKeys: append([]string(nil), missing...),
		})
		return true
	}
	return false
}

func parseAgencies(file *csv.File, feed *Feed) (int, error) {
	id := file.Optional("agency_id")
	name := file.Required("agency_name")
	url := file.Required("agency_url")
	timezone := file.Required("agency_timezone")
	language := file.Optional("agency_lang")
	phone := file.Optional("agency_phone")
	if err := missingColumnsErr(file); err != nil {
		return 0, err
	}
	rows := 0
	for file.NextRow() {
		rows++
		agency := Agency{
			Name:     name.Read(),
			Url:      url.Read(),
			Timezone: timezone.Read(),
			Language: language.Read(),
			Phone:    phone.Read(),
		}
		agency.Id = id.ReadOr(fmt.Sprintf("%s_id", agency.Name))
		if skipRow(feed, file) {
			continue
		}
		feed.Agencies = append(feed.Agencies, agency)
	}
	return rows, nil
}

func parseRoutes(file *csv.File, feed *Feed) (int, error) {
	id := file.Required("route_id")
	routeType := file.Required("route_type")
	agencyId := file.Optional("agency_id")
	shortName := file.Optional("route_short_name")
	longName := file.Optional("route_long_name")
	color := file.Optional("route_color")
	textColor := file.Optional("route_text_color")
	if err := missingColumnsErr(file); err != nil {
		return 0, err
	}
	rows := 0
	for file.NextRow() {
		rows++
		route := Route{
			Id:        id.Read(),
			AgencyId:  agencyId.Read(),
			ShortName: shortName.Read(),
			LongName:  longName.Read(),
			Type:      parseRouteType(routeType.Read()),
			Color:     color.Read(),
			TextColor: textColor.Read(),
		}
		if skipRow(feed, file) {
			continue
		}
		feed.Routes = append(feed.Routes, route)
	}
	return rows, nil
}

func parseStops(file *csv.File, feed *Feed) (int, error) {
	id := file.Required("stop_id")
	code := file.Optional("stop_code")
	name := file.Optional("stop_name")
	lon := file.Optional("stop_lon")
	lat := file.Optional("stop_lat")
	locationType := file.Optional("location_type")
	parent := file.Optional("parent_station")
	platformCode := file.Optional("platform_code")
	if err := missingColumnsErr(file); err != nil {
		return 0, err
	}
	rows := 0
	for file.NextRow() {
		rows++
		stop := Stop{
			Id:           id.Read(),
			Code:         code.Read(),
			Name:         name.Read(),
			Longitude:    parseFloat(lon.Read()),
			Latitude:     parseFloat(lat.Read()),
			Type:         parseLocationType(locationType.Read()),
			ParentId:     parent.Read(),
			PlatformCode: platformCode.Read(),
		}
		if skipRow(feed, file) {
			continue
		}
		feed.Stops = append(feed.Stops, stop)
	}
	return rows, nil
}

func parseCalendars(file *csv.File, feed *Feed) (int, error) {
	serviceId := file.Required("service_id")
	days := [7]csv.Column{
		file.Required("monday"),
		file.Required("tuesday"),
		file.Required("wednesday"),
		file.Required("thursday"),
		file.Required("friday"),
		file.Required("saturday"),
		file.Required("sunday"),
	}
	startDate := file.Required("start_date")
	endDate := file.Required("end_date")
	if err := missingColumnsErr(file); err != nil {
		return 0, err
	}
	rows := 0
	for file.NextRow() {
		rows++
		start, startErr := parseFeedDate(startDate.Read())
		end, endErr := parseFeedDate(endDate.Read())
		cal := Calendar{
			ServiceId: serviceId.Read(),
			Monday:    days[0].Read() == "1",
			Tuesday:   days[1].Read() == "1",
			Wednesday: days[2].Read() == "1",
			Thursday:  days[3].Read() == "1",
			Friday:    days[4].Read() == "1",
			Saturday:  days[5].Read() == "1",
			Sunday:    days[6].Read() == "1",
			StartDate: start,
			EndDate:   end,
		}
		if skipRow(feed, file) {
			continue
		}
		if startErr != nil || endErr != nil {
			feed.Warnings = append(feed.Warnings, warnings.InvalidValue{
				FileName:  file.Name(),
				RowNumber: file.RowNumber(),
				Column:    "start_date/end_date",
				Value:     startDate.Read() + ".." + endDate.Read(),
			})
			continue
		}
		feed.Calendars = append(feed.Calendars, cal)
	}
	return rows, nil
}

func parseServiceDates(file *csv.File, feed *Feed) (int, error) {
	serviceId := file.Required("service_id")
	date := file.Required("date")
	exceptionType := file.Required("exception_type")
	if err := missingColumnsErr(file); err != nil {
		return 0, err
	}
	rows := 0
	for file.NextRow() {
		rows++
		day, err := parseFeedDate(date.Read())
		sd := ServiceDate{
			ServiceId:     serviceId.Read(),
			Date:          day,
			ExceptionType: parseExceptionType(exceptionType.Read()),
		}
		if skipRow(feed, file) {
			continue
		}
		if err != nil {
			feed.Warnings = append(feed.Warnings, warnings.InvalidValue{
				FileName:  file.Name(),
				RowNumber: file.RowNumber(),
				Column:    "date",
				Value:     date.Read(),
			})
			continue
		}
		feed.ServiceDates = append(feed.ServiceDates, sd)
	}
	return rows, nil
}

func parseTrips(file *csv.File, feed *Feed) (int, error) {
	id := file.Required("trip_id")
	routeId := file.Required("route_id")
	serviceId := file.Required("service_id")
	directionId := file.Optional("direction_id")
	headsign := file.Optional("trip_headsign")
	shortName := file.Optional("trip_short_name")
	blockId := file.Optional("block_id")
	shapeId := file.Optional("shape_id")
	if err := missingColumnsErr(file); err != nil {
		return 0, err
	}
	rows := 0
	for file.NextRow() {
		rows++
		trip := Trip{
			Id:          id.Read(),
			RouteId:     routeId.Read(),
			ServiceId:   serviceId.Read(),
			DirectionId: parseDirectionID(directionId.Read()),
			Headsign:    headsign.Read(),
			ShortName:   shortName.Read(),
			BlockId:     blockId.Read(),
			ShapeId:     shapeId.Read(),
		}
		if skipRow(feed, file) {
			continue
		}
		feed.Trips = append(feed.Trips, trip)
	}
	return rows, nil
}

func parseStopVisits(file *csv.File, feed *Feed) (int, error) {
	tripId := file.Required("trip_id")
	stopId := file.Required("stop_id")
	sequence := file.Required("stop_sequence")
	arrival := file.Optional("arrival_time")
	departure := file.Optional("departure_time")
	distTraveled := file.Optional("shape_dist_traveled")
	if err := missingColumnsErr(file); err != nil {
		return 0, err
	}
	rows := 0
	for file.NextRow() {
		rows++
		seq, seqErr := strconv.Atoi(strings.TrimSpace(sequence.Read()))
		visit := StopVisit{
			TripId:       tripId.Read(),
			StopId:       stopId.Read(),
			Sequence:     seq,
			DistTraveled: parseFloat(distTraveled.Read()),
		}
		if skipRow(feed, file) {
			continue
		}
		if seqErr != nil {
			feed.Warnings = append(feed.Warnings, warnings.InvalidValue{
				FileName:  file.Name(),
				RowNumber: file.RowNumber(),
				Column:    "stop_sequence",
				Value:     sequence.Read(),
			})
			continue
		}
		arr, arrErr := parseFeedTime(arrival.Read())
		dep, depErr := parseFeedTime(departure.Read())
		// A row may populate only one of the two times.
		switch {
		case arrErr == nil && depErr == nil:
			visit.Arrival, visit.Departure = arr, dep
		case arrErr == nil:
			visit.Arrival, visit.Departure = arr, arr
		case depErr == nil:
			visit.Arrival, visit.Departure = dep, dep
		default:
			feed.Warnings = append(feed.Warnings, warnings.InvalidValue{
				FileName:  file.Name(),
				RowNumber: file.RowNumber(),
				Column:    "arrival_time/departure_time",
				Value:     arrival.Read() + "/" + departure.Read(),
			})
			continue
		}
		feed.StopVisits = append(feed.StopVisits, visit)
	}
	return rows, nil
}

func parseTransferHints(file *csv.File, feed *Feed) (int, error) {
	from := file.Required("from_stop_id")
	to := file.Required("to_stop_id")
	transferType := file.Optional("transfer_type")
	minTime := file.Optional("min_transfer_time")
	if err := missingColumnsErr(file); err != nil {
		return 0, err
	}
	rows := 0
	for file.NextRow() {
		rows++
		hint := TransferHint{
			FromStopId:      from.Read(),
			ToStopId:        to.Read(),
			Type:            parseTransferType(transferType.Read()),
			MinTransferTime: parseInt32(minTime.Read()),
		}
		if skipRow(feed, file) {
			continue
		}
		feed.Transfers = append(feed.Transfers, hint)
	}
	return rows, nil
}

func parseFareAttributes(file *csv.File, feed *Feed) (int, error) {
	id := file.Required("fare_id")
	price := file.Required("price")
	currency := file.Required("currency_type")
	agencyId := file.Optional("agency_id")
	if err := missingColumnsErr(file); err != nil {
		return 0, err
	}
	rows := 0
	for file.NextRow() {
		rows++
		fare := FareAttribute{
			Id:           id.Read(),
			Price:        price.Read(),
			CurrencyType: currency.Read(),
			AgencyId:     agencyId.Read(),
		}
		if skipRow(feed, file) {
			continue
		}
		feed.FareAttributes = append(feed.FareAttributes, fare)
	}
	return rows, nil
}

func parseFareRules(file *csv.File, feed *Feed) (int, error) {
	fareId := file.Required("fare_id")
	routeId := file.Optional("route_id")
	originId := file.Optional("origin_id")
	destinationId := file.Optional("destination_id")
	if err := missingColumnsErr(file); err != nil {
		return 0, err
	}
	rows := 0
	for file.NextRow() {
		rows++
		rule := FareRule{
			FareId:        fareId.Read(),
			RouteId:       routeId.Read(),
			OriginId:      originId.Read(),
			DestinationId: destinationId.Read(),
		}
		if skipRow(feed, file) {
			continue
		}
		feed.FareRules = append(feed.FareRules, rule)
	}
	return rows, nil
}

func parseShapePoints(file *csv.File, feed *Feed) (int, error) {
	shapeId := file.Required("shape_id")
	lat := file.Required("shape_pt_lat")
	lon := file.Required("shape_pt_lon")
	sequence := file.Required("shape_pt_sequence")
	distTraveled := file.Optional("shape_dist_traveled")
	if err := missingColumnsErr(file); err != nil {
		return 0, err
	}
	rows := 0
	for file.NextRow() {
		rows++
		latV := parseFloat(lat.Read())
		lonV := parseFloat(lon.Read())
		seq, seqErr := strconv.Atoi(strings.TrimSpace(sequence.Read()))
		if skipRow(feed, file) {
			continue
		}
		if latV == nil || lonV == nil || seqErr != nil {
			feed.Warnings = append(feed.Warnings, warnings.InvalidValue{
				FileName:  file.Name(),
				RowNumber: file.RowNumber(),
				Column:    "shape_pt_lat/shape_pt_lon/shape_pt_sequence",
				Value:     lat.Read() + "/" + lon.Read() + "/" + sequence.Read(),
			})
			continue
		}
		feed.ShapePoints = append(feed.ShapePoints, ShapePoint{
			ShapeId:      shapeId.Read(),
			Latitude:     *latV,
			Longitude:    *lonV,
			Sequence:     seq,
			DistTraveled: parseFloat(distTraveled.Read()),
		})
	}
	return rows, nil
}

func parseFloat(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseInt32(raw string) *int32 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	i, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return nil
	}
	i32 := int32(i)
	return &i32
}

// parseFeedTime parses a schedule time of the form hh:mm:ss as a duration
// since midnight. Hours may exceed 23 for services running past midnight.
func parseFeedTime(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid time %q", raw)
	}
	var hms [3]int
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid time %q", raw)
		}
		hms[i] = v
	}
	if hms[1] > 59 || hms[2] > 59 {
		return 0, fmt.Errorf("invalid time %q", raw)
	}
	return time.Duration(hms[0])*time.Hour +
		time.Duration(hms[1])*time.Minute +
		time.Duration(hms[2])*time.Second, nil
}

// parseFeedDate parses a yyyymmdd calendar date in UTC.
func parseFeedDate(raw string) (time.Time, error) {
	return time.Parse("20060102", strings.TrimSpace(raw))
}
