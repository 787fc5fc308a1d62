// Package constants holds names shared between the feedprep packages.
package constants

// File is the name of one tabular file inside a feed directory or archive.
type File string

const (
	AgencyFile         File = "agency.txt"
	RoutesFile         File = "routes.txt"
	TripsFile          File = "trips.txt"
	StopsFile          File = "stops.txt"
	StopTimesFile      File = "stop_times.txt"
	CalendarFile       File = "calendar.txt"
	CalendarDatesFile  File = "calendar_dates.txt"
	TransfersFile      File = "transfers.txt"
	FareAttributesFile File = "fare_attributes.txt"
	FareRulesFile      File = "fare_rules.txt"
	ShapesFile         File = "shapes.txt"
)

// Entity identifies the kind of row an audit record refers to.
type Entity string

const (
	Agency   Entity = "agency"
	Route    Entity = "route"
	Stop     Entity = "stop"
	Trip     Entity = "trip"
	Service  Entity = "service"
	Fare     Entity = "fare"
	Shape    Entity = "shape"
	Transfer Entity = "transfer"
)
