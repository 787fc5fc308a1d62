package feedprep

// RouteType describes the mode of a route.
//
// This is a Go representation of the enum in the `route_type` column of
// routes.txt.
type RouteType int32

const (
	RouteType_Tram       RouteType = 0
	RouteType_Subway     RouteType = 1
	RouteType_Rail       RouteType = 2
	RouteType_Bus        RouteType = 3
	RouteType_Ferry      RouteType = 4
	RouteType_CableTram  RouteType = 5
	RouteType_AerialLift RouteType = 6
	RouteType_Funicular  RouteType = 7
	RouteType_TrolleyBus RouteType = 11
	RouteType_Monorail   RouteType = 12

	RouteType_Unknown RouteType = 10000
)

func parseRouteType(s string) RouteType {
	switch s {
	case "0":
		return RouteType_Tram
	case "1":
		return RouteType_Subway
	case "2":
		return RouteType_Rail
	case "3":
		return RouteType_Bus
	case "4":
		return RouteType_Ferry
	case "5":
		return RouteType_CableTram
	case "6":
		return RouteType_AerialLift
	case "7":
		return RouteType_Funicular
	case "11":
		return RouteType_TrolleyBus
	case "12":
		return RouteType_Monorail
	default:
		return RouteType_Unknown
	}
}

func (t RouteType) String() string {
	switch t {
	case RouteType_Tram:
		return "TRAM"
	case RouteType_Subway:
		return "SUBWAY"
	case RouteType_Rail:
		return "RAIL"
	case RouteType_Bus:
		return "BUS"
	case RouteType_Ferry:
		return "FERRY"
	case RouteType_CableTram:
		return "CABLE_TRAM"
	case RouteType_AerialLift:
		return "AERIAL_LIFT"
	case RouteType_Funicular:
		return "FUNICULAR"
	case RouteType_TrolleyBus:
		return "TROLLEY_BUS"
	case RouteType_Monorail:
		return "MONORAIL"
	default:
		return "UNKNOWN"
	}
}

// LocationType describes the kind of a stop.
//
// This is a Go representation of the enum in the `location_type` column of
// stops.txt.
type LocationType int32

const (
	LocationType_Stop           LocationType = 0
	LocationType_Station        LocationType = 1
	LocationType_EntranceOrExit LocationType = 2
	LocationType_GenericNode    LocationType = 3
	LocationType_BoardingArea   LocationType = 4
)

func parseLocationType(s string) LocationType {
	switch s {
	case "1":
		return LocationType_Station
	case "2":
		return LocationType_EntranceOrExit
	case "3":
		return LocationType_GenericNode
	case "4":
		return LocationType_BoardingArea
	default:
		return LocationType_Stop
	}
}

func (t LocationType) String() string {
	switch t {
	case LocationType_Stop:
		return "STOP"
	case LocationType_Station:
		return "STATION"
	case LocationType_EntranceOrExit:
		return "ENTRANCE_OR_EXIT"
	case LocationType_GenericNode:
		return "GENERIC_NODE"
	case LocationType_BoardingArea:
		return "BOARDING_AREA"
	default:
		return "UNKNOWN"
	}
}

// DirectionID distinguishes between trips going in opposite directions on
// the same route.
type DirectionID uint8

const (
	DirectionID_Unspecified DirectionID = 0
	DirectionID_True        DirectionID = 1
	DirectionID_False       DirectionID = 2
)

func parseDirectionID(s string) DirectionID {
	switch s {
	case "0":
		return DirectionID_False
	case "1":
		return DirectionID_True
	default:
		return DirectionID_Unspecified
	}
}

func (d DirectionID) String() string {
	switch d {
	case DirectionID_True:
		return "TRUE"
	case DirectionID_False:
		return "FALSE"
	default:
		return "UNSPECIFIED"
	}
}

// ExceptionType describes a calendar_dates.txt exception.
type ExceptionType int32

const (
	ServiceAdded   ExceptionType = 1
	ServiceRemoved ExceptionType = 2
)

func parseExceptionType(s string) ExceptionType {
	if s == "2" {
		return ServiceRemoved
	}
	return ServiceAdded
}

func (t ExceptionType) String() string {
	if t == ServiceRemoved {
		return "REMOVED"
	}
	return "ADDED"
}

// TransferType describes the kind of a transfer hint.
//
// This is a Go representation of the enum in the `transfer_type` column of
// transfers.txt.
type TransferType int32

const (
	TransferType_Recommended  TransferType = 0
	TransferType_Timed        TransferType = 1
	TransferType_RequiresTime TransferType = 2
	TransferType_NotPossible  TransferType = 3
)

func parseTransferType(s string) TransferType {
	switch s {
	case "1":
		return TransferType_Timed
	case "2":
		return TransferType_RequiresTime
	case "3":
		return TransferType_NotPossible
	default:
		return TransferType_Recommended
	}
}

func (t TransferType) String() string {
	switch t {
	case TransferType_Recommended:
		return "RECOMMENDED"
	case TransferType_Timed:
		return "TIMED"
	case TransferType_RequiresTime:
		return "REQUIRES_TIME"
	case TransferType_NotPossible:
		return "NOT_POSSIBLE"
	default:
		return "UNKNOWN"
	}
}
