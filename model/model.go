package model

import "time"

// TransportMode identifies how a route segment is served.
type TransportMode string

const (
	ModeBus     TransportMode = "BUS"
	ModeFlight  TransportMode = "FLIGHT"
	ModeTrain   TransportMode = "TRAIN"
	ModeFerry   TransportMode = "FERRY"
	ModeShuttle TransportMode = "SHUTTLE" // always used for virtual routes

	// ModeTransfer marks derived same-city transfer edges; it never appears
	// on a persisted route.
	ModeTransfer TransportMode = "TRANSFER"
)

// StopKind is the heuristic stop classification used for transfer weighting.
type StopKind string

const (
	KindAirport       StopKind = "airport"
	KindFerryTerminal StopKind = "ferry_terminal"
	KindGround        StopKind = "ground"
)

// GridType marks which network layer a stop belongs to.
const MainGrid = "MAIN_GRID"

// Coord is a WGS84 point. The zero value means "no coordinates known".
type Coord struct {
	Lat float64
	Lon float64
}

// IsZero reports whether the coordinate is unset.
func (c Coord) IsZero() bool { return c.Lat == 0 && c.Lon == 0 }

// Stop is a boarding point, real (from authoritative data) or virtual
// (synthesized to guarantee connectivity).
type Stop struct {
	ID               string
	Name             string
	Coord            Coord
	CityID           string
	GridType         string
	IsAirport        bool
	IsRailwayStation bool
	IsVirtual        bool
	Metadata         map[string]string
}

// Route is a topology record between two stops, optionally passing through an
// ordered stop sequence.
type Route struct {
	ID          string
	FromStopID  string
	ToStopID    string
	StopSeq     []string
	Mode        TransportMode
	DistanceKM  int
	DurationMin int
	IsVirtual   bool
	Metadata    map[string]string
}

// Seq returns the route's ordered stop sequence, normalizing virtual routes
// (which carry no explicit sequence) to [From, To].
func (r Route) Seq() []string {
	if len(r.StopSeq) >= 2 {
		return r.StopSeq
	}
	return []string{r.FromStopID, r.ToStopID}
}

// SeasonalSchedule reports whether the route carries seasonal-schedule
// metadata, which switches on the ferry wait-time adjustment.
func (r Route) SeasonalSchedule() bool {
	_, ok := r.Metadata["seasonalSchedule"]
	return ok
}

// Flight is a scheduled trip instance on a route. Times are local "HH:MM".
type Flight struct {
	ID         string
	RouteID    string
	FromStopID string
	ToStopID   string
	Departure  string
	Arrival    string
	Weekdays   []time.Weekday
	Price      int
	IsVirtual  bool
}

// DatasetStats is the denormalized inventory summary stored on a dataset.
type DatasetStats struct {
	Stops         int
	VirtualStops  int
	Routes        int
	VirtualRoutes int
	Flights       int
}

// Dataset is one imported snapshot of the real transportation inventory.
type Dataset struct {
	Version   string
	Stats     DatasetStats
	CreatedAt time.Time
}

// Node is the graph projection of a stop. IsVirtual is re-derived at build
// time as "stop has no city" and may disagree with Stop.IsVirtual; consumers
// rely on this weaker signal, so it is kept as-is.
type Node struct {
	ID        string
	Coord     Coord
	CityID    string
	IsVirtual bool
}

// Edge is a derived weighted connection. Edges only exist inside a published
// snapshot, never as first-class store records.
type Edge struct {
	From       string
	To         string
	WeightMin  float64
	DistanceKM int
	Mode       TransportMode
	RouteID    string
}

// Neighbor is one adjacency entry in the published artifact.
type Neighbor struct {
	ID       string
	Weight   float64
	Metadata NeighborMeta
}

// NeighborMeta carries the edge attributes the route-search service reads.
type NeighborMeta struct {
	DistanceKM int
	Mode       TransportMode
	RouteID    string
}

// GraphSnapshot is the cache artifact consumed by the route-search service.
type GraphSnapshot struct {
	Version   string
	NodeIDs   []string
	Adjacency map[string][]Neighbor
	NodeCount int
	EdgeCount int
}

// GraphMetadata describes one immutable graph version. Exactly one record is
// active at a time; activation is the final step of a successful build.
type GraphMetadata struct {
	Version        string
	DatasetVersion string
	NodeCount      int
	EdgeCount      int
	BuildDuration  time.Duration
	CacheKey       string
	BackupPath     string
	Active         bool
	CreatedAt      time.Time
}
