package store

import (
	"encoding/json"
	"time"

	"github.com/taigatrans/routegrid/model"
)

// DB models are kept separate from the domain structs; slices and maps are
// flattened to JSON text columns so the schema stays portable across sqlite
// and server databases.

type stopModel struct {
	ID               string `gorm:"primaryKey"`
	Name             string
	Lat              float64
	Lon              float64
	CityID           string `gorm:"index"`
	GridType         string
	IsAirport        bool
	IsRailwayStation bool
	IsVirtual        bool `gorm:"index"`
	Metadata         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type routeModel struct {
	ID          string `gorm:"primaryKey"`
	FromStopID  string `gorm:"index"`
	ToStopID    string `gorm:"index"`
	StopSeq     string
	Mode        string
	DistanceKM  int
	DurationMin int
	IsVirtual   bool `gorm:"index"`
	Metadata    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type flightModel struct {
	ID         string `gorm:"primaryKey"`
	RouteID    string `gorm:"index"`
	FromStopID string
	ToStopID   string
	Departure  string
	Arrival    string
	Weekdays   string
	Price      int
	IsVirtual  bool `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type datasetModel struct {
	Version       string `gorm:"primaryKey"`
	Stops         int
	VirtualStops  int
	Routes        int
	VirtualRoutes int
	Flights       int
	CreatedAt     time.Time
}

type graphMetadataModel struct {
	Version         string `gorm:"primaryKey"`
	DatasetVersion  string `gorm:"index"`
	NodeCount       int
	EdgeCount       int
	BuildDurationMS int64
	CacheKey        string
	BackupPath      string
	Active          bool `gorm:"index"`
	CreatedAt       time.Time
}

type buildClaimModel struct {
	ID             uint   `gorm:"primaryKey"`
	DatasetVersion string `gorm:"uniqueIndex:idx_claim_version_stage"`
	Stage          string `gorm:"uniqueIndex:idx_claim_version_stage"`
	RunID          string
	CreatedAt      time.Time
}

func marshalJSON[T any](v T) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func unmarshalJSON[T any](s string) T {
	var v T
	if s != "" {
		_ = json.Unmarshal([]byte(s), &v)
	}
	return v
}

func toStopModel(s model.Stop) stopModel {
	return stopModel{
		ID:               s.ID,
		Name:             s.Name,
		Lat:              s.Coord.Lat,
		Lon:              s.Coord.Lon,
		CityID:           s.CityID,
		GridType:         s.GridType,
		IsAirport:        s.IsAirport,
		IsRailwayStation: s.IsRailwayStation,
		IsVirtual:        s.IsVirtual,
		Metadata:         marshalJSON(s.Metadata),
	}
}

func (m stopModel) toDomain() model.Stop {
	return model.Stop{
		ID:               m.ID,
		Name:             m.Name,
		Coord:            model.Coord{Lat: m.Lat, Lon: m.Lon},
		CityID:           m.CityID,
		GridType:         m.GridType,
		IsAirport:        m.IsAirport,
		IsRailwayStation: m.IsRailwayStation,
		IsVirtual:        m.IsVirtual,
		Metadata:         unmarshalJSON[map[string]string](m.Metadata),
	}
}

func toRouteModel(r model.Route) routeModel {
	return routeModel{
		ID:          r.ID,
		FromStopID:  r.FromStopID,
		ToStopID:    r.ToStopID,
		StopSeq:     marshalJSON(r.StopSeq),
		Mode:        string(r.Mode),
		DistanceKM:  r.DistanceKM,
		DurationMin: r.DurationMin,
		IsVirtual:   r.IsVirtual,
		Metadata:    marshalJSON(r.Metadata),
	}
}

func (m routeModel) toDomain() model.Route {
	return model.Route{
		ID:          m.ID,
		FromStopID:  m.FromStopID,
		ToStopID:    m.ToStopID,
		StopSeq:     unmarshalJSON[[]string](m.StopSeq),
		Mode:        model.TransportMode(m.Mode),
		DistanceKM:  m.DistanceKM,
		DurationMin: m.DurationMin,
		IsVirtual:   m.IsVirtual,
		Metadata:    unmarshalJSON[map[string]string](m.Metadata),
	}
}

func toFlightModel(f model.Flight) flightModel {
	return flightModel{
		ID:         f.ID,
		RouteID:    f.RouteID,
		FromStopID: f.FromStopID,
		ToStopID:   f.ToStopID,
		Departure:  f.Departure,
		Arrival:    f.Arrival,
		Weekdays:   marshalJSON(f.Weekdays),
		Price:      f.Price,
		IsVirtual:  f.IsVirtual,
	}
}

func (m flightModel) toDomain() model.Flight {
	return model.Flight{
		ID:         m.ID,
		RouteID:    m.RouteID,
		FromStopID: m.FromStopID,
		ToStopID:   m.ToStopID,
		Departure:  m.Departure,
		Arrival:    m.Arrival,
		Weekdays:   unmarshalJSON[[]time.Weekday](m.Weekdays),
		Price:      m.Price,
		IsVirtual:  m.IsVirtual,
	}
}

func (m datasetModel) toDomain() model.Dataset {
	return model.Dataset{
		Version: m.Version,
		Stats: model.DatasetStats{
			Stops:         m.Stops,
			VirtualStops:  m.VirtualStops,
			Routes:        m.Routes,
			VirtualRoutes: m.VirtualRoutes,
			Flights:       m.Flights,
		},
		CreatedAt: m.CreatedAt,
	}
}

func toGraphMetadataModel(g model.GraphMetadata) graphMetadataModel {
	return graphMetadataModel{
		Version:         g.Version,
		DatasetVersion:  g.DatasetVersion,
		NodeCount:       g.NodeCount,
		EdgeCount:       g.EdgeCount,
		BuildDurationMS: g.BuildDuration.Milliseconds(),
		CacheKey:        g.CacheKey,
		BackupPath:      g.BackupPath,
		Active:          g.Active,
		CreatedAt:       g.CreatedAt,
	}
}

func (m graphMetadataModel) toDomain() model.GraphMetadata {
	return model.GraphMetadata{
		Version:        m.Version,
		DatasetVersion: m.DatasetVersion,
		NodeCount:      m.NodeCount,
		EdgeCount:      m.EdgeCount,
		BuildDuration:  time.Duration(m.BuildDurationMS) * time.Millisecond,
		CacheKey:       m.CacheKey,
		BackupPath:     m.BackupPath,
		Active:         m.Active,
		CreatedAt:      m.CreatedAt,
	}
}
