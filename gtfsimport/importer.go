// Package gtfsimport seeds the real inventory from a static GTFS feed. It is
// a one-shot ingestion step, not part of the derivation pipeline: each import
// creates a fresh dataset version that the pipeline's gates key on.
package gtfsimport

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taigatrans/routegrid/model"
)

// Store is the persistence surface the importer needs.
type Store interface {
	SaveStops(ctx context.Context, stops []model.Stop) error
	SaveRoutes(ctx context.Context, routes []model.Route) error
	SaveFlights(ctx context.Context, flights []model.Flight) error
	CreateDataset(ctx context.Context, version string) (model.Dataset, error)
	UpdateStatistics(ctx context.Context, version string, stats model.DatasetStats) error
}

// feedIndex is the intermediate in-memory view of the parsed feed.
type feedIndex struct {
	stopNames   map[string]string
	stopCoord   map[string]model.Coord
	stopCity    map[string]string // from stop_desc when present
	routeNames  map[string]string
	routeTypes  map[string]int
	tripToRoute map[string]string
	tripStopSeq map[string][]string
	tripDep     map[string]string // first-stop departure HH:MM
	tripArr     map[string]string // last-stop arrival HH:MM
}

func newFeedIndex() *feedIndex {
	return &feedIndex{
		stopNames:   map[string]string{},
		stopCoord:   map[string]model.Coord{},
		stopCity:    map[string]string{},
		routeNames:  map[string]string{},
		routeTypes:  map[string]int{},
		tripToRoute: map[string]string{},
		tripStopSeq: map[string][]string{},
		tripDep:     map[string]string{},
		tripArr:     map[string]string{},
	}
}

// Import reads a local GTFS zip and persists its stops, routes, and trips as
// real inventory under a new dataset version. Returns the created dataset.
func Import(ctx context.Context, st Store, zipPath string) (model.Dataset, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("open gtfs zip: %w", err)
	}
	defer zr.Close()

	idx := newFeedIndex()
	for _, f := range zr.File {
		name := strings.ToLower(f.Name)
		if name == "stops.txt" || name == "routes.txt" || name == "trips.txt" || name == "stop_times.txt" {
			if err := idx.consumeCSV(f); err != nil {
				return model.Dataset{}, fmt.Errorf("parse %s: %w", f.Name, err)
			}
		}
	}

	stops := idx.buildStops()
	routes := idx.buildRoutes()
	flights := idx.buildFlights()
	if len(stops) == 0 {
		return model.Dataset{}, fmt.Errorf("gtfs feed %s contains no stops", zipPath)
	}

	version := fmt.Sprintf("ds-%s-%s", time.Now().UTC().Format("20060102"), uuid.NewString()[:8])
	ds, err := st.CreateDataset(ctx, version)
	if err != nil {
		return model.Dataset{}, err
	}
	if err := st.SaveStops(ctx, stops); err != nil {
		return model.Dataset{}, fmt.Errorf("save stops: %w", err)
	}
	if err := st.SaveRoutes(ctx, routes); err != nil {
		return model.Dataset{}, fmt.Errorf("save routes: %w", err)
	}
	if err := st.SaveFlights(ctx, flights); err != nil {
		return model.Dataset{}, fmt.Errorf("save flights: %w", err)
	}
	stats := model.DatasetStats{Stops: len(stops), Routes: len(routes), Flights: len(flights)}
	if err := st.UpdateStatistics(ctx, version, stats); err != nil {
		return model.Dataset{}, err
	}
	ds.Stats = stats
	return ds, nil
}

func (g *feedIndex) consumeCSV(f *zip.File) error {
	r, err := f.Open()
	if err != nil {
		return err
	}
	defer r.Close()
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	rec, err := csvr.ReadAll()
	if err != nil {
		return err
	}
	if len(rec) < 2 {
		return nil
	}
	head := rec[0]
	idx := func(col string) int {
		for i, h := range head {
			if strings.EqualFold(strings.TrimSpace(h), col) {
				return i
			}
		}
		return -1
	}
	cell := func(row []string, i int) string {
		if i >= 0 && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	switch strings.ToLower(f.Name) {
	case "stops.txt":
		sID, sN := idx("stop_id"), idx("stop_name")
		sLat, sLon := idx("stop_lat"), idx("stop_lon")
		sDesc := idx("stop_desc")
		for _, row := range rec[1:] {
			id := cell(row, sID)
			if id == "" {
				continue
			}
			g.stopNames[id] = cell(row, sN)
			lat, _ := strconv.ParseFloat(cell(row, sLat), 64)
			lon, _ := strconv.ParseFloat(cell(row, sLon), 64)
			g.stopCoord[id] = model.Coord{Lat: lat, Lon: lon}
			g.stopCity[id] = cell(row, sDesc)
		}
	case "routes.txt":
		rID, rSN, rType := idx("route_id"), idx("route_short_name"), idx("route_type")
		for _, row := range rec[1:] {
			id := cell(row, rID)
			if id == "" {
				continue
			}
			g.routeNames[id] = cell(row, rSN)
			if t, err := strconv.Atoi(cell(row, rType)); err == nil {
				g.routeTypes[id] = t
			}
		}
	case "trips.txt":
		rID, tID := idx("route_id"), idx("trip_id")
		for _, row := range rec[1:] {
			if trip := cell(row, tID); trip != "" {
				g.tripToRoute[trip] = cell(row, rID)
			}
		}
	case "stop_times.txt":
		tID, sID, sq := idx("trip_id"), idx("stop_id"), idx("stop_sequence")
		arr, dep := idx("arrival_time"), idx("departure_time")
		if tID < 0 || sID < 0 || sq < 0 {
			return nil
		}
		type stopTime struct {
			stop string
			seq  int
			arr  string
			dep  string
		}
		tmp := map[string][]stopTime{}
		for _, row := range rec[1:] {
			seq, _ := strconv.Atoi(cell(row, sq))
			tmp[cell(row, tID)] = append(tmp[cell(row, tID)], stopTime{
				stop: cell(row, sID),
				seq:  seq,
				arr:  cell(row, arr),
				dep:  cell(row, dep),
			})
		}
		for trip, sts := range tmp {
			sort.Slice(sts, func(i, j int) bool { return sts[i].seq < sts[j].seq })
			seq := make([]string, 0, len(sts))
			for _, st := range sts {
				seq = append(seq, st.stop)
			}
			g.tripStopSeq[trip] = seq
			if len(sts) > 0 {
				g.tripDep[trip] = toHHMM(sts[0].dep)
				g.tripArr[trip] = toHHMM(sts[len(sts)-1].arr)
			}
		}
	}
	return nil
}

// toHHMM truncates GTFS "HH:MM:SS" times (which may exceed 24h for
// after-midnight service) to the "HH:MM" time-of-day the pipeline uses.
func toHHMM(s string) string {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return ""
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%02d:%s", h%24, parts[1])
}

func (g *feedIndex) buildStops() []model.Stop {
	ids := make([]string, 0, len(g.stopNames))
	for id := range g.stopNames {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	stops := make([]model.Stop, 0, len(ids))
	for _, id := range ids {
		stops = append(stops, model.Stop{
			ID:        id,
			Name:      g.stopNames[id],
			Coord:     g.stopCoord[id],
			CityID:    g.stopCity[id],
			GridType:  model.MainGrid,
			IsAirport: routeTypeIsAir(g.stopNames[id]) || strings.Contains(strings.ToLower(id), "airport"),
		})
	}
	return stops
}

func routeTypeIsAir(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "аэропорт") || strings.Contains(n, "airport")
}

// buildRoutes derives one topology record per GTFS route, using the longest
// trip's stop sequence as the representative path.
func (g *feedIndex) buildRoutes() []model.Route {
	repSeq := map[string][]string{}
	for trip, seq := range g.tripStopSeq {
		routeID := g.tripToRoute[trip]
		if routeID == "" || len(seq) < 2 {
			continue
		}
		if len(seq) > len(repSeq[routeID]) {
			repSeq[routeID] = seq
		}
	}
	ids := make([]string, 0, len(repSeq))
	for id := range repSeq {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	routes := make([]model.Route, 0, len(ids))
	for _, id := range ids {
		seq := repSeq[id]
		routes = append(routes, model.Route{
			ID:         id,
			FromStopID: seq[0],
			ToStopID:   seq[len(seq)-1],
			StopSeq:    seq,
			Mode:       modeFromRouteType(g.routeTypes[id]),
		})
	}
	return routes
}

// modeFromRouteType maps the GTFS route_type enum onto transport modes.
func modeFromRouteType(t int) model.TransportMode {
	switch t {
	case 2:
		return model.ModeTrain
	case 4:
		return model.ModeFerry
	case 1100:
		return model.ModeFlight
	default:
		return model.ModeBus
	}
}

func (g *feedIndex) buildFlights() []model.Flight {
	trips := make([]string, 0, len(g.tripStopSeq))
	for trip := range g.tripStopSeq {
		trips = append(trips, trip)
	}
	sort.Strings(trips)
	allWeek := []time.Weekday{
		time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
		time.Thursday, time.Friday, time.Saturday,
	}
	flights := make([]model.Flight, 0, len(trips))
	for _, trip := range trips {
		seq := g.tripStopSeq[trip]
		if len(seq) < 2 || g.tripDep[trip] == "" || g.tripArr[trip] == "" {
			continue
		}
		flights = append(flights, model.Flight{
			ID:         trip,
			RouteID:    g.tripToRoute[trip],
			FromStopID: seq[0],
			ToStopID:   seq[len(seq)-1],
			Departure:  g.tripDep[trip],
			Arrival:    g.tripArr[trip],
			// Calendar files are not ingested; trips are treated as daily.
			Weekdays: allWeek,
		})
	}
	return flights
}
