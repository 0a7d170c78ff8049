// Package synth implements the virtual-entity synthesizer: the first stage of
// the derivation pipeline. It fills the coverage gaps in the real inventory
// with virtual stops, routes, and scheduled trips so every directory city is
// reachable.
package synth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taigatrans/routegrid/cities"
	"github.com/taigatrans/routegrid/config"
	"github.com/taigatrans/routegrid/geo"
	"github.com/taigatrans/routegrid/ident"
	"github.com/taigatrans/routegrid/internal"
	"github.com/taigatrans/routegrid/model"
	"github.com/taigatrans/routegrid/store"
)

// StageName identifies the synthesizer to the job runner.
const StageName = "synthesizer"

// NextStage is signaled on success so a scheduler can chain execution.
const NextStage = "graph-builder"

const virtualStopNamePrefix = "г. "

// Inventory is the slice of the store the synthesizer consumes.
type Inventory interface {
	RealStops(ctx context.Context) ([]model.Stop, error)
	CountRealStops(ctx context.Context) (int64, error)
	CountVirtualStops(ctx context.Context) (int64, error)
	SaveVirtualStops(ctx context.Context, stops []model.Stop) error
	CountRoutes(ctx context.Context) (int64, error)
	CountVirtualRoutes(ctx context.Context) (int64, error)
	SaveVirtualRoutes(ctx context.Context, routes []model.Route) error
	CountFlights(ctx context.Context) (int64, error)
	SaveFlights(ctx context.Context, flights []model.Flight) error
}

// Catalog is the dataset slice of the store.
type Catalog interface {
	LatestDataset(ctx context.Context) (model.Dataset, error)
	UpdateStatistics(ctx context.Context, version string, stats model.DatasetStats) error
}

// Claims serializes concurrent runs of one stage.
type Claims interface {
	AcquireClaim(ctx context.Context, datasetVersion, stage, runID string) error
	ReleaseClaim(ctx context.Context, datasetVersion, stage string) error
}

// Synthesizer is the stage implementation.
type Synthesizer struct {
	cfg    config.SynthesizerConfig
	dir    *cities.Directory
	inv    Inventory
	cat    Catalog
	claims Claims
}

// New wires a synthesizer over the store and the static city directory.
func New(cfg config.SynthesizerConfig, dir *cities.Directory, inv Inventory, cat Catalog, claims Claims) *Synthesizer {
	return &Synthesizer{cfg: cfg, dir: dir, inv: inv, cat: cat, claims: claims}
}

// Name implements job.Stage.
func (s *Synthesizer) Name() string { return StageName }

// CanRun reports whether synthesis should happen: a dataset must exist and no
// virtual stops may be present yet. Regeneration is all-or-nothing; any
// existing virtual stop short-circuits the whole stage.
func (s *Synthesizer) CanRun(ctx context.Context) (bool, string, error) {
	if _, err := s.cat.LatestDataset(ctx); err != nil {
		if errors.Is(err, store.ErrNoDataset) {
			return false, "no dataset imported yet", nil
		}
		return false, "", err
	}
	n, err := s.inv.CountVirtualStops(ctx)
	if err != nil {
		return false, "", err
	}
	if n > 0 {
		return false, fmt.Sprintf("%d virtual stops already exist", n), nil
	}
	return true, "", nil
}

// Run executes the synthesis pipeline.
func (s *Synthesizer) Run(ctx context.Context) (model.Result, error) {
	start := time.Now()
	runID := uuid.NewString()

	ds, err := s.cat.LatestDataset(ctx)
	if err != nil {
		return model.Result{}, err
	}
	if err := s.claims.AcquireClaim(ctx, ds.Version, StageName, runID); err != nil {
		if errors.Is(err, store.ErrClaimHeld) {
			return model.Result{
				RunID:   runID,
				Success: true,
				Elapsed: time.Since(start),
				Message: "skipped: another run holds the synthesizer claim",
			}, nil
		}
		return model.Result{}, err
	}
	defer s.claims.ReleaseClaim(context.WithoutCancel(ctx), ds.Version, StageName)

	internal.Step(StageName, 1, 5, "resolving missing cities for dataset %s", ds.Version)
	missing, err := s.missingCities(ctx)
	if err != nil {
		return model.Result{}, err
	}

	internal.Step(StageName, 2, 5, "synthesizing %d virtual stops", len(missing))
	stops := s.buildStops(missing)

	internal.Step(StageName, 3, 5, "synthesizing connectivity for %d stops", len(stops))
	hub, err := s.resolveHub(ctx, stops)
	if err != nil {
		return model.Result{}, err
	}
	routes := s.buildRoutes(hub, stops)

	internal.Step(StageName, 4, 5, "synthesizing trips for %d routes over %d days", len(routes), s.cfg.HorizonDays)
	flights := s.buildFlights(routes)

	internal.Step(StageName, 5, 5, "persisting %d stops, %d routes, %d trips", len(stops), len(routes), len(flights))
	if err := s.inv.SaveVirtualStops(ctx, stops); err != nil {
		return model.Result{}, fmt.Errorf("save virtual stops: %w", err)
	}
	if err := s.inv.SaveVirtualRoutes(ctx, routes); err != nil {
		return model.Result{}, fmt.Errorf("save virtual routes: %w", err)
	}
	if err := s.inv.SaveFlights(ctx, flights); err != nil {
		return model.Result{}, fmt.Errorf("save virtual trips: %w", err)
	}
	if err := s.refreshStatistics(ctx, ds.Version); err != nil {
		return model.Result{}, fmt.Errorf("update dataset statistics: %w", err)
	}

	return model.Result{
		RunID:   runID,
		Success: true,
		Elapsed: time.Since(start),
		Message: fmt.Sprintf("synthesized %d stops, %d routes, %d trips", len(stops), len(routes), len(flights)),
		Data:    model.DataProcessed{Added: len(stops) + len(routes) + len(flights)},
		Next:    NextStage,
	}, nil
}

// missingCities returns directory cities not covered by any real stop, in
// directory order.
func (s *Synthesizer) missingCities(ctx context.Context) ([]string, error) {
	real, err := s.inv.RealStops(ctx)
	if err != nil {
		return nil, err
	}
	covered := map[string]struct{}{}
	for _, st := range real {
		if st.CityID != "" {
			covered[ident.NormalizeCity(st.CityID)] = struct{}{}
		}
	}
	var missing []string
	for _, city := range s.dir.Cities() {
		if _, ok := covered[ident.NormalizeCity(city)]; !ok {
			missing = append(missing, city)
		}
	}
	return missing, nil
}

// buildStops creates one virtual stop per missing city at the directory
// coordinates. Virtual stops deliberately carry no cityId; downstream the
// graph builder re-derives "virtual" from that absence.
func (s *Synthesizer) buildStops(missing []string) []model.Stop {
	stops := make([]model.Stop, 0, len(missing))
	for _, city := range missing {
		coord, _ := s.dir.Coord(city)
		stops = append(stops, model.Stop{
			ID:        ident.VirtualStopID(city),
			Name:      virtualStopNamePrefix + city,
			Coord:     coord,
			GridType:  model.MainGrid,
			IsVirtual: true,
		})
	}
	return stops
}

// resolveHub finds the configured hub city's stop: real stops first, then the
// virtual stops synthesized in this run. Returns nil when no hub resolves.
func (s *Synthesizer) resolveHub(ctx context.Context, virtual []model.Stop) (*model.Stop, error) {
	if s.cfg.HubCity == "" {
		return nil, nil
	}
	hubNorm := ident.NormalizeCity(s.cfg.HubCity)
	real, err := s.inv.RealStops(ctx)
	if err != nil {
		return nil, err
	}
	for i, st := range real {
		if ident.NormalizeCity(st.CityID) == hubNorm {
			return &real[i], nil
		}
	}
	for i, st := range virtual {
		if normalizedStopCity(st) == hubNorm {
			return &virtual[i], nil
		}
	}
	return nil, nil
}

// normalizedStopCity recovers the city of a virtual stop from its name.
func normalizedStopCity(st model.Stop) string {
	return ident.NormalizeCity(strings.TrimPrefix(st.Name, virtualStopNamePrefix))
}

// buildRoutes emits hub-star connectivity when a hub resolved, otherwise a
// capped mesh. Every connection is a bidirectional pair of SHUTTLE routes.
func (s *Synthesizer) buildRoutes(hub *model.Stop, stops []model.Stop) []model.Route {
	var routes []model.Route
	if hub != nil {
		for _, st := range stops {
			if st.ID == hub.ID {
				continue
			}
			routes = append(routes, s.routePair(*hub, st)...)
		}
		return routes
	}
	// No hub: mesh fallback, bounded so a large directory cannot produce
	// O(n²) growth. Stops arrive in directory order, which keeps the capped
	// selection deterministic.
	maxPartners := s.cfg.MeshCap
	for i := range stops {
		for j := i + 1; j < len(stops); j++ {
			if maxPartners > 0 && j-i > maxPartners {
				break
			}
			routes = append(routes, s.routePair(stops[i], stops[j])...)
		}
	}
	return routes
}

// routePair builds the two directed legs between a pair of stops.
func (s *Synthesizer) routePair(a, b model.Stop) []model.Route {
	dist := geo.DistanceKM(a.Coord, b.Coord)
	dur := geo.EstimateDurationMin(a.Coord, b.Coord)
	return []model.Route{
		{
			ID:          ident.VirtualRouteID(a.ID, b.ID),
			FromStopID:  a.ID,
			ToStopID:    b.ID,
			Mode:        model.ModeShuttle,
			DistanceKM:  dist,
			DurationMin: dur,
			IsVirtual:   true,
		},
		{
			ID:          ident.VirtualRouteID(b.ID, a.ID),
			FromStopID:  b.ID,
			ToStopID:    a.ID,
			Mode:        model.ModeShuttle,
			DistanceKM:  dist,
			DurationMin: dur,
			IsVirtual:   true,
		},
	}
}

// buildFlights emits the rolling trip horizon: one trip per route, day, and
// departure slot, active on all weekdays.
func (s *Synthesizer) buildFlights(routes []model.Route) []model.Flight {
	allWeek := []time.Weekday{
		time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
		time.Thursday, time.Friday, time.Saturday,
	}
	flights := make([]model.Flight, 0, len(routes)*s.cfg.HorizonDays*len(s.cfg.Slots))
	for _, r := range routes {
		price := s.cfg.DefaultFare
		if v, ok := r.Metadata["baseFare"]; ok {
			if p, err := strconv.Atoi(v); err == nil {
				price = p
			}
		}
		for day := 0; day < s.cfg.HorizonDays; day++ {
			for slot, dep := range s.cfg.Slots {
				depMin, err := internal.ParseHHMM(dep)
				if err != nil {
					continue
				}
				flights = append(flights, model.Flight{
					ID:         ident.VirtualFlightID(r.ID, day, slot),
					RouteID:    r.ID,
					FromStopID: r.FromStopID,
					ToStopID:   r.ToStopID,
					Departure:  dep,
					Arrival:    internal.FormatHHMM(depMin + r.DurationMin),
					Weekdays:   allWeek,
					Price:      price,
					IsVirtual:  true,
				})
			}
		}
	}
	return flights
}

// refreshStatistics recomputes the denormalized inventory counts on the
// dataset record.
func (s *Synthesizer) refreshStatistics(ctx context.Context, version string) error {
	nReal, err := s.inv.CountRealStops(ctx)
	if err != nil {
		return err
	}
	nVirt, err := s.inv.CountVirtualStops(ctx)
	if err != nil {
		return err
	}
	nRoutes, err := s.inv.CountRoutes(ctx)
	if err != nil {
		return err
	}
	nVirtRoutes, err := s.inv.CountVirtualRoutes(ctx)
	if err != nil {
		return err
	}
	nFlights, err := s.inv.CountFlights(ctx)
	if err != nil {
		return err
	}
	return s.cat.UpdateStatistics(ctx, version, model.DatasetStats{
		Stops:         int(nReal + nVirt),
		VirtualStops:  int(nVirt),
		Routes:        int(nRoutes),
		VirtualRoutes: int(nVirtRoutes),
		Flights:       int(nFlights),
	})
}
