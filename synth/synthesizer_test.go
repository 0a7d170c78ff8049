package synth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigatrans/routegrid/cities"
	"github.com/taigatrans/routegrid/config"
	"github.com/taigatrans/routegrid/ident"
	"github.com/taigatrans/routegrid/model"
	"github.com/taigatrans/routegrid/store"
)

func testConfig(hub string) config.SynthesizerConfig {
	return config.SynthesizerConfig{
		HubCity:     hub,
		HorizonDays: 365,
		Slots:       []string{"08:00", "16:00"},
		DefaultFare: 1000,
		MeshCap:     200,
	}
}

func testDirectory() *cities.Directory {
	return cities.New(map[string]model.Coord{
		"Якутск": {Lat: 62.0339, Lon: 129.7331},
		"Тикси":  {Lat: 71.6366, Lon: 128.8685},
		"Мирный": {Lat: 62.5353, Lon: 113.9611},
	})
}

func seedHubInventory(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()
	_, err := s.CreateDataset(ctx, "ds-1")
	require.NoError(t, err)
	require.NoError(t, s.SaveStops(ctx, []model.Stop{{
		ID:     "yks-bus",
		Name:   "Автовокзал Якутск",
		Coord:  model.Coord{Lat: 62.0272, Lon: 129.7319},
		CityID: "Якутск",
	}}))
}

func TestSynthesizerHubStar(t *testing.T) {
	s, err := store.OpenMemory()
	require.NoError(t, err)
	seedHubInventory(t, s)
	ctx := context.Background()

	syn := New(testConfig("Якутск"), testDirectory(), s, s, s)

	ok, _, err := syn.CanRun(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	res, err := syn.Run(ctx)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, NextStage, res.Next)

	// Two cities lack a real stop.
	virt, err := s.VirtualStops(ctx)
	require.NoError(t, err)
	require.Len(t, virt, 2)
	ids := map[string]bool{}
	for _, st := range virt {
		ids[st.ID] = true
		assert.True(t, st.IsVirtual)
		assert.Empty(t, st.CityID)
		assert.Equal(t, model.MainGrid, st.GridType)
	}
	assert.True(t, ids[ident.VirtualStopID("Тикси")])
	assert.True(t, ids[ident.VirtualStopID("Мирный")])

	// Hub-star: one bidirectional pair per virtual stop.
	routes, err := s.VirtualRoutes(ctx)
	require.NoError(t, err)
	require.Len(t, routes, 4)
	for _, r := range routes {
		assert.Equal(t, model.ModeShuttle, r.Mode)
		assert.True(t, r.FromStopID == "yks-bus" || r.ToStopID == "yks-bus")
		assert.GreaterOrEqual(t, r.DurationMin, 60)
	}

	// 4 routes × 365 days × 2 slots.
	nFlights, err := s.CountFlights(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4*365*2, nFlights)

	// Statistics were written back to the dataset.
	ds, err := s.LatestDataset(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Stats.VirtualStops)
	assert.Equal(t, 3, ds.Stats.Stops)
	assert.Equal(t, 4, ds.Stats.VirtualRoutes)
	assert.Equal(t, 4*365*2, ds.Stats.Flights)

	assert.Equal(t, 2+4+2920, res.Data.Added)
}

func TestSynthesizerIdempotent(t *testing.T) {
	s, err := store.OpenMemory()
	require.NoError(t, err)
	seedHubInventory(t, s)
	ctx := context.Background()

	syn := New(testConfig("Якутск"), testDirectory(), s, s, s)
	_, err = syn.Run(ctx)
	require.NoError(t, err)

	before, err := s.CountVirtualStops(ctx)
	require.NoError(t, err)

	ok, reason, err := syn.CanRun(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second run must short-circuit: %s", reason)

	after, err := s.CountVirtualStops(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSynthesizerMeshFallback(t *testing.T) {
	s, err := store.OpenMemory()
	require.NoError(t, err)
	ctx := context.Background()
	_, err = s.CreateDataset(ctx, "ds-1")
	require.NoError(t, err)

	// No real stops and no hub city resolves: all three directory cities get
	// virtual stops and a full bidirectional mesh, 2·C(3,2) = 6 routes.
	cfg := testConfig("")
	cfg.HorizonDays = 1
	syn := New(cfg, testDirectory(), s, s, s)

	_, err = syn.Run(ctx)
	require.NoError(t, err)

	virt, err := s.VirtualStops(ctx)
	require.NoError(t, err)
	assert.Len(t, virt, 3)

	routes, err := s.VirtualRoutes(ctx)
	require.NoError(t, err)
	assert.Len(t, routes, 6)
}

func TestSynthesizerMeshCap(t *testing.T) {
	s, err := store.OpenMemory()
	require.NoError(t, err)
	ctx := context.Background()
	_, err = s.CreateDataset(ctx, "ds-1")
	require.NoError(t, err)

	dir := cities.New(map[string]model.Coord{
		"Алдан":  {Lat: 58.6103, Lon: 125.3894},
		"Ленск":  {Lat: 60.7276, Lon: 114.9469},
		"Мирный": {Lat: 62.5353, Lon: 113.9611},
		"Тикси":  {Lat: 71.6366, Lon: 128.8685},
	})
	cfg := testConfig("")
	cfg.HorizonDays = 1
	cfg.MeshCap = 1
	syn := New(cfg, dir, s, s, s)

	_, err = syn.Run(ctx)
	require.NoError(t, err)

	// Cap of one partner per stop: a chain instead of a mesh.
	routes, err := s.VirtualRoutes(ctx)
	require.NoError(t, err)
	assert.Len(t, routes, 6)
}

func TestSynthesizerVirtualHub(t *testing.T) {
	s, err := store.OpenMemory()
	require.NoError(t, err)
	ctx := context.Background()
	_, err = s.CreateDataset(ctx, "ds-1")
	require.NoError(t, err)

	// The hub city has no real stop, so the hub resolves to its own virtual
	// stop and the star excludes the hub itself.
	cfg := testConfig("Якутск")
	cfg.HorizonDays = 1
	syn := New(cfg, testDirectory(), s, s, s)

	_, err = syn.Run(ctx)
	require.NoError(t, err)

	virt, err := s.VirtualStops(ctx)
	require.NoError(t, err)
	assert.Len(t, virt, 3)

	routes, err := s.VirtualRoutes(ctx)
	require.NoError(t, err)
	require.Len(t, routes, 4)
	hubID := ident.VirtualStopID("Якутск")
	for _, r := range routes {
		assert.True(t, r.FromStopID == hubID || r.ToStopID == hubID)
	}
}

func TestSynthesizerNoDataset(t *testing.T) {
	s, err := store.OpenMemory()
	require.NoError(t, err)

	syn := New(testConfig("Якутск"), testDirectory(), s, s, s)
	ok, reason, err := syn.CanRun(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, reason, "no dataset")
}

func TestSynthesizerFlightShape(t *testing.T) {
	s, err := store.OpenMemory()
	require.NoError(t, err)
	seedHubInventory(t, s)
	ctx := context.Background()

	cfg := testConfig("Якутск")
	cfg.HorizonDays = 2
	syn := New(cfg, testDirectory(), s, s, s)
	_, err = syn.Run(ctx)
	require.NoError(t, err)

	flights, err := s.AllFlights(ctx)
	require.NoError(t, err)
	require.Len(t, flights, 4*2*2)

	routes, err := s.VirtualRoutes(ctx)
	require.NoError(t, err)
	durations := map[string]int{}
	for _, r := range routes {
		durations[r.ID] = r.DurationMin
	}

	seen := map[string]bool{}
	for _, f := range flights {
		require.False(t, seen[f.ID], "trip ids must be unique")
		seen[f.ID] = true
		assert.True(t, f.IsVirtual)
		assert.Len(t, f.Weekdays, 7)
		assert.Equal(t, 1000, f.Price)
		assert.Contains(t, []string{"08:00", "16:00"}, f.Departure)
		assert.NotEmpty(t, f.Arrival)
		assert.Positive(t, durations[f.RouteID])
	}
}
