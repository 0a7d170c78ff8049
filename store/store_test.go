package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigatrans/routegrid/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	require.NoError(t, err)
	return s
}

func TestStopRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	stops := []model.Stop{
		{
			ID:        "yks-airport",
			Name:      "Аэропорт Якутск",
			Coord:     model.Coord{Lat: 62.0933, Lon: 129.7706},
			CityID:    "якутск",
			IsAirport: true,
			Metadata:  map[string]string{"type": "airport"},
		},
		{
			ID:        "vs-0011223344556677",
			Name:      "г. Тикси",
			Coord:     model.Coord{Lat: 71.6366, Lon: 128.8685},
			CityID:    "тикси",
			GridType:  model.MainGrid,
			IsVirtual: true,
		},
	}
	require.NoError(t, s.SaveStops(ctx, stops[:1]))
	require.NoError(t, s.SaveVirtualStops(ctx, stops[1:]))

	real, err := s.RealStops(ctx)
	require.NoError(t, err)
	require.Len(t, real, 1)
	assert.Equal(t, stops[0], real[0])

	virt, err := s.VirtualStops(ctx)
	require.NoError(t, err)
	require.Len(t, virt, 1)
	assert.True(t, virt[0].IsVirtual)
	assert.Nil(t, virt[0].Metadata)

	nReal, err := s.CountRealStops(ctx)
	require.NoError(t, err)
	nVirt, err := s.CountVirtualStops(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, nReal)
	assert.EqualValues(t, 1, nVirt)

	byCity, err := s.RealStopsByCity(ctx, "якутск")
	require.NoError(t, err)
	require.Len(t, byCity, 1)
	assert.Equal(t, "yks-airport", byCity[0].ID)
}

func TestSaveStopsUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	st := model.Stop{ID: "s1", Name: "before"}
	require.NoError(t, s.SaveStops(ctx, []model.Stop{st}))
	st.Name = "after"
	require.NoError(t, s.SaveStops(ctx, []model.Stop{st}))

	n, err := s.CountRealStops(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	all, err := s.RealStops(ctx)
	require.NoError(t, err)
	assert.Equal(t, "after", all[0].Name)
}

func TestRouteRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	routes := []model.Route{
		{
			ID:          "r1",
			FromStopID:  "a",
			ToStopID:    "c",
			StopSeq:     []string{"a", "b", "c"},
			Mode:        model.ModeBus,
			DurationMin: 240,
		},
		{
			ID:         "vr-a-b",
			FromStopID: "a",
			ToStopID:   "b",
			Mode:       model.ModeShuttle,
			IsVirtual:  true,
			Metadata:   map[string]string{"baseFare": "1500"},
		},
	}
	require.NoError(t, s.SaveRoutes(ctx, routes[:1]))
	require.NoError(t, s.SaveVirtualRoutes(ctx, routes[1:]))

	all, err := s.AllRoutes(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	virt, err := s.VirtualRoutes(ctx)
	require.NoError(t, err)
	require.Len(t, virt, 1)
	assert.Equal(t, "vr-a-b", virt[0].ID)
	assert.Equal(t, []string{"a", "b"}, virt[0].Seq())

	n, err := s.CountRoutes(ctx)
	require.NoError(t, err)
	nv, err := s.CountVirtualRoutes(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.EqualValues(t, 1, nv)
}

func TestFlightRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	f := model.Flight{
		ID:         "f1",
		RouteID:    "r1",
		FromStopID: "a",
		ToStopID:   "b",
		Departure:  "08:00",
		Arrival:    "10:30",
		Weekdays: []time.Weekday{
			time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
			time.Thursday, time.Friday, time.Saturday,
		},
		Price: 1000,
	}
	require.NoError(t, s.SaveFlights(ctx, []model.Flight{f}))

	all, err := s.AllFlights(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, f, all[0])

	n, err := s.CountFlights(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestDatasetCatalog(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.LatestDataset(ctx)
	require.ErrorIs(t, err, ErrNoDataset)

	_, err = s.CreateDataset(ctx, "ds-1")
	require.NoError(t, err)
	_, err = s.CreateDataset(ctx, "ds-2")
	require.NoError(t, err)

	latest, err := s.LatestDataset(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ds-2", latest.Version)

	stats := model.DatasetStats{Stops: 10, VirtualStops: 4, Routes: 8, VirtualRoutes: 8, Flights: 2920}
	require.NoError(t, s.UpdateStatistics(ctx, "ds-2", stats))
	latest, err = s.LatestDataset(ctx)
	require.NoError(t, err)
	assert.Equal(t, stats, latest.Stats)

	require.ErrorIs(t, s.UpdateStatistics(ctx, "ds-404", stats), ErrNotFound)
}

func TestGraphMetadataSingleActive(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i, v := range []string{"graph-v1", "graph-v2", "graph-v3"} {
		meta := model.GraphMetadata{
			Version:        v,
			DatasetVersion: "ds-1",
			NodeCount:      10 + i,
			EdgeCount:      20 + i,
			CacheKey:       v,
			CreatedAt:      time.Now(),
		}
		require.NoError(t, s.SaveGraphMetadata(ctx, meta))
		require.NoError(t, s.SetActiveGraphMetadata(ctx, v))
	}

	active, err := s.ActiveGraphMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, "graph-v3", active.Version)

	all, err := s.GraphMetadataByDatasetVersion(ctx, "ds-1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	activeCount := 0
	for _, m := range all {
		if m.Active {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount, "exactly one version may be active")
}

func TestSetActiveUnknownVersion(t *testing.T) {
	s := openTestStore(t)
	require.ErrorIs(t, s.SetActiveGraphMetadata(context.Background(), "graph-v404"), ErrNotFound)
}

func TestClaimExclusion(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AcquireClaim(ctx, "ds-1", "synthesizer", "run-a"))
	require.ErrorIs(t, s.AcquireClaim(ctx, "ds-1", "synthesizer", "run-b"), ErrClaimHeld)

	// A different stage or dataset is an independent slot.
	require.NoError(t, s.AcquireClaim(ctx, "ds-1", "graph-builder", "run-c"))
	require.NoError(t, s.AcquireClaim(ctx, "ds-2", "synthesizer", "run-d"))

	require.NoError(t, s.ReleaseClaim(ctx, "ds-1", "synthesizer"))
	require.NoError(t, s.AcquireClaim(ctx, "ds-1", "synthesizer", "run-e"))
}
