// Package graph implements the graph construction engine: the second stage
// of the derivation pipeline. It compiles the full stop/route/trip inventory
// (real and virtual) into a versioned, weighted adjacency artifact and
// activates it only after every validation and publish step succeeds.
package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taigatrans/routegrid/config"
	"github.com/taigatrans/routegrid/internal"
	"github.com/taigatrans/routegrid/model"
	"github.com/taigatrans/routegrid/store"
)

// StageName identifies the builder to the job runner.
const StageName = "graph-builder"

// Inventory is the slice of the store the builder reads.
type Inventory interface {
	RealStops(ctx context.Context) ([]model.Stop, error)
	VirtualStops(ctx context.Context) ([]model.Stop, error)
	AllRoutes(ctx context.Context) ([]model.Route, error)
	AllFlights(ctx context.Context) ([]model.Flight, error)
}

// Catalog exposes the current dataset.
type Catalog interface {
	LatestDataset(ctx context.Context) (model.Dataset, error)
}

// MetadataRepo persists graph version records.
type MetadataRepo interface {
	GraphMetadataByDatasetVersion(ctx context.Context, datasetVersion string) ([]model.GraphMetadata, error)
	SaveGraphMetadata(ctx context.Context, g model.GraphMetadata) error
	SetActiveGraphMetadata(ctx context.Context, version string) error
}

// Claims serializes concurrent runs of one stage.
type Claims interface {
	AcquireClaim(ctx context.Context, datasetVersion, stage, runID string) error
	ReleaseClaim(ctx context.Context, datasetVersion, stage string) error
}

// CacheStore publishes adjacency snapshots.
type CacheStore interface {
	SaveGraph(ctx context.Context, snap model.GraphSnapshot) (string, error)
	SetVersion(ctx context.Context, version string) error
}

// Builder is the stage implementation.
type Builder struct {
	cfg        config.GraphConfig
	inv        Inventory
	cat        Catalog
	meta       MetadataRepo
	claims     Claims
	cache      CacheStore
	classifier Classifier
	validators []Validator
	now        func() time.Time
}

// NewBuilder wires the engine with the default classifier and validators.
func NewBuilder(cfg config.GraphConfig, inv Inventory, cat Catalog, meta MetadataRepo, claims Claims, cache CacheStore) *Builder {
	return &Builder{
		cfg:        cfg,
		inv:        inv,
		cat:        cat,
		meta:       meta,
		claims:     claims,
		cache:      cache,
		classifier: Heuristic{},
		validators: []Validator{TransferValidator{}, FerryValidator{}},
		now:        time.Now,
	}
}

// WithClassifier swaps the stop classifier; used by tests to inject
// unambiguous stop types.
func (b *Builder) WithClassifier(c Classifier) *Builder {
	b.classifier = c
	return b
}

// WithClock fixes the build clock, which controls both the version key and
// the ferry season.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Name implements job.Stage.
func (b *Builder) Name() string { return StageName }

// CanRun reports whether a build is due: a dataset must exist and no graph
// may be built from it yet. Rebuilding the same dataset version is refused;
// a new dataset version always produces a new graph version.
func (b *Builder) CanRun(ctx context.Context) (bool, string, error) {
	ds, err := b.cat.LatestDataset(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNoDataset) {
			return false, "no dataset imported yet", nil
		}
		return false, "", err
	}
	existing, err := b.meta.GraphMetadataByDatasetVersion(ctx, ds.Version)
	if err != nil {
		return false, "", err
	}
	if len(existing) > 0 {
		return false, fmt.Sprintf("graph %s already built for dataset %s", existing[0].Version, ds.Version), nil
	}
	return true, "", nil
}

// Run executes the build pipeline. Activation is the very last step: if
// anything before it fails, the previously active version keeps serving.
func (b *Builder) Run(ctx context.Context) (model.Result, error) {
	start := b.now()
	runID := uuid.NewString()

	ds, err := b.cat.LatestDataset(ctx)
	if err != nil {
		return model.Result{}, err
	}
	if err := b.claims.AcquireClaim(ctx, ds.Version, StageName, runID); err != nil {
		if errors.Is(err, store.ErrClaimHeld) {
			return model.Result{
				RunID:   runID,
				Success: true,
				Elapsed: time.Since(start),
				Message: "skipped: another run holds the graph-builder claim",
			}, nil
		}
		return model.Result{}, err
	}
	defer b.claims.ReleaseClaim(context.WithoutCancel(ctx), ds.Version, StageName)

	internal.Step(StageName, 1, 5, "loading inventory for dataset %s", ds.Version)
	stops, routes, flights, err := b.load(ctx)
	if err != nil {
		return model.Result{}, err
	}

	internal.Step(StageName, 2, 5, "deriving nodes from %d stops", len(stops))
	nodes, nodeIndex := deriveNodes(stops)

	internal.Step(StageName, 3, 5, "deriving edges from %d routes and %d trips", len(routes), len(flights))
	edges := deriveEdges(stops, routes, flights, b.classifier, b.cfg, start.Month())

	internal.Step(StageName, 4, 5, "validating %d nodes and %d edges", len(nodes), len(edges))
	if err := validateStructure(nodeIndex, edges); err != nil {
		return model.Result{}, fmt.Errorf("structural validation: %w", err)
	}
	if err := runValidators(b.validators, nodeIndex, edges); err != nil {
		return model.Result{}, err
	}

	internal.Step(StageName, 5, 5, "publishing graph with %d nodes and %d edges", len(nodes), len(edges))
	version, err := b.publish(ctx, ds.Version, nodes, edges, start)
	if err != nil {
		return model.Result{}, err
	}

	return model.Result{
		RunID:   runID,
		Success: true,
		Elapsed: time.Since(start),
		Message: fmt.Sprintf("published %s: %d nodes, %d edges", version, len(nodes), len(edges)),
		Data:    model.DataProcessed{Added: len(nodes) + len(edges)},
	}, nil
}

func (b *Builder) load(ctx context.Context) ([]model.Stop, []model.Route, []model.Flight, error) {
	real, err := b.inv.RealStops(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load real stops: %w", err)
	}
	virtual, err := b.inv.VirtualStops(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load virtual stops: %w", err)
	}
	routes, err := b.inv.AllRoutes(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load routes: %w", err)
	}
	flights, err := b.inv.AllFlights(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load flights: %w", err)
	}
	return append(real, virtual...), routes, flights, nil
}

// publish writes the snapshot to the cache, records metadata, and only then
// flips the active pointer. The two final writes are deliberately separate:
// readers must never observe a version that is active but not yet durable.
func (b *Builder) publish(ctx context.Context, datasetVersion string, nodes []model.Node, edges []model.Edge, start time.Time) (string, error) {
	version := fmt.Sprintf("graph-v%d", start.UnixMilli())

	nodeIDs := make([]string, 0, len(nodes))
	for _, n := range nodes {
		nodeIDs = append(nodeIDs, n.ID)
	}
	snap := model.GraphSnapshot{
		Version:   version,
		NodeIDs:   nodeIDs,
		Adjacency: buildAdjacency(nodeIDs, edges),
		NodeCount: len(nodes),
		EdgeCount: len(edges),
	}
	backupPath, err := b.cache.SaveGraph(ctx, snap)
	if err != nil {
		return "", fmt.Errorf("publish snapshot: %w", err)
	}
	meta := model.GraphMetadata{
		Version:        version,
		DatasetVersion: datasetVersion,
		NodeCount:      len(nodes),
		EdgeCount:      len(edges),
		BuildDuration:  time.Since(start),
		CacheKey:       version,
		BackupPath:     backupPath,
		Active:         false,
		CreatedAt:      b.now(),
	}
	if err := b.meta.SaveGraphMetadata(ctx, meta); err != nil {
		return "", fmt.Errorf("save graph metadata: %w", err)
	}
	if err := b.meta.SetActiveGraphMetadata(ctx, version); err != nil {
		return "", fmt.Errorf("activate graph %s: %w", version, err)
	}
	if err := b.cache.SetVersion(ctx, version); err != nil {
		return "", fmt.Errorf("set current graph version: %w", err)
	}
	return version, nil
}
