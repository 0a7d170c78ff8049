package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/taigatrans/routegrid/cities"
	"github.com/taigatrans/routegrid/config"
	"github.com/taigatrans/routegrid/graph"
	"github.com/taigatrans/routegrid/graphcache"
	"github.com/taigatrans/routegrid/gtfsimport"
	"github.com/taigatrans/routegrid/internal"
	"github.com/taigatrans/routegrid/job"
	"github.com/taigatrans/routegrid/store"
	"github.com/taigatrans/routegrid/synth"
)

func main() {
	mode := flag.String("mode", "pipeline", "pipeline|import|status")
	configPath := flag.String("config", "", "path to config.yml")
	gtfsZip := flag.String("gtfs", "", "GTFS static zip to import (import mode)")
	flag.Parse()

	internal.InitLogging()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	st, err := store.Open(cfg.Store.SQLitePath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	cache, err := graphcache.New(cfg.Cache.Dir, cfg.Cache.LRUSize)
	if err != nil {
		log.Fatalf("open graph cache: %v", err)
	}
	ctx := context.Background()

	switch *mode {
	case "import":
		if *gtfsZip == "" {
			log.Fatal("import mode requires -gtfs <zip>")
		}
		ds, err := gtfsimport.Import(ctx, st, *gtfsZip)
		if err != nil {
			log.Fatalf("import: %v", err)
		}
		log.Printf("imported dataset %s: %d stops, %d routes, %d trips",
			ds.Version, ds.Stats.Stops, ds.Stats.Routes, ds.Stats.Flights)

	case "pipeline":
		dir, err := cities.LoadFile(cfg.Cities.Path)
		if err != nil {
			log.Fatalf("city directory: %v", err)
		}
		runner := job.NewRunner(time.Duration(cfg.Jobs.StageTimeoutMin) * time.Minute)
		runner.Register(synth.New(cfg.Synthesizer, dir, st, st, st))
		runner.Register(graph.NewBuilder(cfg.Graph, st, st, st, st, cache))
		if _, err := runner.RunChain(ctx, synth.StageName); err != nil {
			log.Fatalf("pipeline: %v", err)
		}

	case "status":
		meta, err := st.ActiveGraphMetadata(ctx)
		if err != nil {
			log.Fatalf("no active graph: %v", err)
		}
		fmt.Printf("active graph: %s (dataset %s)\n", meta.Version, meta.DatasetVersion)
		fmt.Printf("  nodes=%d edges=%d built in %s at %s\n",
			meta.NodeCount, meta.EdgeCount,
			meta.BuildDuration.Round(time.Millisecond),
			meta.CreatedAt.Format(time.RFC3339))

	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}
