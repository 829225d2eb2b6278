package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"map_server/pkg/api"
	"map_server/pkg/config"
	"map_server/pkg/graph"
	osmparser "map_server/pkg/osm"
	"map_server/pkg/places"
	"map_server/pkg/raster"
	"map_server/pkg/routing"
	"map_server/pkg/tiles"
)

// ingestSink feeds one OSM scan into both the road graph and the place index.
type ingestSink struct {
	g   *graph.Graph
	idx *places.Index
}

func (s ingestSink) AddVertex(id int64, lon, lat float64) { s.g.AddVertex(id, lon, lat) }

func (s ingestSink) AddWay(id int64, refs []int64) error { return s.g.AddWay(id, refs) }

func (s ingestSink) AddPlace(id int64, name string, lon, lat float64) {
	s.idx.Add(id, name, lon, lat)
}

func main() {
	cfg := config.Load()

	addr := flag.String("addr", cfg.Addr, "HTTP listen address")
	osmPath := flag.String("osm", cfg.OSMPath, "Path to .osm or .osm.pbf extract")
	tileDir := flag.String("tiles", cfg.TileDir, "Directory of pre-rendered tile images")
	largest := flag.Bool("largest-component", cfg.LargestCC, "Keep only the largest connected component")
	corsOrigin := flag.String("cors-origin", "", "CORS allowed origin (empty = same-origin)")
	flag.Parse()

	start := time.Now()

	// Step 1: Ingest.
	log.Printf("Loading OSM data from %s...", *osmPath)
	g := graph.New()
	idx := places.New()
	stats, err := osmparser.ParseFile(context.Background(), *osmPath, ingestSink{g: g, idx: idx})
	if err != nil {
		log.Fatalf("Failed to parse OSM data: %v", err)
	}
	log.Printf("Parsed: %d nodes, %d ways, %d places", stats.Nodes, stats.Ways, stats.Places)

	// Step 2: Clean.
	removed := g.Prune()
	log.Printf("Pruned %d isolated vertices", removed)
	if *largest {
		dropped := g.KeepLargestComponent()
		log.Printf("Dropped %d vertices outside the largest component", dropped)
	}
	b := g.Bound()
	log.Printf("Graph: %d vertices, %d edges, bounds lat [%.4f, %.4f] lng [%.4f, %.4f]",
		g.Len(), g.NumEdges(), b.Bottom(), b.Top(), b.Left(), b.Right())

	// Step 3: Tile tree.
	rasterer, err := raster.New(raster.DefaultConfig())
	if err != nil {
		log.Fatalf("Failed to build tile tree: %v", err)
	}
	log.Printf("Quadtree: %d nodes, max depth %d", rasterer.Tree().Len(), rasterer.Tree().MaxDepth())

	// Step 4: Tile store, with Redis in front if configured.
	var cache tiles.Cache
	if rc := tiles.OpenRedis(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB); rc != nil {
		if err := rc.Ping(context.Background()).Err(); err != nil {
			log.Printf("Redis ping failed, tile cache disabled: %v", err)
			rc.Close()
		} else {
			rcache := tiles.NewRedisCache(rc, cfg.TilePrefix)
			defer rcache.Close()
			cache = rcache
			log.Printf("Tile cache: redis %s", cfg.RedisAddr)
		}
	}
	store := tiles.NewStore(*tileDir, cache, cfg.TileTTL)

	log.Printf("Ready in %s", time.Since(start).Round(time.Millisecond))

	// Setup HTTP server.
	srvCfg := api.DefaultConfig(*addr)
	srvCfg.CORSOrigin = *corsOrigin
	if cfg.MaxInFlight > 0 {
		srvCfg.MaxConcurrent = cfg.MaxInFlight
	}

	handlers := api.NewHandlers(api.Deps{
		Router: routing.NewEngine(g),
		Raster: rasterer,
		Places: idx,
		Tiles:  store,
	}, api.StatsResponse{
		NumVertices:  g.Len(),
		NumEdges:     g.NumEdges(),
		NumPlaces:    idx.Len(),
		NumTreeNodes: rasterer.Tree().Len(),
		MaxDepth:     rasterer.Tree().MaxDepth(),
	})
	srv := api.NewServer(srvCfg, handlers)

	if err := api.ListenAndServe(srv); err != nil {
		log.Printf("Server stopped: %v", err)
		os.Exit(1)
	}
}
