package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/paulmach/orb"

	"map_server/pkg/graph"
	osmparser "map_server/pkg/osm"
)

func main() {
	input := flag.String("input", "", "Path to .osm or .osm.pbf file")
	output := flag.String("output", "roads.geojson", "Output GeoJSON file path")
	bbox := flag.String("bbox", "", "Bounding box filter: minLat,minLng,maxLat,maxLng (e.g. 37.82,-122.30,37.90,-122.21)")
	largest := flag.Bool("largest-component", true, "Keep only the largest connected component")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: preprocess --input <file.osm|file.osm.pbf> [--output roads.geojson] [--bbox minLat,minLng,maxLat,maxLng]")
		os.Exit(1)
	}

	var clip *orb.Bound
	if *bbox != "" {
		var minLat, minLng, maxLat, maxLng float64
		_, err := fmt.Sscanf(*bbox, "%f,%f,%f,%f", &minLat, &minLng, &maxLat, &maxLng)
		if err != nil {
			log.Fatalf("Invalid bbox format (expected minLat,minLng,maxLat,maxLng): %v", err)
		}
		clip = &orb.Bound{Min: orb.Point{minLng, minLat}, Max: orb.Point{maxLng, maxLat}}
		log.Printf("Using bounding box filter: lat [%.4f, %.4f], lng [%.4f, %.4f]", minLat, maxLat, minLng, maxLng)
	}

	start := time.Now()

	// Step 1: Parse OSM data.
	log.Printf("Parsing %s...", *input)
	g := graph.New()
	stats, err := osmparser.ParseFile(context.Background(), *input, g)
	if err != nil {
		log.Fatalf("Failed to parse OSM data: %v", err)
	}
	log.Printf("Parsed %d nodes, %d ways", stats.Nodes, stats.Ways)

	// Step 2: Clip and clean.
	if clip != nil {
		log.Printf("Clipped %d vertices outside bounding box", g.Clip(*clip))
	}
	log.Printf("Pruned %d isolated vertices", g.Prune())
	log.Printf("Graph: %d vertices, %d edges", g.Len(), g.NumEdges())

	// Step 3: Extract largest connected component.
	if *largest {
		n := g.Len()
		g.KeepLargestComponent()
		if n > 0 {
			log.Printf("Largest component: %d vertices (%.1f%%)", g.Len(), float64(g.Len())/float64(n)*100)
		}
	}

	b := g.Bound()
	log.Printf("Output bounds: lat [%.4f, %.4f], lng [%.4f, %.4f]", b.Bottom(), b.Top(), b.Left(), b.Right())

	// Step 4: Write GeoJSON.
	log.Printf("Writing GeoJSON to %s...", *output)
	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create output: %v", err)
	}
	if err := json.NewEncoder(f).Encode(g.FeatureCollection()); err != nil {
		f.Close()
		log.Fatalf("Failed to write GeoJSON: %v", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("Failed to close output: %v", err)
	}

	info, _ := os.Stat(*output)
	elapsed := time.Since(start)
	log.Printf("Done in %s. Output: %s (%.1f MB)", elapsed.Round(time.Millisecond), *output, float64(info.Size())/(1024*1024))
}
