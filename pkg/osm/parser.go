package osm

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
)

// Format is the encoding of an OSM extract.
type Format int

const (
	FormatXML Format = iota
	FormatPBF
)

func (f Format) String() string {
	switch f {
	case FormatXML:
		return "xml"
	case FormatPBF:
		return "pbf"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// FormatFromPath guesses the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".pbf"):
		return FormatPBF, nil
	case strings.HasSuffix(lower, ".osm"), strings.HasSuffix(lower, ".xml"):
		return FormatXML, nil
	}
	return 0, fmt.Errorf("file extension %q for %q is not handled", filepath.Ext(path), path)
}

// Sink receives the road network as it is read.
type Sink interface {
	AddVertex(id int64, lon, lat float64)
	AddWay(id int64, refs []int64) error
}

// PlaceSink is implemented by sinks that also want named nodes.
type PlaceSink interface {
	AddPlace(id int64, name string, lon, lat float64)
}

// Stats summarises one Parse call.
type Stats struct {
	Nodes       int
	Places      int
	Ways        int // ways the sink accepted without error
	SkippedWays int // ways filtered out by tag or length
	WayErrors   int // ways the sink reported an error for
}

// roadHighways lists highway tag values that become graph edges.
var roadHighways = map[string]bool{
	"motorway":       true,
	"trunk":          true,
	"primary":        true,
	"secondary":      true,
	"tertiary":       true,
	"unclassified":   true,
	"residential":    true,
	"living_street":  true,
	"motorway_link":  true,
	"trunk_link":     true,
	"primary_link":   true,
	"secondary_link": true,
	"tertiary_link":  true,
}

// isRoad returns true if the way's highway tag is one we route over.
func isRoad(tags osm.Tags) bool {
	return roadHighways[tags.Find("highway")]
}

// scanner is satisfied by both osmxml.Scanner and osmpbf.Scanner.
type scanner interface {
	Scan() bool
	Object() osm.Object
	Err() error
	Close() error
}

// way holds refs collected during the scan. Ways are handed to the sink
// after all nodes so that node/way order in the file does not matter.
type way struct {
	id   int64
	refs []int64
}

// Parse reads an OSM extract and feeds its nodes and road ways to sink.
// Errors returned by sink.AddWay are counted and logged, not fatal.
func Parse(ctx context.Context, r io.Reader, format Format, sink Sink) (*Stats, error) {
	var sc scanner
	switch format {
	case FormatXML:
		sc = osmxml.New(ctx, r)
	case FormatPBF:
		sc = osmpbf.New(ctx, r, 4)
	default:
		return nil, fmt.Errorf("unknown format %v", format)
	}
	defer sc.Close()

	places, _ := sink.(PlaceSink)
	stats := &Stats{}
	var ways []way

	for sc.Scan() {
		switch obj := sc.Object().(type) {
		case *osm.Node:
			id := int64(obj.ID)
			sink.AddVertex(id, obj.Lon, obj.Lat)
			stats.Nodes++
			if places != nil {
				if name := obj.Tags.Find("name"); name != "" {
					places.AddPlace(id, name, obj.Lon, obj.Lat)
					stats.Places++
				}
			}
		case *osm.Way:
			if !isRoad(obj.Tags) || len(obj.Nodes) < 2 {
				stats.SkippedWays++
				continue
			}
			refs := make([]int64, len(obj.Nodes))
			for i, wn := range obj.Nodes {
				refs[i] = int64(wn.ID)
			}
			ways = append(ways, way{id: int64(obj.ID), refs: refs})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", format, err)
	}

	log.Printf("Scan complete: %d nodes, %d road ways, %d ways skipped", stats.Nodes, len(ways), stats.SkippedWays)

	for _, w := range ways {
		if err := sink.AddWay(w.id, w.refs); err != nil {
			stats.WayErrors++
			if stats.WayErrors <= 10 {
				log.Printf("Warning: %v", err)
			}
			continue
		}
		stats.Ways++
	}
	if stats.WayErrors > 0 {
		log.Printf("Warning: %d ways referenced missing nodes", stats.WayErrors)
	}

	return stats, nil
}

// ParseFile opens path, picks the format from its extension and parses it.
func ParseFile(ctx context.Context, path string, sink Sink) (*Stats, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return Parse(ctx, f, format, sink)
}
