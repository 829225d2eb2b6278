package routing

import (
	"context"
	"errors"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"

	"map_server/pkg/graph"
	"map_server/pkg/metrics"
)

// ErrNoRoute is returned when no route exists between the two points.
var ErrNoRoute = errors.New("no route found")

// LatLng represents a geographic coordinate.
type LatLng struct {
	Lat float64
	Lng float64
}

// RouteResult is the output of a route query.
type RouteResult struct {
	// Nodes runs from the vertex nearest the start to the vertex nearest the end.
	Nodes []int64

	Geometry []LatLng

	// Cost is the path length in the planar (lon, lat) metric the search minimises.
	Cost float64

	// TotalDistanceMeters is the great-circle length of the same path.
	TotalDistanceMeters float64
}

// LineString returns the route geometry in (lon, lat) order.
func (r *RouteResult) LineString() orb.LineString {
	ls := make(orb.LineString, len(r.Geometry))
	for i, ll := range r.Geometry {
		ls[i] = orb.Point{ll.Lng, ll.Lat}
	}
	return ls
}

// Feature returns the route as a GeoJSON LineString feature.
func (r *RouteResult) Feature() *geojson.Feature {
	f := geojson.NewFeature(r.LineString())
	f.Properties["distance_meters"] = r.TotalDistanceMeters
	f.Properties["nodes"] = len(r.Nodes)
	return f
}

// Router is the interface for route queries.
type Router interface {
	Route(ctx context.Context, start, end LatLng) (*RouteResult, error)
}

// Engine implements Router with A* over a pruned graph. The graph must not be
// modified while the engine is in use; concurrent Route calls are safe.
type Engine struct {
	g *graph.Graph
}

// NewEngine creates a routing engine over g.
func NewEngine(g *graph.Graph) *Engine {
	return &Engine{g: g}
}

// Route computes the shortest path between the vertices nearest to start and end.
func (e *Engine) Route(ctx context.Context, start, end LatLng) (*RouteResult, error) {
	// Step 1: Resolve both points to their nearest vertices.
	source, err := e.g.Nearest(start.Lng, start.Lat)
	if err != nil {
		return nil, err
	}
	target, err := e.g.Nearest(end.Lng, end.Lat)
	if err != nil {
		return nil, err
	}

	// Step 2: Search.
	qs, err := astar(ctx, e.g, source, target)
	if qs != nil {
		metrics.SearchPops.Observe(float64(qs.pops))
	}
	if err != nil {
		return nil, err
	}

	// Step 3: Reconstruct.
	nodes, err := qs.path(source, target)
	if err != nil {
		return nil, err
	}

	// Step 4: Geometry and length.
	result := &RouteResult{
		Nodes:    nodes,
		Cost:     qs.distTo[target],
		Geometry: make([]LatLng, len(nodes)),
	}
	var prev orb.Point
	for i, id := range nodes {
		v, err := e.g.Vertex(id)
		if err != nil {
			return nil, err
		}
		p := v.Point()
		result.Geometry[i] = LatLng{Lat: v.Lat, Lng: v.Lon}
		if i > 0 {
			result.TotalDistanceMeters += geo.DistanceHaversine(prev, p)
		}
		prev = p
	}

	return result, nil
}

// ShortestPath returns the vertex ids of a shortest path from source to target.
func (e *Engine) ShortestPath(ctx context.Context, source, target int64) ([]int64, error) {
	qs, err := astar(ctx, e.g, source, target)
	if err != nil {
		return nil, err
	}
	return qs.path(source, target)
}
