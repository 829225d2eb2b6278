package graph

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/tidwall/rtree"
)

// ErrNotFound is returned when a vertex id is not present in the graph.
var ErrNotFound = errors.New("vertex not found")

// ErrEmptyGraph is returned by queries that need at least one vertex.
var ErrEmptyGraph = errors.New("graph has no vertices")

// Vertex is a road intersection or shape point.
type Vertex struct {
	ID  int64
	Lon float64
	Lat float64
	Adj []int64 // symmetric: if b is in a.Adj then a is in b.Adj
}

// Point returns the vertex location as a planar (lon, lat) point.
func (v *Vertex) Point() orb.Point {
	return orb.Point{v.Lon, v.Lat}
}

// Degree returns the number of adjacent vertices.
func (v *Vertex) Degree() int { return len(v.Adj) }

// Graph is an undirected road graph keyed by OSM node id.
//
// A Graph is mutated only while it is being built (AddVertex, AddWay, Prune,
// KeepLargestComponent). After that it is read-only and safe for concurrent use.
type Graph struct {
	vertices map[int64]*Vertex
	index    *rtree.RTreeG[int64] // nil until Prune builds it
	numEdges int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{vertices: make(map[int64]*Vertex)}
}

// Len returns the number of vertices.
func (g *Graph) Len() int { return len(g.vertices) }

// NumEdges returns the number of undirected edges.
func (g *Graph) NumEdges() int { return g.numEdges }

// Vertex returns the vertex with the given id.
func (g *Graph) Vertex(id int64) (*Vertex, error) {
	v, ok := g.vertices[id]
	if !ok {
		return nil, fmt.Errorf("vertex %d: %w", id, ErrNotFound)
	}
	return v, nil
}

// VertexIDs returns the ids of all vertices in unspecified order.
func (g *Graph) VertexIDs() []int64 {
	ids := make([]int64, 0, len(g.vertices))
	for id := range g.vertices {
		ids = append(ids, id)
	}
	return ids
}

// Neighbors returns the ids adjacent to id. The returned slice must not be modified.
func (g *Graph) Neighbors(id int64) ([]int64, error) {
	v, err := g.Vertex(id)
	if err != nil {
		return nil, err
	}
	return v.Adj, nil
}

// Distance returns the Euclidean distance between two vertices in the
// (lon, lat) plane. It is not a geodesic distance.
func (g *Graph) Distance(a, b int64) (float64, error) {
	va, err := g.Vertex(a)
	if err != nil {
		return 0, err
	}
	vb, err := g.Vertex(b)
	if err != nil {
		return 0, err
	}
	return planar.Distance(va.Point(), vb.Point()), nil
}

// Nearest returns the id of the vertex closest to (lon, lat).
// Ties are broken arbitrarily.
func (g *Graph) Nearest(lon, lat float64) (int64, error) {
	if len(g.vertices) == 0 {
		return 0, ErrEmptyGraph
	}
	if g.index != nil {
		return g.nearestIndexed(lon, lat), nil
	}
	return g.nearestScan(lon, lat), nil
}

// nearestScan checks every vertex.
func (g *Graph) nearestScan(lon, lat float64) int64 {
	p := orb.Point{lon, lat}
	var best int64
	bestDist := -1.0
	for id, v := range g.vertices {
		d := planar.DistanceSquared(p, v.Point())
		if bestDist < 0 || d < bestDist {
			best = id
			bestDist = d
		}
	}
	return best
}
