package graph

import (
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Clip removes every vertex outside b, along with its edges, and rebuilds
// the nearest-vertex index. It returns the number of vertices removed.
func (g *Graph) Clip(b orb.Bound) int {
	drop := make(map[int64]struct{})
	for id, v := range g.vertices {
		if !b.Contains(v.Point()) {
			drop[id] = struct{}{}
		}
	}
	g.removeVertices(drop)
	g.buildIndex()
	return len(drop)
}

// FeatureCollection returns one LineString feature per undirected edge,
// ordered by (from, to) id. Each feature carries the endpoint ids.
func (g *Graph) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	ids := g.VertexIDs()
	slices.Sort(ids)
	for _, id := range ids {
		v := g.vertices[id]
		adj := slices.Clone(v.Adj)
		slices.Sort(adj)
		for _, w := range adj {
			if w < id {
				continue // emitted from the other end
			}
			f := geojson.NewFeature(orb.LineString{v.Point(), g.vertices[w].Point()})
			f.Properties["from"] = id
			f.Properties["to"] = w
			fc.Append(f)
		}
	}
	return fc
}
