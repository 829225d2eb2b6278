package graph

import (
	"fmt"
	"slices"
)

// AddVertex inserts a vertex. Declaring an existing id again moves it to the
// new location and keeps its adjacency.
func (g *Graph) AddVertex(id int64, lon, lat float64) {
	if v, ok := g.vertices[id]; ok {
		v.Lon = lon
		v.Lat = lat
		return
	}
	g.vertices[id] = &Vertex{ID: id, Lon: lon, Lat: lat}
}

// AddWay connects each consecutive pair of refs with an undirected edge.
// A pair that references an unknown vertex is skipped; the rest of the way is
// still added and the returned error wraps ErrNotFound.
func (g *Graph) AddWay(id int64, refs []int64) error {
	var skipped int
	for i := 0; i+1 < len(refs); i++ {
		a, aOk := g.vertices[refs[i]]
		b, bOk := g.vertices[refs[i+1]]
		if !aOk || !bOk {
			skipped++
			continue
		}
		g.connect(a, b)
	}
	if skipped > 0 {
		return fmt.Errorf("way %d: skipped %d of %d edges: %w", id, skipped, len(refs)-1, ErrNotFound)
	}
	return nil
}

// connect adds a <-> b unless it is a self loop or already present.
func (g *Graph) connect(a, b *Vertex) {
	if a.ID == b.ID || slices.Contains(a.Adj, b.ID) {
		return
	}
	a.Adj = append(a.Adj, b.ID)
	b.Adj = append(b.Adj, a.ID)
	g.numEdges++
}

// Prune removes every vertex without adjacency and rebuilds the nearest-vertex
// index. It returns the number of vertices removed. Calling it again is a no-op
// apart from the index rebuild.
func (g *Graph) Prune() int {
	var removed int
	for id, v := range g.vertices {
		if v.Degree() == 0 {
			delete(g.vertices, id)
			removed++
		}
	}
	g.buildIndex()
	return removed
}

// removeVertices deletes the given vertices together with every edge touching them.
func (g *Graph) removeVertices(drop map[int64]struct{}) {
	for id := range drop {
		v, ok := g.vertices[id]
		if !ok {
			continue
		}
		for _, w := range v.Adj {
			if _, gone := drop[w]; gone {
				continue
			}
			nb := g.vertices[w]
			nb.Adj = slices.DeleteFunc(nb.Adj, func(x int64) bool { return x == id })
		}
		delete(g.vertices, id)
	}
	g.numEdges = 0
	for _, v := range g.vertices {
		g.numEdges += v.Degree()
	}
	g.numEdges /= 2
}
