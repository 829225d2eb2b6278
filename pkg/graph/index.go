package graph

import (
	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"
)

// buildIndex rebuilds the R-tree over all current vertices.
func (g *Graph) buildIndex() {
	var tr rtree.RTreeG[int64]
	for id, v := range g.vertices {
		pt := [2]float64{v.Lon, v.Lat}
		tr.Insert(pt, pt, id)
	}
	g.index = &tr
}

// nearestIndexed walks the R-tree in increasing box distance. Vertices are
// stored as degenerate boxes, so the first item visited is an exact nearest.
func (g *Graph) nearestIndexed(lon, lat float64) int64 {
	target := [2]float64{lon, lat}
	var best int64
	g.index.Nearby(
		rtree.BoxDist[float64, int64](target, target, nil),
		func(min, max [2]float64, id int64, dist float64) bool {
			best = id
			return false
		},
	)
	return best
}

// Bound returns the bounding box of all vertices.
func (g *Graph) Bound() orb.Bound {
	if len(g.vertices) == 0 {
		return orb.Bound{}
	}
	mp := make(orb.MultiPoint, 0, len(g.vertices))
	for _, v := range g.vertices {
		mp = append(mp, v.Point())
	}
	return mp.Bound()
}
