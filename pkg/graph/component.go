package graph

// UnionFind implements a disjoint-set data structure with path compression
// and union by rank.
type UnionFind struct {
	parent []uint32
	rank   []byte // ranks stay below 32 for any realistic graph
	size   []uint32
}

// NewUnionFind creates a UnionFind for n elements.
func NewUnionFind(n uint32) *UnionFind {
	parent := make([]uint32, n)
	size := make([]uint32, n)
	for i := range n {
		parent[i] = i
		size[i] = 1
	}
	return &UnionFind{
		parent: parent,
		rank:   make([]byte, n),
		size:   size,
	}
}

// Find returns the representative of the set containing x, with path halving.
func (uf *UnionFind) Find(x uint32) uint32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing x and y. Returns false if already same set.
func (uf *UnionFind) Union(x, y uint32) bool {
	rx := uf.Find(x)
	ry := uf.Find(y)
	if rx == ry {
		return false
	}
	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

// Size returns the number of elements in the set containing x.
func (uf *UnionFind) Size(x uint32) uint32 {
	return uf.size[uf.Find(x)]
}

// LargestComponent returns the vertex ids of the largest connected component.
func (g *Graph) LargestComponent() []int64 {
	if len(g.vertices) == 0 {
		return nil
	}

	// Dense numbering for the union-find arrays.
	ids := g.VertexIDs()
	dense := make(map[int64]uint32, len(ids))
	for i, id := range ids {
		dense[id] = uint32(i)
	}

	uf := NewUnionFind(uint32(len(ids)))
	for i, id := range ids {
		for _, w := range g.vertices[id].Adj {
			uf.Union(uint32(i), dense[w])
		}
	}

	bestRoot := uint32(0)
	bestSize := uint32(0)
	for i := range ids {
		root := uf.Find(uint32(i))
		if uf.size[root] > bestSize {
			bestRoot = root
			bestSize = uf.size[root]
		}
	}

	nodes := make([]int64, 0, bestSize)
	for i, id := range ids {
		if uf.Find(uint32(i)) == bestRoot {
			nodes = append(nodes, id)
		}
	}
	return nodes
}

// KeepLargestComponent drops every vertex outside the largest connected
// component and rebuilds the nearest-vertex index. It returns the number of
// vertices removed. Like Prune it belongs to the build phase.
func (g *Graph) KeepLargestComponent() int {
	keep := g.LargestComponent()
	if len(keep) == len(g.vertices) {
		return 0
	}
	inKeep := make(map[int64]struct{}, len(keep))
	for _, id := range keep {
		inKeep[id] = struct{}{}
	}
	drop := make(map[int64]struct{}, len(g.vertices)-len(keep))
	for id := range g.vertices {
		if _, ok := inKeep[id]; !ok {
			drop[id] = struct{}{}
		}
	}
	g.removeVertices(drop)
	g.buildIndex()
	return len(drop)
}
