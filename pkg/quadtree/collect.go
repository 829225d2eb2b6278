package quadtree

import (
	"slices"

	"github.com/paulmach/orb"
)

// Result is the outcome of Collect.
type Result struct {
	// Success is false only when the query does not overlap the root.
	Success bool

	// Bound is the union of all accepted node rectangles.
	Bound orb.Bound

	// Depth is the depth of the most recently accepted node. Branches can stop
	// at different depths, so it does not describe every tile; see Depths.
	Depth int

	// Rows holds accepted nodes grouped by upper-left latitude, top row first,
	// each row ordered left to right.
	Rows [][]*Node
}

// IDs returns the row-major grid of node ids.
func (r *Result) IDs() [][]int {
	ids := make([][]int, len(r.Rows))
	for i, row := range r.Rows {
		ids[i] = make([]int, len(row))
		for j, n := range row {
			ids[i][j] = n.ID
		}
	}
	return ids
}

// Depths returns the distinct depths of the accepted nodes in ascending order.
// A single element means the grid is uniform.
func (r *Result) Depths() []int {
	var depths []int
	for _, row := range r.Rows {
		for _, n := range row {
			if !slices.Contains(depths, n.Depth) {
				depths = append(depths, n.Depth)
			}
		}
	}
	slices.Sort(depths)
	return depths
}

// Len returns the number of accepted nodes.
func (r *Result) Len() int {
	var n int
	for _, row := range r.Rows {
		n += len(row)
	}
	return n
}

// Collect returns the coarsest nodes overlapping query whose LonDPP is at most
// lonDPP, or leaves where no node is fine enough.
func (t *Tree) Collect(query orb.Bound, lonDPP float64) *Result {
	res := &Result{}
	t.collect(t.Root(), query, lonDPP, res)
	if res.Success {
		slices.SortStableFunc(res.Rows, func(a, b []*Node) int {
			// Descending upper-left latitude.
			ta, tb := a[0].Bound.Top(), b[0].Bound.Top()
			switch {
			case ta > tb:
				return -1
			case ta < tb:
				return 1
			}
			return 0
		})
	}
	return res
}

func (t *Tree) collect(n *Node, query orb.Bound, lonDPP float64, res *Result) {
	if !overlaps(query, n.Bound) {
		return
	}

	if n.Depth < t.maxDepth && n.LonDPP > lonDPP {
		for _, c := range t.Children(n) {
			t.collect(c, query, lonDPP, res)
		}
		return
	}

	if !res.Success {
		res.Success = true
		res.Bound = n.Bound
	} else {
		res.Bound = res.Bound.Union(n.Bound)
	}
	res.Depth = n.Depth
	res.Rows = insertNode(res.Rows, n)
}

// overlaps is the inclusive axis-aligned rectangle intersection test.
func overlaps(query, node orb.Bound) bool {
	return query.Right() >= node.Left() &&
		query.Top() >= node.Bottom() &&
		query.Left() <= node.Right() &&
		query.Bottom() <= node.Top()
}

// insertNode places n in the row sharing its exact upper-left latitude, before
// the first entry whose upper-left longitude is greater.
func insertNode(rows [][]*Node, n *Node) [][]*Node {
	for i, row := range rows {
		if row[0].Bound.Top() != n.Bound.Top() {
			continue
		}
		pos := len(row)
		for j, m := range row {
			if m.Bound.Left() > n.Bound.Left() {
				pos = j
				break
			}
		}
		rows[i] = slices.Insert(row, pos, n)
		return rows
	}
	return append(rows, []*Node{n})
}
