// Package quadtree implements a fixed-depth spatial partition of a rectangular
// map extent, used to pick tiles of the right resolution for a viewport.
package quadtree

import (
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
)

// TileSize is the width in pixels of every tile image.
const TileSize = 256

// RootID is the identifier of the root node. A child's id is its parent's id
// times ten plus its quadrant (QuadUL..QuadLR), so the decimal digits spell the
// path from the root.
const RootID = 0

// Quadrants in child order.
const (
	QuadUL = 1
	QuadUR = 2
	QuadLL = 3
	QuadLR = 4
)

const noChild = -1

// Node is one rectangle of the partition.
type Node struct {
	ID     int
	Bound  orb.Bound // Min is (left lon, bottom lat), Max is (right lon, top lat)
	LonDPP float64   // longitude span per tile pixel
	Depth  int

	children [4]int32 // arena indices in UL, UR, LL, LR order, noChild at max depth
}

// UpperLeft returns the (lon, lat) of the upper-left corner.
func (n *Node) UpperLeft() orb.Point { return orb.Point{n.Bound.Left(), n.Bound.Top()} }

// LowerRight returns the (lon, lat) of the lower-right corner.
func (n *Node) LowerRight() orb.Point { return orb.Point{n.Bound.Right(), n.Bound.Bottom()} }

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return n.children[0] == noChild }

// Name returns the tile name for the node: "root" or the decimal path id.
func (n *Node) Name() string { return Name(n.ID) }

// Name returns the tile name for a node id.
func Name(id int) string {
	if id == RootID {
		return "root"
	}
	return strconv.Itoa(id)
}

// Tree is an eagerly built quadtree. It is immutable after Build and safe for
// concurrent use.
type Tree struct {
	nodes    []Node      // arena; nodes[0] is the root
	byID     map[int]int // path id -> arena index
	maxDepth int
}

// maxSupportedDepth keeps path ids within an int64 and the arena within reason.
const maxSupportedDepth = 12

// Build subdivides root into four equal quadrants recursively until maxDepth.
// Every node, internal or leaf, is retained.
func Build(root orb.Bound, maxDepth int) (*Tree, error) {
	if maxDepth < 0 || maxDepth > maxSupportedDepth {
		return nil, fmt.Errorf("max depth %d out of range [0, %d]", maxDepth, maxSupportedDepth)
	}
	if !(root.Left() < root.Right()) || !(root.Bottom() < root.Top()) {
		return nil, fmt.Errorf("root bound %v is empty", root)
	}

	// Total nodes: (4^(d+1) - 1) / 3.
	total := ((1 << (2 * (maxDepth + 1))) - 1) / 3
	t := &Tree{
		nodes:    make([]Node, 0, total),
		byID:     make(map[int]int, total),
		maxDepth: maxDepth,
	}
	t.build(RootID, root, 0)
	return t, nil
}

// build appends the node and its subtree to the arena, returning its index.
func (t *Tree) build(id int, b orb.Bound, depth int) int32 {
	idx := int32(len(t.nodes))
	t.nodes = append(t.nodes, Node{
		ID:       id,
		Bound:    b,
		LonDPP:   (b.Right() - b.Left()) / TileSize,
		Depth:    depth,
		children: [4]int32{noChild, noChild, noChild, noChild},
	})
	t.byID[id] = int(idx)

	if depth == t.maxDepth {
		return idx
	}

	midLon := (b.Left() + b.Right()) / 2
	midLat := (b.Bottom() + b.Top()) / 2
	quads := [4]orb.Bound{
		{Min: orb.Point{b.Left(), midLat}, Max: orb.Point{midLon, b.Top()}},     // UL
		{Min: orb.Point{midLon, midLat}, Max: orb.Point{b.Right(), b.Top()}},    // UR
		{Min: orb.Point{b.Left(), b.Bottom()}, Max: orb.Point{midLon, midLat}},  // LL
		{Min: orb.Point{midLon, b.Bottom()}, Max: orb.Point{b.Right(), midLat}}, // LR
	}
	var children [4]int32
	for q, qb := range quads {
		children[q] = t.build(id*10+q+1, qb, depth+1)
	}
	// Appends above may have grown the arena; write through the index.
	t.nodes[idx].children = children
	return idx
}

// Root returns the root node.
func (t *Tree) Root() *Node { return &t.nodes[0] }

// MaxDepth returns the depth of the leaves.
func (t *Tree) MaxDepth() int { return t.maxDepth }

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node with the given path id.
func (t *Tree) Node(id int) (*Node, bool) {
	idx, ok := t.byID[id]
	if !ok {
		return nil, false
	}
	return &t.nodes[idx], true
}

// Children returns the node's children in UL, UR, LL, LR order, or nil for a leaf.
func (t *Tree) Children(n *Node) []*Node {
	if n.IsLeaf() {
		return nil
	}
	out := make([]*Node, 4)
	for i, c := range n.children {
		out[i] = &t.nodes[c]
	}
	return out
}
