package routing

import (
	"context"
	"errors"
	"fmt"

	"github.com/paulmach/orb/planar"

	"map_server/pkg/graph"
)

// ErrBrokenPath is returned if parent pointers do not lead back to the source.
// It indicates a bug, not bad input.
var ErrBrokenPath = errors.New("parent pointers do not form a path to the source")

// searchState holds per-query A* state. It is never shared between queries.
type searchState struct {
	distTo   map[int64]float64
	parent   map[int64]int64
	visited  map[int64]struct{}
	frontier MinHeap
	pops     int
}

func newSearchState() *searchState {
	return &searchState{
		distTo:   make(map[int64]float64),
		parent:   make(map[int64]int64),
		visited:  make(map[int64]struct{}),
		frontier: MinHeap{items: make([]PQItem, 0, 256)},
	}
}

// astar runs A* from source to target with the straight-line distance as
// heuristic. Edge cost and heuristic use the same planar metric, so the
// heuristic is consistent and the first pop of target is optimal.
func astar(ctx context.Context, g *graph.Graph, source, target int64) (*searchState, error) {
	src, err := g.Vertex(source)
	if err != nil {
		return nil, err
	}
	dst, err := g.Vertex(target)
	if err != nil {
		return nil, err
	}
	goal := dst.Point()

	qs := newSearchState()
	qs.distTo[source] = 0
	qs.frontier.Push(source, planar.Distance(src.Point(), goal))

	for qs.frontier.Len() > 0 {
		// Check context cancellation periodically.
		qs.pops++
		if qs.pops%100 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		item := qs.frontier.Pop()
		v := item.Node
		if v == target {
			return qs, nil
		}
		if _, done := qs.visited[v]; done {
			continue // stale duplicate
		}
		qs.visited[v] = struct{}{}

		vv, err := g.Vertex(v)
		if err != nil {
			return nil, err
		}
		pred, hasPred := qs.parent[v]
		dv := qs.distTo[v]

		for _, w := range vv.Adj {
			if hasPred && w == pred {
				continue
			}
			if _, done := qs.visited[w]; done {
				continue
			}
			wv, err := g.Vertex(w)
			if err != nil {
				return nil, err
			}
			cand := dv + planar.Distance(vv.Point(), wv.Point())
			if old, seen := qs.distTo[w]; seen && cand >= old {
				continue
			}
			qs.distTo[w] = cand
			qs.parent[w] = v
			qs.frontier.Push(w, cand+planar.Distance(wv.Point(), goal))
		}
	}

	return nil, ErrNoRoute
}

// path follows parent pointers from target back to source.
func (qs *searchState) path(source, target int64) ([]int64, error) {
	// A valid parent chain visits each recorded vertex at most once.
	limit := len(qs.parent) + 1

	nodes := []int64{target}
	for cur := target; cur != source; {
		p, ok := qs.parent[cur]
		if !ok || len(nodes) > limit {
			return nil, fmt.Errorf("%w: stuck at %d after %d steps", ErrBrokenPath, cur, len(nodes))
		}
		nodes = append(nodes, p)
		cur = p
	}

	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	return nodes, nil
}
