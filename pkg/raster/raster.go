// Package raster turns a viewport query into the grid of quadtree tiles that
// covers it at the coarsest sufficient resolution.
package raster

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"map_server/pkg/quadtree"
)

// ErrOutOfBounds is returned when the query box does not intersect the tiled
// extent. Callers should treat it as "no tiles" rather than a failure.
var ErrOutOfBounds = errors.New("query outside tiled region")

// ErrInvalidQuery is returned for inverted boxes, non-finite values or a
// non-positive width.
var ErrInvalidQuery = errors.New("invalid raster query")

// DefaultRoot is the extent of the Berkeley tile set.
var DefaultRoot = orb.Bound{
	Min: orb.Point{-122.2998046875, 37.82280243352756},
	Max: orb.Point{-122.2119140625, 37.892195547244356},
}

// DefaultMaxDepth gives eight tile levels, depth 0 to 7.
const DefaultMaxDepth = 7

// Config configures a Rasterer.
type Config struct {
	Root     orb.Bound
	MaxDepth int
	Ext      string // tile file extension, including the dot
}

// DefaultConfig returns the Berkeley tile set configuration.
func DefaultConfig() Config {
	return Config{
		Root:     DefaultRoot,
		MaxDepth: DefaultMaxDepth,
		Ext:      ".png",
	}
}

// Request is a viewport: upper-left and lower-right corners plus pixel size.
type Request struct {
	ULLon, ULLat float64
	LRLon, LRLat float64
	Width        float64
	Height       float64
}

// LonDPP returns the longitude distance per pixel the viewport needs.
func (r Request) LonDPP() float64 {
	return (r.LRLon - r.ULLon) / r.Width
}

// Bound returns the request box.
func (r Request) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{r.ULLon, r.LRLat},
		Max: orb.Point{r.LRLon, r.ULLat},
	}
}

func (r Request) validate() error {
	for _, v := range []float64{r.ULLon, r.ULLat, r.LRLon, r.LRLat, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value", ErrInvalidQuery)
		}
	}
	if r.LRLon < r.ULLon || r.LRLat > r.ULLat {
		return fmt.Errorf("%w: box (%f, %f)-(%f, %f) is inverted", ErrInvalidQuery, r.ULLon, r.ULLat, r.LRLon, r.LRLat)
	}
	if r.Width <= 0 {
		return fmt.Errorf("%w: width %f", ErrInvalidQuery, r.Width)
	}
	return nil
}

// Result describes the tiles to draw and the exact box they cover.
type Result struct {
	Grid    [][]string // tile file names, row-major, top row first
	IDs     [][]int
	ULLon   float64
	ULLat   float64
	LRLon   float64
	LRLat   float64
	Depth   int // depth of the last tile accepted; see Depths
	Depths  []int
	Success bool
}

// NumTiles returns the number of tiles in the grid.
func (r *Result) NumTiles() int {
	var n int
	for _, row := range r.Grid {
		n += len(row)
	}
	return n
}

// Rasterer answers viewport queries against a quadtree. It is safe for
// concurrent use.
type Rasterer struct {
	tree *quadtree.Tree
	ext  string
}

// New builds the quadtree described by cfg.
func New(cfg Config) (*Rasterer, error) {
	tree, err := quadtree.Build(cfg.Root, cfg.MaxDepth)
	if err != nil {
		return nil, fmt.Errorf("build quadtree: %w", err)
	}
	return &Rasterer{tree: tree, ext: cfg.Ext}, nil
}

// Tree returns the underlying quadtree.
func (r *Rasterer) Tree() *quadtree.Tree { return r.tree }

// Query selects the tiles for a viewport.
func (r *Rasterer) Query(req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	col := r.tree.Collect(req.Bound(), req.LonDPP())
	if !col.Success {
		return &Result{Success: false}, ErrOutOfBounds
	}

	res := &Result{
		IDs:     col.IDs(),
		ULLon:   col.Bound.Left(),
		ULLat:   col.Bound.Top(),
		LRLon:   col.Bound.Right(),
		LRLat:   col.Bound.Bottom(),
		Depth:   col.Depth,
		Depths:  col.Depths(),
		Success: true,
	}
	res.Grid = make([][]string, len(col.Rows))
	for i, row := range col.Rows {
		res.Grid[i] = make([]string, len(row))
		for j, n := range row {
			res.Grid[i][j] = n.Name() + r.ext
		}
	}
	return res, nil
}
