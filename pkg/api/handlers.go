package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"mime"
	"net/http"
	"strconv"

	"map_server/pkg/graph"
	"map_server/pkg/metrics"
	"map_server/pkg/places"
	"map_server/pkg/raster"
	"map_server/pkg/routing"
	"map_server/pkg/tiles"
)

// TileQuerier selects the tiles for a viewport.
type TileQuerier interface {
	Query(req raster.Request) (*raster.Result, error)
}

// PlaceFinder answers place-name searches.
type PlaceFinder interface {
	Prefix(prefix string) []string
	Lookup(name string) []places.Place
}

// TileSource returns tile image bytes by file name.
type TileSource interface {
	Get(ctx context.Context, name string) ([]byte, error)
}

// Deps are the services behind the handlers. A nil field disables the
// endpoints that need it.
type Deps struct {
	Router routing.Router
	Raster TileQuerier
	Places PlaceFinder
	Tiles  TileSource
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	deps  Deps
	stats StatsResponse
}

// NewHandlers creates handlers over deps.
func NewHandlers(deps Deps, stats StatsResponse) *Handlers {
	return &Handlers{
		deps:  deps,
		stats: stats,
	}
}

// HandleRoute handles POST /api/v1/route.
func (h *Handlers) HandleRoute(w http.ResponseWriter, r *http.Request) {
	// Enforce Content-Type.
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	// Parse request.
	var req RouteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	// Validate coordinates.
	if err := validateCoord(req.Start); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "start")
		return
	}
	if err := validateCoord(req.End); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "end")
		return
	}

	// Route.
	result, err := h.deps.Router.Route(r.Context(), routing.LatLng{Lat: req.Start.Lat, Lng: req.Start.Lng}, routing.LatLng{Lat: req.End.Lat, Lng: req.End.Lng})
	if err != nil {
		switch {
		case errors.Is(err, routing.ErrNoRoute):
			metrics.NoRouteTotal.Inc()
			writeError(w, http.StatusNotFound, "no_route_found", "")
		case errors.Is(err, graph.ErrEmptyGraph):
			writeError(w, http.StatusServiceUnavailable, "graph_empty", "")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusServiceUnavailable, "request_timeout", "")
		default:
			log.Printf("Route error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "")
		}
		return
	}

	// Build response.
	resp := RouteResponse{
		TotalDistanceMeters: result.TotalDistanceMeters,
		Cost:                result.Cost,
		Nodes:               result.Nodes,
		Geometry:            make([]LatLngJSON, len(result.Geometry)),
		GeoJSON:             result.Feature(),
	}
	for i, ll := range result.Geometry {
		resp.Geometry[i] = LatLngJSON{Lat: ll.Lat, Lng: ll.Lng}
	}

	writeJSON(w, resp)
}

// rasterParams are the query parameters of GET /api/v1/raster, in order.
var rasterParams = []string{"ullon", "ullat", "lrlon", "lrlat", "w", "h"}

// HandleRaster handles GET /api/v1/raster.
func (h *Handlers) HandleRaster(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	vals := make([]float64, len(rasterParams))
	for i, name := range rasterParams {
		v, err := strconv.ParseFloat(q.Get(name), 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", name)
			return
		}
		vals[i] = v
	}

	req := raster.Request{
		ULLon: vals[0], ULLat: vals[1],
		LRLon: vals[2], LRLat: vals[3],
		Width: vals[4], Height: vals[5],
	}
	res, err := h.deps.Raster.Query(req)
	if err != nil {
		switch {
		case errors.Is(err, raster.ErrOutOfBounds):
			metrics.RasterOutOfBoundsTotal.Inc()
			writeJSON(w, RasterResponse{QuerySuccess: false})
		case errors.Is(err, raster.ErrInvalidQuery):
			writeError(w, http.StatusBadRequest, "invalid_query", "")
		default:
			log.Printf("Raster error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "")
		}
		return
	}

	metrics.RasterTiles.Observe(float64(res.NumTiles()))
	writeJSON(w, RasterResponse{
		RenderGrid:   res.Grid,
		RasterULLon:  res.ULLon,
		RasterULLat:  res.ULLat,
		RasterLRLon:  res.LRLon,
		RasterLRLat:  res.LRLat,
		Depth:        res.Depth,
		QuerySuccess: res.Success,
	})
}

// HandlePlaces handles GET /api/v1/places?prefix=.
func (h *Handlers) HandlePlaces(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	if places.Clean(prefix) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "prefix")
		return
	}

	names := h.deps.Places.Prefix(prefix)
	if names == nil {
		names = []string{}
	}
	writeJSON(w, PlacesResponse{Names: names})
}

// HandleLocations handles GET /api/v1/places/{name}.
func (h *Handlers) HandleLocations(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if places.Clean(name) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name")
		return
	}

	locs := h.deps.Places.Lookup(name)
	if locs == nil {
		locs = []places.Place{}
	}
	writeJSON(w, LocationsResponse{Locations: locs})
}

// HandleTile handles GET /api/v1/tiles/{name}.
func (h *Handlers) HandleTile(w http.ResponseWriter, r *http.Request) {
	b, err := h.deps.Tiles.Get(r.Context(), r.PathValue("name"))
	if err != nil {
		switch {
		case errors.Is(err, tiles.ErrInvalidName):
			writeError(w, http.StatusBadRequest, "invalid_tile_name", "name")
		case errors.Is(err, tiles.ErrNotFound):
			writeError(w, http.StatusNotFound, "tile_not_found", "")
		default:
			log.Printf("Tile error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "")
		}
		return
	}

	// Tiles never change for a given name.
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.Write(b)
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.stats)
}

func validateCoord(ll LatLngJSON) error {
	if math.IsNaN(ll.Lat) || math.IsNaN(ll.Lng) || math.IsInf(ll.Lat, 0) || math.IsInf(ll.Lng, 0) {
		return errors.New("coordinates must be finite numbers")
	}
	if ll.Lat < -90 || ll.Lat > 90 || ll.Lng < -180 || ll.Lng > 180 {
		return errors.New("coordinates out of range")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, field string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: code, Field: field})
}
