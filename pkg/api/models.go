package api

import (
	"github.com/paulmach/orb/geojson"

	"map_server/pkg/places"
)

// RouteRequest is the JSON body for POST /api/v1/route.
type RouteRequest struct {
	Start LatLngJSON `json:"start"`
	End   LatLngJSON `json:"end"`
}

// LatLngJSON represents a lat/lng pair in JSON.
type LatLngJSON struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RouteResponse is the JSON response for a successful route query.
type RouteResponse struct {
	TotalDistanceMeters float64          `json:"total_distance_meters"`
	Cost                float64          `json:"cost"`
	Nodes               []int64          `json:"nodes"`
	Geometry            []LatLngJSON     `json:"geometry"`
	GeoJSON             *geojson.Feature `json:"geojson"`
}

// RasterResponse is the JSON response for GET /api/v1/raster. The field names
// follow the map front end's expectations.
type RasterResponse struct {
	RenderGrid   [][]string `json:"render_grid"`
	RasterULLon  float64    `json:"raster_ul_lon"`
	RasterULLat  float64    `json:"raster_ul_lat"`
	RasterLRLon  float64    `json:"raster_lr_lon"`
	RasterLRLat  float64    `json:"raster_lr_lat"`
	Depth        int        `json:"depth"`
	QuerySuccess bool       `json:"query_success"`
}

// PlacesResponse is the JSON response for GET /api/v1/places.
type PlacesResponse struct {
	Names []string `json:"names"`
}

// LocationsResponse is the JSON response for GET /api/v1/places/{name}.
type LocationsResponse struct {
	Locations []places.Place `json:"locations"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	NumVertices  int `json:"num_vertices"`
	NumEdges     int `json:"num_edges"`
	NumPlaces    int `json:"num_places"`
	NumTreeNodes int `json:"num_tree_nodes"`
	MaxDepth     int `json:"max_depth"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}
