package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"map_server/pkg/places"
	"map_server/pkg/raster"
	"map_server/pkg/routing"
	"map_server/pkg/tiles"
)

// mockRouter implements routing.Router for testing.
type mockRouter struct {
	result *routing.RouteResult
	err    error
}

func (m *mockRouter) Route(ctx context.Context, start, end routing.LatLng) (*routing.RouteResult, error) {
	return m.result, m.err
}

// mockRaster implements TileQuerier and records the last request.
type mockRaster struct {
	result *raster.Result
	err    error
	last   raster.Request
}

func (m *mockRaster) Query(req raster.Request) (*raster.Result, error) {
	m.last = req
	return m.result, m.err
}

// mockPlaces implements PlaceFinder over a fixed list.
type mockPlaces struct {
	names []string
	locs  map[string][]places.Place
}

func (m *mockPlaces) Prefix(prefix string) []string { return m.names }

func (m *mockPlaces) Lookup(name string) []places.Place { return m.locs[name] }

// mockTiles implements TileSource.
type mockTiles struct {
	data map[string][]byte
	err  error
}

func (m *mockTiles) Get(ctx context.Context, name string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	b, ok := m.data[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", tiles.ErrNotFound, name)
	}
	return b, nil
}

const routeBody = `{"start":{"lat":37.87,"lng":-122.26},"end":{"lat":37.88,"lng":-122.25}}`

func postRoute(h *Handlers, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.HandleRoute(w, req)
	return w
}

func TestHandleRoute_Success(t *testing.T) {
	mock := &mockRouter{
		result: &routing.RouteResult{
			Nodes: []int64{1, 2},
			Geometry: []routing.LatLng{
				{Lat: 37.87, Lng: -122.26},
				{Lat: 37.88, Lng: -122.25},
			},
			Cost:                0.0141,
			TotalDistanceMeters: 1234.5,
		},
	}
	h := NewHandlers(Deps{Router: mock}, StatsResponse{})

	w := postRoute(h, routeBody)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200. body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		TotalDistanceMeters float64      `json:"total_distance_meters"`
		Nodes               []int64      `json:"nodes"`
		Geometry            []LatLngJSON `json:"geometry"`
		GeoJSON             struct {
			Type     string `json:"type"`
			Geometry struct {
				Type        string       `json:"type"`
				Coordinates [][2]float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"geojson"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TotalDistanceMeters != 1234.5 {
		t.Errorf("TotalDistanceMeters = %f, want 1234.5", resp.TotalDistanceMeters)
	}
	if len(resp.Nodes) != 2 || len(resp.Geometry) != 2 {
		t.Errorf("Nodes = %v, Geometry = %v, want 2 each", resp.Nodes, resp.Geometry)
	}
	if resp.GeoJSON.Type != "Feature" || resp.GeoJSON.Geometry.Type != "LineString" {
		t.Errorf("geojson = %+v, want a LineString Feature", resp.GeoJSON)
	}
	if c := resp.GeoJSON.Geometry.Coordinates; len(c) != 2 || c[0][0] != -122.26 || c[0][1] != 37.87 {
		t.Errorf("coordinates = %v, want lon/lat order", c)
	}
}

func TestHandleRoute_BadInput(t *testing.T) {
	h := NewHandlers(Deps{Router: &mockRouter{}}, StatsResponse{})

	tests := []struct {
		name        string
		body        string
		contentType string
		wantField   string
	}{
		{"invalid json", "not json", "application/json", ""},
		{"missing content type", routeBody, "", ""},
		{"lat out of range", `{"start":{"lat":91.0,"lng":-122.26},"end":{"lat":37.88,"lng":-122.25}}`, "application/json", "start"},
		{"lng out of range", `{"start":{"lat":37.87,"lng":-122.26},"end":{"lat":37.88,"lng":-181}}`, "application/json", "end"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()

			h.HandleRoute(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			var resp ErrorResponse
			json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Field != tt.wantField {
				t.Errorf("field = %q, want %q", resp.Field, tt.wantField)
			}
		})
	}
}

func TestHandleRoute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"no route", routing.ErrNoRoute, http.StatusNotFound, "no_route_found"},
		{"timeout", context.DeadlineExceeded, http.StatusServiceUnavailable, "request_timeout"},
		{"wrapped cancel", fmt.Errorf("search: %w", context.Canceled), http.StatusServiceUnavailable, "request_timeout"},
		{"broken path", routing.ErrBrokenPath, http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandlers(Deps{Router: &mockRouter{err: tt.err}}, StatsResponse{})

			w := postRoute(h, routeBody)

			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
			var resp ErrorResponse
			json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Error != tt.wantErr {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantErr)
			}
		})
	}
}

func TestHandleRaster_Success(t *testing.T) {
	mock := &mockRaster{result: &raster.Result{
		Grid:    [][]string{{"1.png", "2.png"}, {"3.png", "4.png"}},
		ULLon:   -122.2998046875,
		ULLat:   37.892195547244356,
		LRLon:   -122.2119140625,
		LRLat:   37.82280243352756,
		Depth:   1,
		Success: true,
	}}
	h := NewHandlers(Deps{Raster: mock}, StatsResponse{})

	req := httptest.NewRequest("GET", "/api/v1/raster?ullon=-122.29&ullat=37.88&lrlon=-122.22&lrlat=37.83&w=512&h=400", nil)
	w := httptest.NewRecorder()
	h.HandleRaster(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200. body: %s", w.Code, w.Body.String())
	}
	want := raster.Request{ULLon: -122.29, ULLat: 37.88, LRLon: -122.22, LRLat: 37.83, Width: 512, Height: 400}
	if mock.last != want {
		t.Errorf("request = %+v, want %+v", mock.last, want)
	}

	var resp RasterResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.QuerySuccess || resp.Depth != 1 || len(resp.RenderGrid) != 2 || resp.RenderGrid[1][0] != "3.png" {
		t.Errorf("response = %+v", resp)
	}
	if resp.RasterULLon != -122.2998046875 || resp.RasterLRLat != 37.82280243352756 {
		t.Errorf("raster box = %+v", resp)
	}
}

func TestHandleRaster_OutOfBounds(t *testing.T) {
	mock := &mockRaster{result: &raster.Result{}, err: raster.ErrOutOfBounds}
	h := NewHandlers(Deps{Raster: mock}, StatsResponse{})

	req := httptest.NewRequest("GET", "/api/v1/raster?ullon=10&ullat=11&lrlon=11&lrlat=10&w=256&h=256", nil)
	w := httptest.NewRecorder()
	h.HandleRaster(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp RasterResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.QuerySuccess {
		t.Error("query_success = true, want false")
	}
}

func TestHandleRaster_BadInput(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		err       error
		wantField string
	}{
		{"missing h", "ullon=1&ullat=2&lrlon=3&lrlat=1&w=10", nil, "h"},
		{"bad ullon", "ullon=abc&ullat=2&lrlon=3&lrlat=1&w=10&h=10", nil, "ullon"},
		{"inverted", "ullon=3&ullat=2&lrlon=1&lrlat=1&w=10&h=10", raster.ErrInvalidQuery, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandlers(Deps{Raster: &mockRaster{err: tt.err}}, StatsResponse{})
			req := httptest.NewRequest("GET", "/api/v1/raster?"+tt.query, nil)
			w := httptest.NewRecorder()

			h.HandleRaster(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			var resp ErrorResponse
			json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Field != tt.wantField {
				t.Errorf("field = %q, want %q", resp.Field, tt.wantField)
			}
		})
	}
}

func TestHandlePlaces(t *testing.T) {
	mock := &mockPlaces{names: []string{"Top Dog", "Tops Cafe"}}
	h := NewHandlers(Deps{Places: mock}, StatsResponse{})

	req := httptest.NewRequest("GET", "/api/v1/places?prefix=top", nil)
	w := httptest.NewRecorder()
	h.HandlePlaces(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp PlacesResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Names) != 2 || resp.Names[0] != "Top Dog" {
		t.Errorf("names = %v", resp.Names)
	}

	req = httptest.NewRequest("GET", "/api/v1/places?prefix=123", nil)
	w = httptest.NewRecorder()
	h.HandlePlaces(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for a prefix with no letters", w.Code)
	}
}

func TestHandlePlaces_NoMatches(t *testing.T) {
	h := NewHandlers(Deps{Places: &mockPlaces{}}, StatsResponse{})

	req := httptest.NewRequest("GET", "/api/v1/places?prefix=zzz", nil)
	w := httptest.NewRecorder()
	h.HandlePlaces(w, req)

	if body := strings.TrimSpace(w.Body.String()); body != `{"names":[]}` {
		t.Errorf("body = %s, want empty names array", body)
	}
}

func TestHandleTile(t *testing.T) {
	mock := &mockTiles{data: map[string][]byte{"root.png": []byte("\x89PNG")}}
	h := NewHandlers(Deps{Tiles: mock}, StatsResponse{})

	req := httptest.NewRequest("GET", "/api/v1/tiles/root.png", nil)
	req.SetPathValue("name", "root.png")
	w := httptest.NewRecorder()
	h.HandleTile(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if w.Body.String() != "\x89PNG" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestHandleTile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		tile     string
		err      error
		wantCode int
	}{
		{"missing", "1234.png", nil, http.StatusNotFound},
		{"invalid", "x.png", tiles.ErrInvalidName, http.StatusBadRequest},
		{"io failure", "1.png", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandlers(Deps{Tiles: &mockTiles{err: tt.err}}, StatsResponse{})
			req := httptest.NewRequest("GET", "/api/v1/tiles/"+tt.tile, nil)
			req.SetPathValue("name", tt.tile)
			w := httptest.NewRecorder()

			h.HandleTile(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	h := NewHandlers(Deps{}, StatsResponse{})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()

	h.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	var resp HealthResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != "ok" {
		t.Errorf("status = %q, want 'ok'", resp.Status)
	}
}

func TestHandleStats(t *testing.T) {
	stats := StatsResponse{NumVertices: 5000, NumEdges: 7000, NumPlaces: 42, NumTreeNodes: 21845, MaxDepth: 7}
	h := NewHandlers(Deps{}, stats)

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	w := httptest.NewRecorder()

	h.HandleStats(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	var resp StatsResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp != stats {
		t.Errorf("stats = %+v, want %+v", resp, stats)
	}
}
