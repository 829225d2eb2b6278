// Package metrics holds the Prometheus collectors shared by the server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapserver_requests_total",
		Help: "Total HTTP requests by route pattern and status code",
	}, []string{"pattern", "code"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mapserver_request_duration_ms",
		Help:    "Request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	}, []string{"pattern"})
	SearchPops = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mapserver_route_search_pops",
		Help:    "Frontier entries popped per A* search",
		Buckets: prometheus.ExponentialBuckets(16, 4, 8),
	})
	NoRouteTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mapserver_route_not_found_total",
		Help: "Total route queries with no connecting path",
	})
	RasterTiles = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mapserver_raster_tiles",
		Help:    "Tiles returned per raster query",
		Buckets: []float64{1, 4, 9, 16, 25, 36, 64, 100, 256},
	})
	RasterOutOfBoundsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mapserver_raster_out_of_bounds_total",
		Help: "Total raster queries outside the tiled region",
	})
	TileCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mapserver_tile_cache_hits_total",
		Help: "Total tile cache hits",
	})
	TileCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mapserver_tile_cache_misses_total",
		Help: "Total tile cache misses",
	})
	TileCacheErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mapserver_tile_cache_errors_total",
		Help: "Total tile cache failures bypassed",
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(SearchPops)
	prometheus.MustRegister(NoRouteTotal)
	prometheus.MustRegister(RasterTiles)
	prometheus.MustRegister(RasterOutOfBoundsTotal)
	prometheus.MustRegister(TileCacheHitsTotal)
	prometheus.MustRegister(TileCacheMissesTotal)
	prometheus.MustRegister(TileCacheErrorsTotal)
}

// Handler exposes the registered collectors for scraping.
func Handler() http.Handler { return promhttp.Handler() }
