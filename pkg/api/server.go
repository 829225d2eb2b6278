package api

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"map_server/pkg/metrics"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	MaxConcurrent  int
	CORSOrigin     string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(addr string) ServerConfig {
	return ServerConfig{
		Addr:           addr,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   10 * time.Second,
		RequestTimeout: 5 * time.Second,
		MaxConcurrent:  runtime.NumCPU() * 2,
		CORSOrigin:     "",
	}
}

// NewServer creates an HTTP server with all routes and middleware. Endpoints
// whose dependency is nil are not registered.
func NewServer(cfg ServerConfig, handlers *Handlers) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      newMux(cfg, handlers),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

func newMux(cfg ServerConfig, handlers *Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	// Concurrency limiter.
	sem := make(chan struct{}, cfg.MaxConcurrent)
	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, withMiddleware(pattern, h, sem, cfg))
	}

	// Routes.
	deps := handlers.deps
	if deps.Router != nil {
		handle("POST /api/v1/route", handlers.HandleRoute)
	}
	if deps.Raster != nil {
		handle("GET /api/v1/raster", handlers.HandleRaster)
	}
	if deps.Places != nil {
		handle("GET /api/v1/places", handlers.HandlePlaces)
		handle("GET /api/v1/places/{name}", handlers.HandleLocations)
	}
	if deps.Tiles != nil {
		handle("GET /api/v1/tiles/{name}", handlers.HandleTile)
	}
	handle("GET /api/v1/health", handlers.HandleHealth)
	handle("GET /api/v1/stats", handlers.HandleStats)

	// Scrapes bypass the limiter so metrics stay visible under load.
	mux.Handle("GET /metrics", metrics.Handler())

	return mux
}

// ListenAndServe starts the server and blocks until shutdown signal.
func ListenAndServe(srv *http.Server) error {
	// Graceful shutdown on SIGTERM/SIGINT.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Printf("Received %s, shutting down...", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// withMiddleware wraps a handler with logging, metrics, recovery, security
// headers, and concurrency limiting.
func withMiddleware(pattern string, handler http.HandlerFunc, sem chan struct{}, cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Security headers.
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")

		// CORS.
		if cfg.CORSOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSOrigin)
		}

		// Concurrency limiter.
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
		default:
			metrics.RequestsTotal.WithLabelValues(pattern, "503").Inc()
			w.Header().Set("Retry-After", "1")
			http.Error(w, `{"error":"service_unavailable"}`, http.StatusServiceUnavailable)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		defer func() {
			elapsed := time.Since(start)
			metrics.RequestsTotal.WithLabelValues(pattern, strconv.Itoa(rec.status)).Inc()
			metrics.RequestDurationMs.WithLabelValues(pattern).Observe(float64(elapsed.Microseconds()) / 1000)
			log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, elapsed.Round(time.Microsecond))
		}()

		// Recovery.
		defer func() {
			if p := recover(); p != nil {
				log.Printf("panic: %v", p)
				rec.status = http.StatusInternalServerError
				http.Error(w, `{"error":"internal_error"}`, http.StatusInternalServerError)
			}
		}()

		// Request timeout.
		timeout := cfg.RequestTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		handler(rec, r.WithContext(ctx))
	}
}
