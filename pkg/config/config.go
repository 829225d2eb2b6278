// Package config loads server settings from the environment, after reading
// any .env files present.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the server settings. cmd/server uses these as flag defaults.
type Config struct {
	Addr      string
	OSMPath   string
	TileDir   string
	LargestCC bool // keep only the largest connected component after pruning

	RedisAddr   string
	RedisPass   string
	RedisDB     int
	TileTTL     time.Duration
	TilePrefix  string
	MaxInFlight int
}

// Load reads .env files (missing files are ignored) and then the environment.
func Load(files ...string) Config {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables, using defaults for
// unset or unparsable values.
func FromEnv() Config {
	return Config{
		Addr:        str("MAP_ADDR", ":8080"),
		OSMPath:     str("MAP_OSM_PATH", "data/berkeley.osm"),
		TileDir:     str("MAP_TILE_DIR", "data/img"),
		LargestCC:   boolean("MAP_LARGEST_COMPONENT", false),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		RedisPass:   os.Getenv("REDIS_PASS"),
		RedisDB:     integer("REDIS_DB", 0),
		TileTTL:     duration("MAP_TILE_TTL", time.Hour),
		TilePrefix:  str("MAP_TILE_PREFIX", "tile:"),
		MaxInFlight: integer("MAP_MAX_IN_FLIGHT", 100),
	}
}

func str(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func integer(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n >= 0 {
		return n
	}
	return def
}

func boolean(key string, def bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return def
}

func duration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return def
}
