// Package tiles serves pre-rendered tile images from a directory with an
// optional byte cache in front.
package tiles

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"map_server/pkg/metrics"
)

var (
	// ErrInvalidName is returned for names that are not a quadtree tile file.
	ErrInvalidName = errors.New("invalid tile name")
	// ErrNotFound is returned when the tile file does not exist.
	ErrNotFound = errors.New("tile not found")
)

// tileName matches "root.png" or a path of quadrant digits.
var tileName = regexp.MustCompile(`^(root|[1-4]+)\.png$`)

// Cache stores tile bytes by name. Get reports a miss with (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Store reads tiles from dir. It is safe for concurrent use.
type Store struct {
	dir   string
	cache Cache
	ttl   time.Duration
}

// NewStore creates a store rooted at dir. cache may be nil.
func NewStore(dir string, cache Cache, ttl time.Duration) *Store {
	return &Store{dir: dir, cache: cache, ttl: ttl}
}

// ValidName reports whether name is a tile file this store can serve.
func ValidName(name string) bool {
	return tileName.MatchString(name)
}

// Get returns the tile bytes for name. Cache failures are logged and the
// tile is read from disk.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	if !ValidName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	if s.cache != nil {
		b, ok, err := s.cache.Get(ctx, name)
		switch {
		case err != nil:
			metrics.TileCacheErrorsTotal.Inc()
			log.Printf("Tile cache get %s: %v", name, err)
		case ok:
			metrics.TileCacheHitsTotal.Inc()
			return b, nil
		default:
			metrics.TileCacheMissesTotal.Inc()
		}
	}

	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("read tile %s: %w", name, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, name, b, s.ttl); err != nil {
			metrics.TileCacheErrorsTotal.Inc()
			log.Printf("Tile cache set %s: %v", name, err)
		}
	}
	return b, nil
}
