// Package places indexes named OSM nodes for prefix autocompletion and exact
// lookup by cleaned name.
package places

import (
	"slices"
	"strings"
	"sync"
	"unicode"
)

// Place is a named location.
type Place struct {
	ID   int64   `json:"id"`
	Name string  `json:"name"`
	Lon  float64 `json:"lon"`
	Lat  float64 `json:"lat"`
}

// entry groups every place sharing one cleaned name.
type entry struct {
	key    string
	names  []string // distinct original spellings, sorted
	places []Place
}

// Index maps cleaned names to places. Add may be called concurrently with
// readers; the sorted key list is rebuilt lazily on the first read after a write.
type Index struct {
	mu      sync.RWMutex
	entries map[string]*entry
	keys    []string // sorted cleaned names; nil when stale
}

// New returns an empty index.
func New() *Index {
	return &Index{entries: make(map[string]*entry)}
}

// Clean lower-cases s and drops everything but ASCII letters and spaces.
func Clean(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == ' ':
			b.WriteRune(r)
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// Add records a named location. Names that clean to the empty string are ignored.
func (idx *Index) Add(id int64, name string, lon, lat float64) {
	key := Clean(name)
	if key == "" {
		return
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	e, ok := idx.entries[key]
	if !ok {
		e = &entry{key: key}
		idx.entries[key] = e
		idx.keys = nil
	}
	e.places = append(e.places, Place{ID: id, Name: name, Lon: lon, Lat: lat})
	if i, found := slices.BinarySearch(e.names, name); !found {
		e.names = slices.Insert(e.names, i, name)
	}
}

// AddPlace lets an Index be used as an ingestion sink.
func (idx *Index) AddPlace(id int64, name string, lon, lat float64) {
	idx.Add(id, name, lon, lat)
}

// Len returns the number of distinct cleaned names.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// sortedKeys returns the sorted key list, rebuilding it if stale.
func (idx *Index) sortedKeys() []string {
	idx.mu.RLock()
	keys := idx.keys
	idx.mu.RUnlock()
	if keys != nil {
		return keys
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.keys == nil {
		idx.keys = make([]string, 0, len(idx.entries))
		for k := range idx.entries {
			idx.keys = append(idx.keys, k)
		}
		slices.Sort(idx.keys)
	}
	return idx.keys
}

// Prefix returns the full names of all places whose cleaned name starts with
// the cleaned prefix, deduplicated and sorted.
func (idx *Index) Prefix(prefix string) []string {
	p := Clean(prefix)
	keys := idx.sortedKeys()

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []string
	start, _ := slices.BinarySearch(keys, p)
	for _, k := range keys[start:] {
		if !strings.HasPrefix(k, p) {
			break
		}
		if e, ok := idx.entries[k]; ok {
			out = append(out, e.names...)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Lookup returns every place whose cleaned name equals the cleaned query.
func (idx *Index) Lookup(name string) []Place {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	e, ok := idx.entries[Clean(name)]
	if !ok {
		return nil
	}
	return slices.Clone(e.places)
}
