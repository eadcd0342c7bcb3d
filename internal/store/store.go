// Package store keeps enriched source maps by name.
package store

import (
	"errors"
	"fmt"

	"github.com/yousuf/funcmap/internal/funcmap"
)

// ErrNotFound is returned when no map is stored under a name.
var ErrNotFound = errors.New("source map not found")

// Store provides persistence for source maps, enriched or not.
// This interface abstracts the underlying storage implementation,
// allowing for different backends (memory, SQLite).
type Store interface {
	// Put stores m under name, replacing any previous map.
	Put(name string, m *funcmap.EnrichedSourceMap) error

	// Get retrieves the map stored under name.
	Get(name string) (*funcmap.EnrichedSourceMap, error)

	// List returns the stored names in ascending order.
	List() ([]string, error)

	// Delete removes the map stored under name.
	Delete(name string) error

	// Close closes the underlying storage.
	Close() error
}

// Config for store initialization.
type Config struct {
	// Path is the database file path.
	// Use ":memory:" for an in-memory store.
	Path string
}

// MemoryPath selects the in-memory store.
const MemoryPath = ":memory:"

// New creates a Store. ":memory:" yields a MemoryStore, any other path a
// SQLite database file.
func New(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	if cfg.Path == MemoryPath {
		return NewMemory(), nil
	}

	return NewSQLite(cfg.Path)
}

func validName(name string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}
