package store

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/yousuf/funcmap/internal/funcmap"
)

// MemoryStore implements Store using an in-memory map. Maps are kept in
// their serialised form so callers never share mutable state with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	maps map[string][]byte
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		maps: make(map[string][]byte),
	}
}

// Put stores m under name.
func (s *MemoryStore) Put(name string, m *funcmap.EnrichedSourceMap) error {
	if err := validName(name); err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling source map: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.maps[name] = data
	return nil
}

// Get retrieves the map stored under name.
func (s *MemoryStore) Get(name string) (*funcmap.EnrichedSourceMap, error) {
	s.mu.RLock()
	data, ok := s.maps[name]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return funcmap.ParseAny(data)
}

// List returns the stored names in ascending order.
func (s *MemoryStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.maps))
	for name := range s.maps {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Delete removes the map stored under name.
func (s *MemoryStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.maps[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	delete(s.maps, name)
	return nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}
