package session

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/yousuf/funcmap/internal/funcmap"
	"github.com/yousuf/funcmap/internal/sourcemap"
	"github.com/yousuf/funcmap/internal/store"
)

// Entry is a stored map together with its decoded forms.
type Entry struct {
	Map *funcmap.EnrichedSourceMap

	// Decoder is nil for maps without function mappings.
	Decoder      *funcmap.Decoder
	Symbolicator *sourcemap.Symbolicator
}

// DecoderCache decodes each stored map once and shares the result between
// sessions. Entries are dropped with Invalidate when the stored map changes.
type DecoderCache struct {
	store   store.Store
	entries map[string]*Entry
	mu      sync.RWMutex
}

// NewDecoderCache creates a cache over st.
func NewDecoderCache(st store.Store) *DecoderCache {
	return &DecoderCache{
		store:   st,
		entries: make(map[string]*Entry),
	}
}

// Get returns the decoded entry for name, loading it from the store on
// first use.
func (c *DecoderCache) Get(name string) (*Entry, error) {
	c.mu.RLock()
	entry, exists := c.entries[name]
	c.mu.RUnlock()

	if exists {
		return entry, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.entries[name]; exists {
		return entry, nil
	}

	m, err := c.store.Get(name)
	if err != nil {
		return nil, err
	}
	entry, err = newEntry(m)
	if err != nil {
		return nil, fmt.Errorf("map %q: %w", name, err)
	}
	c.entries[name] = entry
	return entry, nil
}

// Invalidate drops the cached entry for name.
func (c *DecoderCache) Invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, name)
}

// Len returns the number of cached entries.
func (c *DecoderCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func newEntry(m *funcmap.EnrichedSourceMap) (*Entry, error) {
	entry := &Entry{Map: m}
	if m.Enriched() {
		decoder, err := funcmap.NewDecoder(m)
		if err != nil {
			return nil, err
		}
		entry.Decoder = decoder
	}

	data, err := json.Marshal(m.SourceMap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal source map: %w", err)
	}
	symbolicator, err := sourcemap.NewWithDecoder(data, entry.Decoder, m.SourceRoot)
	if err != nil {
		return nil, err
	}
	entry.Symbolicator = symbolicator
	return entry, nil
}
