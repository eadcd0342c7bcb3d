package session

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/yousuf/funcmap/internal/funcmap"
	"github.com/yousuf/funcmap/internal/parser"
	"github.com/yousuf/funcmap/internal/store"
)

// Manager manages session contexts and the resources they share: the map
// store, the decoder cache and an optional parser.
type Manager struct {
	sessions map[string]*Context
	mu       sync.RWMutex

	store       store.Store
	cache       *DecoderCache
	parser      parser.Parser
	development bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithParser makes a parser available to sessions.
func WithParser(p parser.Parser) Option {
	return func(m *Manager) {
		m.parser = p
	}
}

// WithDevelopment enables the encoder self-check for maps enriched through
// the manager.
func WithDevelopment(enabled bool) Option {
	return func(m *Manager) {
		m.development = enabled
	}
}

// NewManager creates a new session manager
func NewManager(st store.Store, opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*Context),
		store:    st,
		cache:    NewDecoderCache(st),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetOrCreateSession gets an existing session or creates a new one
func (m *Manager) GetOrCreateSession(ctx context.Context, sessionID string) (*Context, error) {
	m.mu.RLock()
	session, exists := m.sessions[sessionID]
	m.mu.RUnlock()

	if exists {
		return session, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if session, exists := m.sessions[sessionID]; exists {
		return session, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	session = NewContext(sessionID)
	m.sessions[sessionID] = session

	return session, nil
}

// GetSession retrieves an existing session
func (m *Manager) GetSession(sessionID string) *Context {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[sessionID]
}

// DeleteSession removes a session
func (m *Manager) DeleteSession(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[sessionID]; !exists {
		return fmt.Errorf("session %q not found", sessionID)
	}

	delete(m.sessions, sessionID)
	return nil
}

// SessionCount returns the number of live sessions.
func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Store returns the shared map store.
func (m *Manager) Store() store.Store {
	return m.store
}

// Parser returns the configured parser, or nil.
func (m *Manager) Parser() parser.Parser {
	return m.parser
}

// Entry returns the decoded map stored under name.
func (m *Manager) Entry(name string) (*Entry, error) {
	return m.cache.Get(name)
}

// PutMap stores a map and drops any cached decoding of the previous one.
func (m *Manager) PutMap(name string, sm *funcmap.EnrichedSourceMap) error {
	if err := m.store.Put(name, sm); err != nil {
		return err
	}
	m.cache.Invalidate(name)
	return nil
}

// DeleteMap removes a stored map.
func (m *Manager) DeleteMap(name string) error {
	if err := m.store.Delete(name); err != nil {
		return err
	}
	m.cache.Invalidate(name)
	return nil
}

// Enrich encodes descs into the map stored under name and stores the
// enriched result under target (name when target is empty).
func (m *Manager) Enrich(name, target string, descs map[string][]funcmap.FunctionDesc) (*funcmap.EnrichedSourceMap, error) {
	stored, err := m.store.Get(name)
	if err != nil {
		return nil, err
	}

	var opts []funcmap.EncodeOption
	if m.development {
		opts = append(opts, funcmap.WithSelfCheck(true))
	}
	enriched, err := funcmap.Encode(&stored.SourceMap, descs, opts...)
	if err != nil {
		return nil, err
	}

	if target == "" {
		target = name
	}
	if err := m.PutMap(target, enriched); err != nil {
		return nil, err
	}
	log.Printf("[STORE] Enriched %q into %q (%d sources, %d names)", name, target, len(enriched.Sources), len(enriched.Names))
	return enriched, nil
}

// CloseAll closes all sessions
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions = make(map[string]*Context)
	return nil
}
