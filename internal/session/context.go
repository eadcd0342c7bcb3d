package session

import (
	"sync"
	"time"
)

// Context represents a session context with its associated state
type Context struct {
	SessionID string

	mu           sync.Mutex
	current      string
	lastAccessed time.Time
}

// NewContext creates a new session context
func NewContext(sessionID string) *Context {
	return &Context{
		SessionID:    sessionID,
		lastAccessed: time.Now(),
	}
}

// UseMap selects the map that tools fall back to when no name is given.
func (c *Context) UseMap(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = name
}

// CurrentMap returns the selected map name, or "" if none is selected.
func (c *Context) CurrentMap() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// UpdateLastAccessed records activity on the session.
func (c *Context) UpdateLastAccessed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastAccessed = time.Now()
}

// LastAccessed returns the time of the last recorded activity.
func (c *Context) LastAccessed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastAccessed
}
