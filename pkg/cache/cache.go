// Package cache is a process-local TTL cache with lazy eviction.
//
// Entries expire a fixed duration after they were written. Expired entries are
// dropped when they are next read, never by a background sweeper. Writers are
// expected to call Clear after any mutation so the next read goes to the store.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is used when a non-positive TTL is configured
const DefaultTTL = 6 * time.Hour

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock
var SystemClock Clock = ClockFunc(time.Now)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// TTLCache is safe for concurrent use
type TTLCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   Clock
	entries map[string]entry
}

// New creates a cache. A nil clock uses the wall clock.
func New(ttl time.Duration, clock Clock) *TTLCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = SystemClock
	}
	return &TTLCache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]entry),
	}
}

// Get returns the value for key, or false on a miss or an expired entry
func (c *TTLCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.clock.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value with a fresh expiry, overwriting any previous entry
func (c *TTLCache) Set(key string, value interface{}) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: c.clock.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Clear drops every entry
func (c *TTLCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len counts stored entries, including expired ones not yet evicted
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
