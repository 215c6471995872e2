// Package cache provides the TTL response cache shared by aggregation runs.
// Entries are keyed by normalized domain plus an optional version string;
// writes are idempotent upserts.
package cache

import (
	"sync"
	"time"

	"github.com/FranksOps/seoscope/internal/provider"
	"github.com/jonboulle/clockwork"
)

// DefaultTTL matches how often link-graph and rank providers refresh.
const DefaultTTL = 24 * time.Hour

type entry[V any] struct {
	value   V
	expires time.Time
}

// Cache is a TTL map safe for concurrent use.
type Cache[V any] struct {
	clock clockwork.Clock
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]entry[V]
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	clock clockwork.Clock
}

// WithClock injects the clock used to stamp and expire entries.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// New creates a cache whose entries live for ttl. A non-positive ttl uses
// DefaultTTL.
func New[V any](ttl time.Duration, opts ...Option) *Cache[V] {
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[V]{
		clock:   o.clock,
		ttl:     ttl,
		entries: make(map[string]entry[V]),
	}
}

// Key builds a cache key from a domain (any URL form is accepted) and an
// optional version identifier such as a crawl or provider-set revision.
func Key(domain, version string) string {
	d := provider.NormalizeDomain(domain)
	if version == "" {
		return d
	}
	return d + "|" + version
}

// Get returns the value for key if present and unexpired. Expired entries are
// evicted on access.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.clock.Now().Before(e.expires) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores value under key, replacing any previous entry and restarting its
// TTL.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, expires: c.clock.Now().Add(c.ttl)}
}

// Purge drops every expired entry and returns how many were removed.
func (c *Cache[V]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	removed := 0
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
