// Package cache provides a process-wide, concurrency-safe key/value store
// with per-entry TTL and a bounded entry count enforced by least-recently-used
// eviction. It backs the validation gate so repeated lookups against the
// external documentation collaborator are served locally within the TTL
// window.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// DefaultMaxEntries bounds the cache when no explicit limit is configured.
const DefaultMaxEntries = 256

// entry is the internal storage structure for one cached value.
type entry struct {
	key       string
	value     any
	expiresAt time.Time
}

// Cache is a TTL + LRU cache. Expired entries are treated as misses on Get
// but remain addressable through Peek until LRU eviction reclaims them;
// the validation gate uses that window to serve a stale record when the
// collaborator is unavailable.
type Cache struct {
	mu         sync.Mutex
	maxEntries int
	entries    map[string]*list.Element
	order      *list.List // front = most recently used
	clock      func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Cache) {
		c.clock = clock
	}
}

// New creates a Cache bounded to maxEntries. A non-positive maxEntries
// falls back to DefaultMaxEntries.
func New(maxEntries int, opts ...Option) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	c := &Cache{
		maxEntries: maxEntries,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the fresh value for key. Expired entries are reported as
// misses; they are not deleted here so Peek can still surface them as
// stale fallbacks.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	e := el.Value.(*entry)
	if c.clock().After(e.expiresAt) {
		return nil, false
	}

	c.order.MoveToFront(el)
	return e.value, true
}

// Peek returns the value for key regardless of freshness, together with a
// flag reporting whether the entry has expired. Peek does not touch the
// LRU order.
func (c *Cache) Peek(key string) (value any, found bool, expired bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false, false
	}

	e := el.Value.(*entry)
	return e.value, true, c.clock().After(e.expiresAt)
}

// Put stores value under key with the given TTL, replacing any existing
// entry. If the entry count exceeds the bound, expired entries are purged
// first and the least-recently-used entry is evicted after that.
func (c *Cache) Put(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry)
		e.value = value
		e.expiresAt = now.Add(ttl)
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(&entry{
		key:       key,
		value:     value,
		expiresAt: now.Add(ttl),
	})
	c.entries[key] = el

	if len(c.entries) > c.maxEntries {
		c.purgeExpiredLocked(now)
	}
	for len(c.entries) > c.maxEntries {
		c.evictOldestLocked()
	}
}

// Delete removes key from the cache. Returns true if the entry existed.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return false
	}
	c.removeLocked(el)
	return true
}

// Len returns the current number of entries, including expired entries
// that have not yet been reclaimed.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) purgeExpiredLocked(now time.Time) {
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if e := el.Value.(*entry); now.After(e.expiresAt) {
			c.removeLocked(el)
		}
		el = prev
	}
}

func (c *Cache) evictOldestLocked() {
	if el := c.order.Back(); el != nil {
		c.removeLocked(el)
	}
}

func (c *Cache) removeLocked(el *list.Element) {
	e := el.Value.(*entry)
	c.order.Remove(el)
	delete(c.entries, e.key)
}
