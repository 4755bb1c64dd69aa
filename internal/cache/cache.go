package cache

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// entry is the stored form of a value. It never leaves this package.
type entry struct {
	key      string
	value    any
	storedAt time.Time
}

// Cache is an in-memory key/value store combining per-read TTL expiry with an
// LRU capacity bound. The TTL is supplied by the caller on each Get rather
// than stored per entry, so one instance can serve datasets with different
// staleness tolerances.
//
// Get mutates internal state (expiry, recency, counters), so the whole
// Get/Set/Clear/Stats surface is a single critical section.
type Cache struct {
	mu sync.Mutex

	capacity int
	entries  map[string]*list.Element
	order    *list.List // front = least recently used, back = most recent

	hits   int
	misses int

	flight singleflight.Group // dedupes concurrent Memoize fetches

	now func() time.Time // overridable in tests
}

// Stats is a point-in-time view of cache behaviour.
type Stats struct {
	Size     int      `json:"size"`
	Capacity int      `json:"capacity"`
	Hits     int      `json:"hits"`
	Misses   int      `json:"misses"`
	HitRate  string   `json:"hitRate"`
	Keys     []string `json:"keys"` // recency order, least recently used first
}

// New creates a Cache holding at most capacity entries. Capacity must be
// positive.
func New(capacity int) *Cache {
	if capacity <= 0 {
		panic(fmt.Sprintf("cache: capacity must be positive, got %d", capacity))
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// Get returns the value stored under key if it is younger than ttl. An absent
// key is a miss; an entry older than ttl is removed and also counts as a
// miss. A hit marks the entry most recently used.
func (c *Cache) Get(key string, ttl time.Duration) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}

	e := el.Value.(*entry)
	if c.now().Sub(e.storedAt) > ttl {
		c.order.Remove(el)
		delete(c.entries, key)
		c.misses++
		return nil, false
	}

	c.order.MoveToBack(el)
	c.hits++
	return e.value, true
}

// Set stores value under key with the current timestamp. An existing entry is
// replaced and its recency reset, then least-recently-used entries are
// evicted until the capacity bound holds.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}

	el := c.order.PushBack(&entry{key: key, value: value, storedAt: c.now()})
	c.entries[key] = el

	for len(c.entries) > c.capacity {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).key)
	}
}

// Clear empties the cache and resets the hit/miss counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
	c.hits = 0
	c.misses = 0
}

// Stats reports the current size, counters, and key list. The hit rate is a
// percentage with one decimal; with no requests recorded it is "0.0%".
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	rate := 0.0
	if total := c.hits + c.misses; total > 0 {
		rate = float64(c.hits) / float64(total) * 100
	}

	keys := make([]string, 0, len(c.entries))
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry).key)
	}

	return Stats{
		Size:     len(c.entries),
		Capacity: c.capacity,
		Hits:     c.hits,
		Misses:   c.misses,
		HitRate:  fmt.Sprintf("%.1f%%", rate),
		Keys:     keys,
	}
}
