package cache

import (
	"strings"
	"sync"
	"time"
)

const (
	// DefaultMaxSize is the maximum number of entries a cache holds unless
	// configured otherwise.
	DefaultMaxSize = 500

	// DefaultSweepInterval is how often the background janitor removes
	// expired entries.
	DefaultSweepInterval = 5 * time.Minute
)

// entry is a single cached value with its expiry metadata.
type entry struct {
	value     interface{}
	createdAt time.Time
	expiresAt time.Time
}

// Stats is a diagnostic snapshot of the cache contents.
type Stats struct {
	Size    int // total entries, including expired ones not yet swept
	Valid   int
	Expired int
	MaxSize int
}

// Cache is a bounded in-memory key/value store with per-entry TTLs.
//
// When the cache is at capacity, inserting a new key evicts the
// oldest-inserted entry (insertion order, not recency of access).
// Expired entries are treated as absent and removed lazily on Get,
// plus periodically by a background janitor goroutine.
//
// All operations are safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	order   []string // keys in insertion order, oldest first
	maxSize int

	janitor     *time.Ticker
	done        chan struct{}
	destroyOnce sync.Once
}

// New creates a cache holding at most maxSize entries and starts its
// background janitor with the default sweep interval. Call Destroy when
// the cache is no longer needed, otherwise the janitor goroutine keeps
// running for the process lifetime.
func New(maxSize int) *Cache {
	return NewWithSweepInterval(maxSize, DefaultSweepInterval)
}

// NewWithSweepInterval creates a cache with a custom janitor interval.
func NewWithSweepInterval(maxSize int, interval time.Duration) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	c := &Cache{
		entries: make(map[string]entry),
		maxSize: maxSize,
		janitor: time.NewTicker(interval),
		done:    make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

func (c *Cache) sweepLoop() {
	for {
		select {
		case <-c.janitor.C:
			c.Cleanup()
		case <-c.done:
			return
		}
	}
}

// Set stores a value under key with the given TTL. If the key is new and
// the cache is at capacity, the oldest-inserted entry is evicted first.
// Re-setting an existing key keeps its original insertion position.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if _, exists := c.entries[key]; !exists {
		if len(c.entries) >= c.maxSize {
			c.evictOldestLocked()
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = entry{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
}

// Get returns the value stored under key, or ok=false if the key is
// absent or its entry has expired. Expired entries are removed as a side
// effect.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.removeLocked(key)
		return nil, false
	}
	return e.value, true
}

// Has reports whether a live (non-expired) entry exists for key.
func (c *Cache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Delete removes the entry for key, if any.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
}

// DeletePrefix removes every entry whose key begins with prefix and
// returns the number removed. Used for coarse namespace invalidation.
func (c *Cache) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			c.removeLocked(key)
			removed++
		}
	}
	return removed
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
	c.order = c.order[:0]
}

// Cleanup sweeps the whole table, removing expired entries. It returns
// the number removed. The janitor calls this on an interval; tests may
// call it directly.
func (c *Cache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			c.removeLocked(key)
			removed++
		}
	}
	return removed
}

// Stats classifies the current entries without mutating the cache.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	s := Stats{Size: len(c.entries), MaxSize: c.maxSize}
	for _, e := range c.entries {
		if now.After(e.expiresAt) {
			s.Expired++
		} else {
			s.Valid++
		}
	}
	return s
}

// Destroy stops the janitor and clears all entries. It must be called on
// shutdown so the janitor goroutine does not keep the process alive.
// Safe to call more than once.
func (c *Cache) Destroy() {
	c.destroyOnce.Do(func() {
		c.janitor.Stop()
		close(c.done)
	})
	c.Clear()
}

func (c *Cache) evictOldestLocked() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *Cache) removeLocked(key string) {
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
