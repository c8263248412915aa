package cache

import (
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	defaultMaxEntries    = 100
	defaultTTL           = 5 * time.Minute
	defaultSweepInterval = time.Minute
)

// entry is a cached value plus its bookkeeping.
type entry[V any] struct {
	value       V
	createdAt   time.Time
	ttl         time.Duration
	accessCount int
	lastAccess  time.Time
}

func (e *entry[V]) expired(now time.Time) bool {
	return now.Sub(e.createdAt) > e.ttl
}

// Options configures a Cache.
type Options struct {
	MaxEntries int           // entry count at which set evicts; default 100
	DefaultTTL time.Duration // TTL used by Set; default 5m
	// SweepInterval is the period of the background expiry sweep.
	// Zero uses the default of one minute; a negative value disables the sweep.
	SweepInterval time.Duration
	Now           func() time.Time
	Logger        *slog.Logger
}

// Stats is a point-in-time view of cache counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Size        int
	Evictions   int64
	Expirations int64
}

// HitRate returns hits / (hits + misses), or 0 when no lookups occurred.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache is a memory-resident key/value store with per-entry TTL and LRU eviction.
// A single mutex guards entries and counters; the background sweep takes the same lock.
type Cache[V any] struct {
	mu         sync.Mutex
	entries    map[string]*entry[V]
	maxEntries int
	defaultTTL time.Duration
	now        func() time.Time
	logger     *slog.Logger

	hits        int64
	misses      int64
	evictions   int64
	expirations int64

	stop      chan struct{}
	stopOnce  sync.Once
	sweepDone chan struct{}
}

// New creates a cache and starts its expiry sweep unless disabled.
// Call Close to stop the sweep.
func New[V any](options Options) *Cache[V] {
	c := &Cache[V]{
		entries:    make(map[string]*entry[V]),
		maxEntries: options.MaxEntries,
		defaultTTL: options.DefaultTTL,
		now:        options.Now,
		logger:     options.Logger,
		stop:       make(chan struct{}),
		sweepDone:  make(chan struct{}),
	}
	if c.maxEntries <= 0 {
		c.maxEntries = defaultMaxEntries
	}
	if c.defaultTTL <= 0 {
		c.defaultTTL = defaultTTL
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	interval := options.SweepInterval
	if interval == 0 {
		interval = defaultSweepInterval
	}
	if interval > 0 {
		go c.runSweep(interval)
	} else {
		close(c.sweepDone)
	}
	return c
}

// Get returns the value for key. An expired entry is removed and reported absent.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return zero, false
	}
	now := c.now()
	if e.expired(now) {
		delete(c.entries, key)
		c.misses++
		c.expirations++
		return zero, false
	}
	e.accessCount++
	e.lastAccess = now
	c.hits++
	return e.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores value under key. A new key inserted into a full cache evicts
// the least recently accessed entry first. Overwriting a key restarts its TTL window.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = &entry[V]{
		value:      value,
		createdAt:  now,
		ttl:        ttl,
		lastAccess: now,
	}
}

// evictOldestLocked removes the entry with the oldest lastAccess.
// Ties go to the lexically smallest key so eviction is deterministic.
func (c *Cache[V]) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	found := false
	for key, e := range c.entries {
		if !found || e.lastAccess.Before(oldest) || (e.lastAccess.Equal(oldest) && key < oldestKey) {
			oldestKey = key
			oldest = e.lastAccess
			found = true
		}
	}
	if found {
		delete(c.entries, oldestKey)
		c.evictions++
	}
}

// Delete removes key and reports whether it was present.
func (c *Cache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	return true
}

// DeleteFunc removes every entry whose key satisfies match and returns the count.
func (c *Cache[V]) DeleteFunc(match func(key string) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if match(key) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// DeletePattern removes every entry whose key matches a doublestar glob.
// Keys are treated as slash-separated, so "selection/**" matches all selection keys.
func (c *Cache[V]) DeletePattern(pattern string) (int, error) {
	if !doublestar.ValidatePattern(pattern) {
		return 0, doublestar.ErrBadPattern
	}
	return c.DeleteFunc(func(key string) bool {
		matched, err := doublestar.Match(pattern, key)
		return err == nil && matched
	}), nil
}

// DeletePrefix removes every entry whose key starts with prefix.
func (c *Cache[V]) DeletePrefix(prefix string) int {
	return c.DeleteFunc(func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})
}

// Clear removes all entries. Counters are kept.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry[V])
}

// Stats returns the current counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:        c.hits,
		Misses:      c.misses,
		Size:        len(c.entries),
		Evictions:   c.evictions,
		Expirations: c.expirations,
	}
}

// HitRate returns hits / (hits + misses), or 0 when no lookups occurred.
func (c *Cache[V]) HitRate() float64 {
	return c.Stats().HitRate()
}

// Sweep removes every expired entry and returns how many were removed.
func (c *Cache[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	c.expirations += int64(removed)
	return removed
}

// runSweep periodically removes expired entries until Close is called.
func (c *Cache[V]) runSweep(interval time.Duration) {
	defer close(c.sweepDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if removed := c.Sweep(); removed > 0 {
				c.logger.Debug("cache sweep", "removed", removed)
			}
		}
	}
}

// Close stops the background sweep and waits for it to exit. Safe to call twice.
func (c *Cache[V]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.sweepDone
}
