package cache

import (
	"context"
	"sync"
	"time"

	"vehiclemodels/internal/core"
)

// EvictReason tells an eviction handler why an entry left the cache.
type EvictReason int

const (
	// EvictExpired means the entry outlived its TTL.
	EvictExpired EvictReason = iota
	// EvictCapacity means the entry was the least recently used one when the cache was full.
	EvictCapacity
	// EvictDeleted means the entry was removed by Delete or Clear.
	EvictDeleted
)

func (r EvictReason) String() string {
	switch r {
	case EvictExpired:
		return "expired"
	case EvictCapacity:
		return "capacity"
	case EvictDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// EvictFunc is called after an entry has been removed. It runs without the
// cache lock held, so it may call back into the cache.
type EvictFunc func(key string, value any, reason EvictReason)

// LRUCache is a thread-safe LRU cache with expiration
type LRUCache struct {
	capacity int
	interval time.Duration
	onEvict  EvictFunc
	items    map[string]*CacheItem
	mu       sync.RWMutex
	head     *CacheItem
	tail     *CacheItem
	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

// CacheItem represents an item in the cache with LRU links
type CacheItem struct {
	Value      any
	Expiration int64
	key        string
	prev       *CacheItem
	next       *CacheItem
}

type evicted struct {
	key    string
	value  any
	reason EvictReason
}

// Option configures an LRUCache.
type Option func(*LRUCache)

// WithCapacity bounds the number of entries. Non-positive values are ignored.
func WithCapacity(capacity int) Option {
	return func(c *LRUCache) {
		if capacity > 0 {
			c.capacity = capacity
		}
	}
}

// WithCleanupInterval sets how often expired entries are swept.
func WithCleanupInterval(interval time.Duration) Option {
	return func(c *LRUCache) {
		if interval > 0 {
			c.interval = interval
		}
	}
}

// WithEvictHandler registers fn to run for every removed entry.
func WithEvictHandler(fn EvictFunc) Option {
	return func(c *LRUCache) {
		c.onEvict = fn
	}
}

// NewCache creates a new LRU Cache
func NewCache(opts ...Option) *LRUCache {
	ctx, cancel := context.WithCancel(context.Background())
	c := &LRUCache{
		capacity: core.CacheDefaultCapacity,
		interval: core.CacheCleanupInterval,
		items:    make(map[string]*CacheItem),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.head = &CacheItem{}
	c.tail = &CacheItem{}
	c.head.next = c.tail
	c.tail.prev = c.head

	go c.startCleanupWorker()
	return c
}

func (c *LRUCache) startCleanupWorker() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanupExpired()
		case <-c.ctx.Done():
			return
		}
	}
}

// Stop terminates the cache cleanup worker goroutine. Entries are kept.
func (c *LRUCache) Stop() {
	c.stopOnce.Do(c.cancel)
}

// Set stores a value in the cache with the given TTL.
func (c *LRUCache) Set(key string, value any, duration time.Duration) {
	var out []evicted

	c.mu.Lock()
	if item, exists := c.items[key]; exists {
		item.Value = value
		item.Expiration = time.Now().Add(duration).UnixNano()
		c.moveToFront(item)
		c.mu.Unlock()
		return
	}

	item := &CacheItem{
		Value:      value,
		Expiration: time.Now().Add(duration).UnixNano(),
		key:        key,
	}

	c.addToFront(item)
	c.items[key] = item

	for len(c.items) > c.capacity {
		victim := c.evict()
		if victim == nil {
			break
		}
		out = append(out, evicted{victim.key, victim.Value, EvictCapacity})
	}
	c.mu.Unlock()

	c.notify(out)
}

// Get retrieves a value from the cache, returning false if not found or expired.
func (c *LRUCache) Get(key string) (any, bool) {
	c.mu.Lock()
	item, found := c.items[key]
	if !found {
		c.mu.Unlock()
		return nil, false
	}

	if time.Now().UnixNano() > item.Expiration {
		c.unlink(item)
		c.mu.Unlock()
		c.notify([]evicted{{key, item.Value, EvictExpired}})
		return nil, false
	}

	c.moveToFront(item)
	c.mu.Unlock()
	return item.Value, true
}

// Delete removes key and reports whether it was present and unexpired.
func (c *LRUCache) Delete(key string) bool {
	c.mu.Lock()
	item, found := c.items[key]
	if !found {
		c.mu.Unlock()
		return false
	}
	c.unlink(item)
	c.mu.Unlock()

	if time.Now().UnixNano() > item.Expiration {
		c.notify([]evicted{{key, item.Value, EvictExpired}})
		return false
	}
	c.notify([]evicted{{key, item.Value, EvictDeleted}})
	return true
}

// Len returns the number of stored entries, expired ones included until the
// next sweep.
func (c *LRUCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Keys returns the keys from most to least recently used.
func (c *LRUCache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.items))
	for item := c.head.next; item != c.tail; item = item.next {
		keys = append(keys, item.key)
	}
	return keys
}

func (c *LRUCache) addToFront(item *CacheItem) {
	item.next = c.head.next
	item.prev = c.head
	c.head.next.prev = item
	c.head.next = item
}

func (c *LRUCache) moveToFront(item *CacheItem) {
	c.remove(item)
	c.addToFront(item)
}

func (c *LRUCache) remove(item *CacheItem) {
	item.prev.next = item.next
	item.next.prev = item.prev
}

func (c *LRUCache) unlink(item *CacheItem) {
	c.remove(item)
	delete(c.items, item.key)
}

func (c *LRUCache) evict() *CacheItem {
	if c.tail.prev == c.head {
		return nil
	}
	item := c.tail.prev
	c.unlink(item)
	return item
}

func (c *LRUCache) cleanupExpired() {
	var out []evicted

	c.mu.Lock()
	now := time.Now().UnixNano()
	for _, item := range c.items {
		if now > item.Expiration {
			c.unlink(item)
			out = append(out, evicted{item.key, item.Value, EvictExpired})
		}
	}
	c.mu.Unlock()

	c.notify(out)
}

// Clear clears all cache items. The eviction handler sees each one as deleted.
func (c *LRUCache) Clear() {
	var out []evicted

	c.mu.Lock()
	for item := c.head.next; item != c.tail; item = item.next {
		out = append(out, evicted{item.key, item.Value, EvictDeleted})
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	c.items = make(map[string]*CacheItem)
	c.mu.Unlock()

	c.notify(out)
}

func (c *LRUCache) notify(out []evicted) {
	if c.onEvict == nil {
		return
	}
	for _, e := range out {
		c.onEvict(e.key, e.value, e.reason)
	}
}
