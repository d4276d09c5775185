package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Config holds the settings of a Cache.
type Config struct {
	// DefaultTTL applies to entries stored with Set.
	DefaultTTL time.Duration
	// CleanupInterval is how often expired entries are swept. Zero disables the sweeper.
	CleanupInterval time.Duration
	// MaxItems caps the number of entries; the least recently used entry is evicted first.
	MaxItems int
	// OnEviction is called with the key and value of every evicted or expired entry.
	OnEviction func(key string, value any)
}

// Cache is an in-memory LRU cache with per-entry TTL.
type Cache struct {
	config Config

	mu      sync.Mutex
	entries map[string]*entry
	order   *list.List // front is most recently used

	stop      chan struct{}
	closeOnce sync.Once
}

type entry struct {
	key       string
	value     any
	expiresAt time.Time
	element   *list.Element
}

// New creates a cache and starts its cleanup goroutine when configured.
func New(config Config) *Cache {
	if config.MaxItems <= 0 {
		config.MaxItems = 1000
	}
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 5 * time.Minute
	}

	c := &Cache{
		config:  config,
		entries: make(map[string]*entry),
		order:   list.New(),
		stop:    make(chan struct{}),
	}
	if config.CleanupInterval > 0 {
		go c.cleanupLoop()
	}
	return c
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	c.SetWithTTL(ctx, key, value, c.config.DefaultTTL)
}

// SetWithTTL stores value under key for ttl.
func (c *Cache) SetWithTTL(_ context.Context, key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.config.DefaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = time.Now().Add(ttl)
		c.order.MoveToFront(e.element)
		return
	}

	for len(c.entries) >= c.config.MaxItems {
		c.evictOldest()
	}

	e := &entry{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	e.element = c.order.PushFront(e)
	c.entries[key] = e
}

// Get returns the value stored under key if present and not expired.
func (c *Cache) Get(_ context.Context, key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.removeEntry(e)
		return nil, false
	}
	c.order.MoveToFront(e.element)
	return e.value, true
}

// Delete removes key.
func (c *Cache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.removeEntry(e)
	}
}

// Size returns the number of entries, expired ones included until swept.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		close(c.stop)
	})
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.cleanupExpired()
		case <-c.stop:
			return
		}
	}
}

// cleanupExpired removes all expired entries and returns how many were removed.
func (c *Cache) cleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expired []*entry
	now := time.Now()
	for _, e := range c.entries {
		if now.After(e.expiresAt) {
			expired = append(expired, e)
		}
	}
	for _, e := range expired {
		c.removeEntry(e)
	}
	return len(expired)
}

// evictOldest removes the least recently used entry.
// Must be called with lock held.
func (c *Cache) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	c.removeEntry(oldest.Value.(*entry))
}

// removeEntry must be called with lock held.
func (c *Cache) removeEntry(e *entry) {
	c.order.Remove(e.element)
	delete(c.entries, e.key)
	if c.config.OnEviction != nil {
		c.config.OnEviction(e.key, e.value)
	}
}
