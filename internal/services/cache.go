package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type cacheItem[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is a small expiring map with an injected clock.
type TTLCache[K comparable, V any] struct {
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
	items map[K]cacheItem[V]
}

// NewTTLCache constructs a cache; a nil clock means time.Now.
func NewTTLCache[K comparable, V any](ttl time.Duration, now func() time.Time) *TTLCache[K, V] {
	if now == nil {
		now = time.Now
	}
	return &TTLCache[K, V]{ttl: ttl, now: now, items: make(map[K]cacheItem[V])}
}

// Get returns a live value.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(item.expiresAt) {
		return zero, false
	}
	return item.value, true
}

// Set stores value for the cache TTL.
func (c *TTLCache[K, V]) Set(key K, value V) {
	if c == nil {
		return
	}
	c.SetUntil(key, value, c.now().Add(c.ttl))
}

// SetUntil stores value until expiresAt.
func (c *TTLCache[K, V]) SetUntil(key K, value V, expiresAt time.Time) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.items[key] = cacheItem[V]{value: value, expiresAt: expiresAt}
	c.mu.Unlock()
}

// Delete drops keys.
func (c *TTLCache[K, V]) Delete(keys ...K) {
	if c == nil {
		return
	}
	c.mu.Lock()
	for _, key := range keys {
		delete(c.items, key)
	}
	c.mu.Unlock()
}

// Len counts stored entries, expired ones included.
func (c *TTLCache[K, V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// RateCache holds USD-per-unit rates keyed by currency code.
type RateCache = TTLCache[string, decimal.Decimal]

// BalanceCache holds profile balances keyed by profile id.
type BalanceCache = TTLCache[uuid.UUID, decimal.Decimal]

// NewRateCache constructs a RateCache.
func NewRateCache(ttl time.Duration, now func() time.Time) *RateCache {
	return NewTTLCache[string, decimal.Decimal](ttl, now)
}

// NewBalanceCache constructs a BalanceCache.
func NewBalanceCache(ttl time.Duration, now func() time.Time) *BalanceCache {
	return NewTTLCache[uuid.UUID, decimal.Decimal](ttl, now)
}
