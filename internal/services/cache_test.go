package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestTTLCacheExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewBalanceCache(time.Minute, clock.Now)
	id := uuid.New()

	cache.Set(id, decimal.NewFromInt(7))
	got, ok := cache.Get(id)
	require.True(t, ok)
	require.True(t, got.Equal(decimal.NewFromInt(7)))

	clock.Advance(59 * time.Second)
	_, ok = cache.Get(id)
	require.True(t, ok)

	clock.Advance(time.Second)
	_, ok = cache.Get(id)
	require.False(t, ok)
}

func TestTTLCacheDeleteAndDisabled(t *testing.T) {
	cache := NewRateCache(time.Hour, nil)
	cache.Set("EUR", decimal.RequireFromString("1.1"))
	cache.Delete("EUR")
	_, ok := cache.Get("EUR")
	require.False(t, ok)

	disabled := NewRateCache(0, nil)
	disabled.Set("EUR", decimal.NewFromInt(1))
	require.Equal(t, 0, disabled.Len())

	var nilCache *BalanceCache
	_, ok = nilCache.Get(uuid.New())
	require.False(t, ok)
}
