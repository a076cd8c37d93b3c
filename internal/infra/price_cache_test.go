package infra

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	_ PriceCache = (*MemoryPriceCache)(nil)
	_ PriceCache = (*RedisPriceCache)(nil)
)

func TestMemoryPriceCacheExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryPriceCacheWithClock(func() time.Time { return now })
	ctx := context.Background()

	c.Set(ctx, PriceCacheKey, []byte("body"), time.Hour)

	now = now.Add(30 * time.Minute)
	got, ok := c.Get(ctx, PriceCacheKey)
	assert.True(t, ok)
	assert.Equal(t, "body", string(got))

	now = now.Add(30 * time.Minute)
	_, ok = c.Get(ctx, PriceCacheKey)
	assert.False(t, ok, "entry must expire exactly at ttl")
}

func TestMemoryPriceCacheClearAndZeroTTL(t *testing.T) {
	c := NewMemoryPriceCache()
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), 0)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	c.Set(ctx, "k", []byte("v"), time.Minute)
	c.Clear(ctx, "k")
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryPriceCacheCopiesValue(t *testing.T) {
	c := NewMemoryPriceCache()
	ctx := context.Background()
	buf := []byte("abc")

	c.Set(ctx, "k", buf, time.Minute)
	buf[0] = 'x'

	got, _ := c.Get(ctx, "k")
	assert.Equal(t, "abc", string(got))
}
