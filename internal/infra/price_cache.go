package infra

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// PriceCacheKey holds the last raw API response body.
const PriceCacheKey = "fuelsurcharge:diesel_prices"

// PriceCache stores raw response bodies with a TTL. It is best-effort: a
// failing backend behaves like a miss and never fails the caller.
type PriceCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Clear(ctx context.Context, key string)
}

// ── Redis ─────────────────────────────────────────────────────────────────────

type RedisPriceCache struct {
	rdb *redis.Client
}

func NewRedisPriceCache(rdb *redis.Client) *RedisPriceCache {
	return &RedisPriceCache{rdb: rdb}
}

func (c *RedisPriceCache) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("price_cache: redis get failed")
		return nil, false
	}
	return b, true
}

func (c *RedisPriceCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("price_cache: redis set failed")
	}
}

func (c *RedisPriceCache) Clear(ctx context.Context, key string) {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("price_cache: redis del failed")
	}
}

// ── In-memory ─────────────────────────────────────────────────────────────────

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryPriceCache is used when no Redis is configured and in tests.
type MemoryPriceCache struct {
	mu    sync.RWMutex
	store map[string]memoryEntry
	now   func() time.Time
}

func NewMemoryPriceCache() *MemoryPriceCache {
	return NewMemoryPriceCacheWithClock(time.Now)
}

// NewMemoryPriceCacheWithClock lets tests control expiry.
func NewMemoryPriceCacheWithClock(now func() time.Time) *MemoryPriceCache {
	return &MemoryPriceCache{store: make(map[string]memoryEntry), now: now}
}

func (c *MemoryPriceCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.store[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (c *MemoryPriceCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: c.now().Add(ttl),
	}
}

func (c *MemoryPriceCache) Clear(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
}
