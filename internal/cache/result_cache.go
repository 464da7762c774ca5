// Package cache holds the in-process caches used by the calculator service:
// a two-tier calculation result cache and the wizard session store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/neurocalc-mcp-server/internal/domain"
)

const redisKeyPrefix = "neurocalc:result:"

// Config configures a ResultCache.
type Config struct {
	MaxItems int
	TTL      time.Duration
	// Redis is an optional shared second tier.
	Redis *redis.Client
}

// Stats tracks cache performance.
type Stats struct {
	MemoryHits int64 `json:"memory_hits"`
	RedisHits  int64 `json:"redis_hits"`
	Misses     int64 `json:"misses"`
	Evictions  int64 `json:"evictions"`
	Entries    int   `json:"entries"`
}

// ResultCache memoises calculation results by calculator ID and answer
// fingerprint. Tier 1 is an expiring in-memory LRU; tier 2 is Redis when
// configured. Safe for concurrent use.
type ResultCache struct {
	memory *expirable.LRU[string, domain.CalculationResult]
	redis  *redis.Client
	ttl    time.Duration
	logger *logrus.Logger

	memoryHits atomic.Int64
	redisHits  atomic.Int64
	misses     atomic.Int64
	evictions  atomic.Int64
}

// NewResultCache creates a result cache with defaults applied.
func NewResultCache(cfg Config, logger *logrus.Logger) *ResultCache {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 1024
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Minute
	}

	c := &ResultCache{
		redis:  cfg.Redis,
		ttl:    cfg.TTL,
		logger: logger,
	}
	c.memory = expirable.NewLRU[string, domain.CalculationResult](cfg.MaxItems, func(string, domain.CalculationResult) {
		c.evictions.Add(1)
	}, cfg.TTL)
	return c
}

// Key builds the cache key for a calculator and its answers.
func Key(calculatorID string, answers domain.AnswerSet) string {
	return calculatorID + ":" + answers.Fingerprint()
}

// Get looks up a result, promoting Redis hits into memory.
func (c *ResultCache) Get(ctx context.Context, key string) (domain.CalculationResult, bool) {
	if res, ok := c.memory.Get(key); ok {
		c.memoryHits.Add(1)
		return res, true
	}

	if c.redis != nil {
		data, err := c.redis.Get(ctx, redisKeyPrefix+key).Bytes()
		switch {
		case err == nil:
			var res domain.CalculationResult
			if err := json.Unmarshal(data, &res); err != nil {
				c.redis.Del(ctx, redisKeyPrefix+key)
				break
			}
			c.memory.Add(key, res)
			c.redisHits.Add(1)
			return res, true
		case !errors.Is(err, redis.Nil):
			c.logger.WithError(err).WithField("key", key).Warn("Redis result cache lookup failed")
		}
	}

	c.misses.Add(1)
	return domain.CalculationResult{}, false
}

// Set stores a result in both tiers. A Redis failure is returned but the
// memory tier is always populated.
func (c *ResultCache) Set(ctx context.Context, key string, res domain.CalculationResult) error {
	c.memory.Add(key, res)
	if c.redis == nil {
		return nil
	}

	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := c.redis.Set(ctx, redisKeyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store result in Redis: %w", err)
	}
	return nil
}

// Purge clears the memory tier.
func (c *ResultCache) Purge() {
	c.memory.Purge()
}

// Stats returns a snapshot of the counters.
func (c *ResultCache) Stats() Stats {
	return Stats{
		MemoryHits: c.memoryHits.Load(),
		RedisHits:  c.redisHits.Load(),
		Misses:     c.misses.Load(),
		Evictions:  c.evictions.Load(),
		Entries:    c.memory.Len(),
	}
}

// IsHealthy pings Redis when configured.
func (c *ResultCache) IsHealthy(ctx context.Context) bool {
	if c.redis == nil {
		return true
	}
	return c.redis.Ping(ctx).Err() == nil
}

// NewRedisClient parses url and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
