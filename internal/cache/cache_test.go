package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurocalc-mcp-server/internal/domain"
)

func newTestCache(t *testing.T, cfg Config) *ResultCache {
	t.Helper()
	logger, _ := test.NewNullLogger()
	return NewResultCache(cfg, logger)
}

func TestResultCache_GetSet(t *testing.T) {
	c := newTestCache(t, Config{})
	ctx := context.Background()
	answers := domain.AnswerSet{"eye": domain.Number(4)}
	key := Key("gcs", answers)

	_, found := c.Get(ctx, key)
	assert.False(t, found)

	want := domain.CalculationResult{Score: domain.Number(4), Interpretation: "Severe brain injury (GCS 3-8)"}
	require.NoError(t, c.Set(ctx, key, want))

	got, found := c.Get(ctx, key)
	require.True(t, found)
	assert.True(t, want.Score.Equal(got.Score))
	assert.Equal(t, want.Interpretation, got.Interpretation)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.MemoryHits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
}

func TestResultCache_KeyIncludesCalculator(t *testing.T) {
	answers := domain.AnswerSet{"age": domain.Bool(true)}
	assert.NotEqual(t, Key("abcd2", answers), Key("ich", answers))
	assert.Equal(t, Key("ich", answers), Key("ich", answers.Clone()))
}

func TestResultCache_Eviction(t *testing.T) {
	c := newTestCache(t, Config{MaxItems: 2})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		key := Key("mrs", domain.AnswerSet{"mrs": domain.Number(float64(i))})
		require.NoError(t, c.Set(ctx, key, domain.CalculationResult{Score: domain.Number(float64(i))}))
	}

	stats := c.Stats()
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, int64(3), stats.Evictions)
}

func TestResultCache_Expiry(t *testing.T) {
	c := newTestCache(t, Config{TTL: 20 * time.Millisecond})
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", domain.CalculationResult{Interpretation: "x"}))

	assert.Eventually(t, func() bool {
		_, found := c.Get(ctx, "k")
		return !found
	}, time.Second, 10*time.Millisecond)
}

func TestResultCache_HealthyWithoutRedis(t *testing.T) {
	c := newTestCache(t, Config{})
	assert.True(t, c.IsHealthy(context.Background()))
}

func TestResultCache_Redis(t *testing.T) {
	url := os.Getenv("NEUROCALC_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Redis integration test - set NEUROCALC_TEST_REDIS_URL")
	}

	ctx := context.Background()
	client, err := NewRedisClient(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	c := newTestCache(t, Config{Redis: client, TTL: time.Minute})
	key := Key("ottawa", domain.AnswerSet{"loc": domain.Bool(true)})
	want := domain.CalculationResult{Score: domain.Tag("POSITIVE"), Interpretation: "Rule not met"}
	require.NoError(t, c.Set(ctx, key, want))

	// Drop tier 1 to force a Redis read.
	c.Purge()
	got, found := c.Get(ctx, key)
	require.True(t, found)
	assert.True(t, want.Score.Equal(got.Score))
	assert.Equal(t, int64(1), c.Stats().RedisHits)
	assert.True(t, c.IsHealthy(ctx))

	client.Del(ctx, redisKeyPrefix+key)
}

func TestSessionStore(t *testing.T) {
	store := NewSessionStore[string](10, time.Minute)

	id := store.Create("gcs")
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	v, ok := store.Get(id)
	require.True(t, ok)
	assert.Equal(t, "gcs", v)
	assert.Equal(t, 1, store.Len())

	assert.True(t, store.Delete(id))
	assert.False(t, store.Delete(id))
	_, ok = store.Get(id)
	assert.False(t, ok)
}

func TestSessionStore_CapacityAndExpiry(t *testing.T) {
	store := NewSessionStore[int](2, 20*time.Millisecond)
	first := store.Create(1)
	store.Create(2)
	store.Create(3)

	_, ok := store.Get(first)
	assert.False(t, ok, "oldest session should be evicted")
	assert.Equal(t, 2, store.Len())

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 10*time.Millisecond)
}
