package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/loadsynth/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	client, err := New(context.Background(), &config.Config{})
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(Disabled(), "test")
	cfg := SynthesisRateLimit("feeder_a")

	allowed, remaining, err := limiter.Allow(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, cfg.Limit, remaining)
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", []float64{1, 2}, time.Minute))

	var result []float64
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestCacheKeys(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "temperature:SN18700:2024010100:2025010100", TemperatureKey("SN18700", from, to))
	assert.Equal(t, "run:summary:abc", RunSummaryKey("abc"))
	assert.Equal(t, "synthesize:feeder_a", SynthesisRateLimit("feeder_a").Key)
}

func TestIntegration(t *testing.T) {
	if os.Getenv("REDIS_ENABLED") != "true" {
		t.Skip("REDIS_ENABLED not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	ctx := context.Background()
	client, err := New(ctx, cfg)
	require.NoError(t, err)
	defer client.Close()

	cache := NewCache(client, "loadsynth_test")
	require.NoError(t, cache.Set(ctx, "series", []float64{1.5, 2.5}, time.Minute))

	var got []float64
	found, err := cache.Get(ctx, "series", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []float64{1.5, 2.5}, got)

	limiter := NewRateLimiter(client, "loadsynth_test")
	rl := RateLimitConfig{Key: "burst", Limit: 2, Window: time.Second}
	allowed := 0
	for i := 0; i < 4; i++ {
		ok, _, err := limiter.Allow(ctx, rl)
		require.NoError(t, err)
		if ok {
			allowed++
		}
	}
	assert.Equal(t, 2, allowed)
}
