package usage_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/medisage/pkg/redis"
	"github.com/dmitrymomot/medisage/svc/usage"
)

func TestRedisStore(t *testing.T) {
	t.Parallel()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	ctx := context.Background()
	client, err := redis.Connect(ctx, redis.Config{ConnectionURL: url, RetryAttempts: 1, ConnectTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := usage.NewRedisStore(client)
	key := "analysis:test-" + uuid.NewString() + ":2025-01-01"
	t.Cleanup(func() { client.Del(context.Background(), key) })

	count, err := store.Count(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, count)

	for i := int64(1); i <= 2; i++ {
		count, ok, err := store.IncrementBelow(ctx, key, 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, i, count)
	}

	count, ok, err := store.IncrementBelow(ctx, key, 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(2), count)

	ttl, err := client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}
