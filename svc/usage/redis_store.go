package usage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrementBelowScript increments KEYS[1] when it is below ARGV[1] and sets
// its expiry to ARGV[2] seconds. Returns {count, incremented}.
var incrementBelowScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local limit = tonumber(ARGV[1])
if current >= limit then
	return {current, 0}
end
current = redis.call('INCR', KEYS[1])
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[2]))
return {current, 1}
`)

// RedisStore is a Store backed by Redis.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a RedisStore.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Count implements Store.
func (s *RedisStore) Count(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get counter %s: %w", key, err)
	}
	return n, nil
}

// IncrementBelow implements Store with a Lua script so the check and the
// increment cannot interleave with another request.
func (s *RedisStore) IncrementBelow(ctx context.Context, key string, limit int64, ttl time.Duration) (int64, bool, error) {
	seconds := int64(math.Ceil(ttl.Seconds()))
	if seconds < 1 {
		seconds = 1
	}

	res, err := incrementBelowScript.Run(ctx, s.client, []string{key}, limit, seconds).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("increment counter %s: %w", key, err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("increment counter %s: unexpected script result %v", key, res)
	}
	return res[0], res[1] == 1, nil
}
