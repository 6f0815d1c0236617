package usage

import (
	"context"
	"time"
)

// Store keeps daily analysis counters.
type Store interface {
	// Count returns the counter value, 0 when the key is absent.
	Count(ctx context.Context, key string) (int64, error)
	// IncrementBelow increments the counter and resets its TTL only when the
	// current value is below limit, in a single atomic step. It returns the
	// value after the operation and whether the increment happened.
	IncrementBelow(ctx context.Context, key string, limit int64, ttl time.Duration) (count int64, incremented bool, err error)
}
