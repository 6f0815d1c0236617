package usage

import (
	"context"
	"sync"
	"time"
)

type memoryCounter struct {
	value     int64
	expiresAt time.Time
}

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]memoryCounter
	now      func() time.Time
}

// NewMemoryStore creates a MemoryStore. now defaults to time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{counters: make(map[string]memoryCounter), now: now}
}

func (s *MemoryStore) get(key string) int64 {
	c, ok := s.counters[key]
	if !ok {
		return 0
	}
	if !c.expiresAt.IsZero() && !s.now().Before(c.expiresAt) {
		delete(s.counters, key)
		return 0
	}
	return c.value
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(key), nil
}

// IncrementBelow implements Store.
func (s *MemoryStore) IncrementBelow(_ context.Context, key string, limit int64, ttl time.Duration) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.get(key)
	if current >= limit {
		return current, false, nil
	}
	current++
	s.counters[key] = memoryCounter{value: current, expiresAt: s.now().Add(ttl)}
	return current, true, nil
}

// TTL returns the remaining lifetime of key, 0 when absent.
func (s *MemoryStore) TTL(key string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.get(key) == 0 {
		return 0
	}
	return s.counters[key].expiresAt.Sub(s.now())
}
