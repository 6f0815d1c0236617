package subscription

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	live    map[string]Record
	history []HistoryEntry
	now     func() time.Time
}

// NewMemoryStore creates a MemoryStore. now defaults to time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{live: make(map[string]Record), now: now}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, userID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.live[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// FindBySubscriptionID implements Store.
func (s *MemoryStore) FindBySubscriptionID(_ context.Context, subscriptionID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if subscriptionID == "" {
		return nil, ErrNotFound
	}
	for _, rec := range s.live {
		if rec.SubscriptionID == subscriptionID {
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

// Upsert implements Store.
func (s *MemoryStore) Upsert(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	rec.CreatedAt = now
	if old, ok := s.live[rec.UserID]; ok {
		rec.CreatedAt = old.CreatedAt
		if old.SubscriptionID != rec.SubscriptionID {
			s.history = append(s.history, HistoryEntry{Record: old, EndedAt: now})
		}
	}
	rec.UpdatedAt = now
	s.live[rec.UserID] = rec
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.live[userID]
	if !ok {
		return nil
	}
	now := s.now().UTC()
	s.history = append(s.history, HistoryEntry{Record: old, EndedAt: now, DeletedAt: &now})
	delete(s.live, userID)
	return nil
}

// History returns the archived records of userID, newest first.
func (s *MemoryStore) History(_ context.Context, userID string) ([]HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []HistoryEntry
	for _, e := range s.history {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	slices.Reverse(out)
	return out, nil
}
