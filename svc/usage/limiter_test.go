package usage_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/medisage/pkg/plan"
	"github.com/dmitrymomot/medisage/svc/usage"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Tier(ctx context.Context, userID string) (plan.Tier, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(plan.Tier), args.Error(1)
}

type failingStore struct{}

func (failingStore) Count(context.Context, string) (int64, error) {
	return 0, errors.New("connection refused")
}

func (failingStore) IncrementBelow(context.Context, string, int64, time.Duration) (int64, bool, error) {
	return 0, false, errors.New("connection refused")
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func newLimiter(t *testing.T, tier plan.Tier) (*usage.Limiter, *usage.MemoryStore, *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC)}
	store := usage.NewMemoryStore(clk.Now)
	resolver := &mockResolver{}
	resolver.On("Tier", mock.Anything, "user_1").Return(tier, nil)
	return usage.NewLimiter(store, resolver, usage.WithClock(clk.Now)), store, clk
}

func TestLimiter_BasicTier(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l, store, _ := newLimiter(t, plan.Basic)

	res, err := l.Check(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, usage.Result{Allowed: true, Remaining: 5, Total: 0, PlanName: "basic"}, res)

	for i := 1; i <= 5; i++ {
		res, err = l.Consume(ctx, "user_1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 5-i, res.Remaining)
		assert.Equal(t, i, res.Total)
	}

	res, err = l.Consume(ctx, "user_1")
	require.ErrorIs(t, err, usage.ErrLimitExceeded)
	assert.Equal(t, usage.Result{Allowed: false, Remaining: 0, Total: 5, PlanName: "basic"}, res)

	count, err := store.Count(ctx, "analysis:user_1:2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, int64(5), count, "rejected consume must not increment")

	res, err = l.Check(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, usage.Result{Allowed: false, Remaining: 0, Total: 5, PlanName: "basic"}, res)
}

func TestLimiter_CounterExpiresAtUTCMidnight(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l, store, clk := newLimiter(t, plan.Basic)

	_, err := l.Consume(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, store.TTL("analysis:user_1:2025-03-10"))

	clk.Set(time.Date(2025, 3, 11, 0, 0, 1, 0, time.UTC))
	res, err := l.Check(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, 5, res.Remaining)
	assert.Equal(t, 0, res.Total)
}

func TestLimiter_UnlimitedTiers(t *testing.T) {
	t.Parallel()

	for _, tier := range []plan.Tier{plan.Professional, plan.Clinical} {
		t.Run(tier.String(), func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			l, store, _ := newLimiter(t, tier)

			for range 10 {
				res, err := l.Consume(ctx, "user_1")
				require.NoError(t, err)
				assert.Equal(t, usage.Result{Allowed: true, Remaining: -1, Total: -1, PlanName: tier.String()}, res)
			}
			res, err := l.Check(ctx, "user_1")
			require.NoError(t, err)
			assert.Equal(t, -1, res.Remaining)

			count, err := store.Count(ctx, "analysis:user_1:2025-03-10")
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestLimiter_ConcurrentConsumeNeverOvershoots(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l, store, _ := newLimiter(t, plan.Basic)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Consume(ctx, "user_1"); err == nil {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, allowed)
	count, err := store.Count(ctx, "analysis:user_1:2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestLimiter_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()
		resolver := &mockResolver{}
		resolver.On("Tier", mock.Anything, "user_1").Return(plan.Basic, nil)
		l := usage.NewLimiter(failingStore{}, resolver)

		_, err := l.Check(ctx, "user_1")
		assert.ErrorIs(t, err, usage.ErrInfrastructure)
		_, err = l.Consume(ctx, "user_1")
		assert.ErrorIs(t, err, usage.ErrInfrastructure)
	})

	t.Run("resolver failure", func(t *testing.T) {
		t.Parallel()
		resolver := &mockResolver{}
		resolver.On("Tier", mock.Anything, "user_1").Return(plan.Tier(""), errors.New("mongo down"))
		l := usage.NewLimiter(usage.NewMemoryStore(nil), resolver)

		_, err := l.Consume(ctx, "user_1")
		assert.ErrorIs(t, err, usage.ErrInfrastructure)
		resolver.AssertExpectations(t)
	})

	t.Run("missing user", func(t *testing.T) {
		t.Parallel()
		l := usage.NewLimiter(usage.NewMemoryStore(nil), &mockResolver{})
		_, err := l.Check(ctx, "")
		assert.ErrorIs(t, err, usage.ErrMissingUserID)
	})
}

func TestDayKeyAndTTL(t *testing.T) {
	t.Parallel()

	local := time.FixedZone("UTC+3", 3*60*60)
	ts := time.Date(2025, 1, 1, 1, 30, 0, 0, local) // 2024-12-31 22:30 UTC

	assert.Equal(t, "analysis:u:2024-12-31", usage.DayKey("u", ts))
	assert.Equal(t, 90*time.Minute, usage.UntilMidnight(ts))
	assert.Equal(t, 24*time.Hour, usage.UntilMidnight(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
}
