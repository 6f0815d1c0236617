package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/medisage/pkg/logger"
	"github.com/dmitrymomot/medisage/pkg/metrics"
	"github.com/dmitrymomot/medisage/pkg/plan"
)

// TierResolver returns the tier currently in effect for a user.
type TierResolver interface {
	Tier(ctx context.Context, userID string) (plan.Tier, error)
}

// Result describes a user's quota for the current UTC day.
// Remaining and Total are -1 for unlimited tiers; otherwise Total is the
// number of analyses already used today.
type Result struct {
	Allowed   bool
	Remaining int
	Total     int
	PlanName  string
}

// Limiter enforces the per-tier daily analysis quota.
type Limiter struct {
	store   Store
	tiers   TierResolver
	now     func() time.Time
	metrics *metrics.Metrics
	log     *slog.Logger
}

// Option configures Limiter.
type Option func(*Limiter)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithMetrics records quota decisions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Limiter) { l.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(l *Limiter) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLimiter creates a Limiter.
func NewLimiter(store Store, tiers TierResolver, opts ...Option) *Limiter {
	l := &Limiter{
		store: store,
		tiers: tiers,
		now:   time.Now,
		log:   logger.Noop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check reports the quota without changing it.
func (l *Limiter) Check(ctx context.Context, userID string) (Result, error) {
	tier, limit, err := l.resolve(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	if limit == plan.Unlimited {
		return unlimited(tier), nil
	}

	count, err := l.store.Count(ctx, l.key(userID))
	if err != nil {
		return Result{}, errors.Join(ErrInfrastructure, err)
	}
	return metered(tier, limit, count), nil
}

// Consume uses one analysis. When the quota is exhausted the counter is
// left untouched and ErrLimitExceeded is returned alongside the current
// Result.
func (l *Limiter) Consume(ctx context.Context, userID string) (Result, error) {
	tier, limit, err := l.resolve(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	if limit == plan.Unlimited {
		l.metrics.AnalysisConsumed(tier.String())
		return unlimited(tier), nil
	}

	now := l.now().UTC()
	count, ok, err := l.store.IncrementBelow(ctx, dayKey(userID, now), int64(limit), untilMidnight(now))
	if err != nil {
		return Result{}, errors.Join(ErrInfrastructure, err)
	}

	res := metered(tier, limit, count)
	if !ok {
		l.metrics.AnalysisDenied(tier.String())
		l.log.InfoContext(ctx, "daily analysis limit reached",
			logger.UserID(userID),
			logger.PlanName(tier.String()),
			slog.Int64("count", count),
		)
		res.Allowed = false
		return res, ErrLimitExceeded
	}

	l.metrics.AnalysisConsumed(tier.String())
	res.Allowed = true
	return res, nil
}

func (l *Limiter) resolve(ctx context.Context, userID string) (plan.Tier, int, error) {
	if userID == "" {
		return "", 0, ErrMissingUserID
	}
	tier, err := l.tiers.Tier(ctx, userID)
	if err != nil {
		return "", 0, errors.Join(ErrInfrastructure, err)
	}
	return tier, tier.Capabilities().DailyAnalyses, nil
}

func (l *Limiter) key(userID string) string {
	return dayKey(userID, l.now().UTC())
}

func unlimited(tier plan.Tier) Result {
	return Result{Allowed: true, Remaining: plan.Unlimited, Total: plan.Unlimited, PlanName: tier.String()}
}

func metered(tier plan.Tier, limit int, count int64) Result {
	used := int(count)
	return Result{
		Allowed:   used < limit,
		Remaining: max(0, limit-used),
		Total:     used,
		PlanName:  tier.String(),
	}
}

// dayKey is the counter key for userID on the UTC date of t.
func dayKey(userID string, t time.Time) string {
	return fmt.Sprintf("analysis:%s:%s", userID, t.UTC().Format(time.DateOnly))
}

// untilMidnight is the time left until the next UTC midnight.
func untilMidnight(t time.Time) time.Duration {
	t = t.UTC()
	next := time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, time.UTC)
	return next.Sub(t)
}
