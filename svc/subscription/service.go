package subscription

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/medisage/pkg/billing"
	"github.com/dmitrymomot/medisage/pkg/logger"
	"github.com/dmitrymomot/medisage/pkg/metrics"
	"github.com/dmitrymomot/medisage/pkg/plan"
)

// Service reconciles stored subscriptions with the payment provider.
type Service struct {
	store    Store
	provider billing.Provider
	catalog  *plan.Catalog
	baseURL  string
	now      func() time.Time
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures Service.
type Option func(*Service)

// WithCatalog sets the plan catalog used to map checkout prices to tiers.
func WithCatalog(c *plan.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithBaseURL sets the public application URL used for checkout redirects.
func WithBaseURL(u string) Option {
	return func(s *Service) { s.baseURL = strings.TrimRight(u, "/") }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics records webhook outcomes and verification fallbacks.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a Service.
func NewService(store Store, provider billing.Provider, opts ...Option) *Service {
	s := &Service{
		store:    store,
		provider: provider,
		catalog:  plan.Default(),
		now:      time.Now,
		log:      logger.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tier returns the tier in effect for userID.
func (s *Service) Tier(ctx context.Context, userID string) (plan.Tier, error) {
	st, err := s.EffectivePlan(ctx, userID, "")
	if err != nil {
		return "", err
	}
	return st.Tier(), nil
}

// EffectivePlan resolves the plan in effect for userID.
//
// A sessionID triggers direct verification of that checkout first. Otherwise,
// or when verification does not settle, the stored record is used: no record
// means basic/inactive, and a record with a provider subscription is checked
// live. A subscription that is not active or whose period has ended reports
// basic/inactive without touching the store; a provider failure reports the
// stored record as is.
func (s *Service) EffectivePlan(ctx context.Context, userID, sessionID string) (Status, error) {
	if sessionID != "" {
		st, err := s.ReconcileCheckoutSession(ctx, userID, sessionID)
		if err == nil {
			return st, nil
		}
		s.log.WarnContext(ctx, "checkout verification did not settle, using stored subscription",
			logger.UserID(userID),
			slog.String("session_id", sessionID),
			logger.Error(err),
		)
		s.metrics.VerificationFallback("checkout")
	}

	rec, err := s.store.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return basicInactive(), nil
	}
	if err != nil {
		return Status{}, errors.Join(ErrInfrastructure, err)
	}
	if rec.SubscriptionID == "" {
		return statusFromRecord(rec), nil
	}

	snap, err := s.provider.GetSubscription(ctx, rec.SubscriptionID)
	if err != nil {
		s.log.WarnContext(ctx, "subscription verification failed, using stored subscription",
			logger.UserID(userID),
			logger.SubscriptionID(rec.SubscriptionID),
			logger.Error(err),
		)
		s.metrics.VerificationFallback("subscription")
		return statusFromRecord(rec), nil
	}

	if !snap.Active() || snap.CurrentPeriodEnd.IsZero() || snap.CurrentPeriodEnd.Before(s.now()) {
		return basicInactive(), nil
	}

	expiry := snap.CurrentPeriodEnd
	cancel := snap.CancelAtPeriodEnd
	return Status{
		PlanName:          rec.PlanName,
		Status:            snap.Status,
		ExpiryDate:        &expiry,
		CancelAtPeriodEnd: &cancel,
	}, nil
}

// ReconcileCheckoutSession verifies a checkout session directly with the
// provider and, when it is paid and carries a subscription, upserts the
// user's record the same way the webhook does. Sessions that cannot be
// settled return ErrCheckoutNotSettled.
func (s *Service) ReconcileCheckoutSession(ctx context.Context, userID, sessionID string) (Status, error) {
	sess, err := s.provider.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return Status{}, errors.Join(ErrCheckoutNotSettled, err)
	}
	if !sess.Paid || sess.SubscriptionID == "" {
		return Status{}, ErrCheckoutNotSettled
	}
	if sess.UserID != "" && sess.UserID != userID {
		return Status{}, errors.Join(ErrCheckoutNotSettled, errors.New("session belongs to another user"))
	}

	snap, err := s.provider.GetSubscription(ctx, sess.SubscriptionID)
	if err != nil {
		return Status{}, errors.Join(ErrCheckoutNotSettled, err)
	}

	rec, err := s.reconcile(ctx, userID, sess.PlanName, *snap)
	if err != nil {
		return Status{}, err
	}
	return statusFromRecord(&rec), nil
}

// reconcile overwrites the user's record from a provider snapshot. A
// subscription set to cancel at period end keeps its provider status but
// loses its paid plan immediately.
func (s *Service) reconcile(ctx context.Context, userID, planName string, snap billing.Snapshot) (Record, error) {
	tier := plan.Parse(planName)
	if snap.CancelAtPeriodEnd {
		tier = plan.Basic
	}

	rec := Record{
		UserID:            userID,
		PlanName:          tier.String(),
		Status:            snap.Status,
		SubscriptionID:    snap.SubscriptionID,
		CustomerID:        snap.CustomerID,
		CancelAtPeriodEnd: snap.CancelAtPeriodEnd,
	}
	if !snap.CurrentPeriodEnd.IsZero() {
		end := snap.CurrentPeriodEnd
		rec.CurrentPeriodEnd = &end
	}

	if err := s.store.Upsert(ctx, rec); err != nil {
		return Record{}, errors.Join(ErrInfrastructure, err)
	}

	s.log.InfoContext(ctx, "subscription reconciled",
		logger.UserID(userID),
		logger.PlanName(rec.PlanName),
		logger.SubscriptionID(rec.SubscriptionID),
		slog.String("status", rec.Status),
		slog.Bool("cancel_at_period_end", rec.CancelAtPeriodEnd),
	)
	return rec, nil
}
