package analysis

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dmitrymomot/medisage/pkg/logger"
	"github.com/dmitrymomot/medisage/svc/usage"
)

// Analyzer runs analyses upstream. Client implements it.
type Analyzer interface {
	Traditional(ctx context.Context, req TraditionalRequest) (json.RawMessage, error)
	BodyBased(ctx context.Context, req BodyRequest) (json.RawMessage, error)
}

// Quota spends one analysis from a user's daily allowance.
type Quota interface {
	Consume(ctx context.Context, userID string) (usage.Result, error)
}

// Service gates analyses behind the user's plan and quota.
type Service struct {
	analyzer Analyzer
	quota    Quota
	tiers    usage.TierResolver
	log      *slog.Logger
}

// ServiceOption configures Service.
type ServiceOption func(*Service)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates a Service.
func NewService(analyzer Analyzer, quota Quota, tiers usage.TierResolver, opts ...ServiceOption) *Service {
	s := &Service{
		analyzer: analyzer,
		quota:    quota,
		tiers:    tiers,
		log:      logger.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Traditional consumes one analysis and forwards req upstream.
func (s *Service) Traditional(ctx context.Context, userID string, req TraditionalRequest) (json.RawMessage, error) {
	if _, err := s.quota.Consume(ctx, userID); err != nil {
		return nil, err
	}
	return s.run(ctx, userID, traditionalPath, func(ctx context.Context) (json.RawMessage, error) {
		return s.analyzer.Traditional(ctx, req)
	})
}

// BodyBased checks that the user's tier includes body analysis, consumes
// one analysis and forwards req upstream.
func (s *Service) BodyBased(ctx context.Context, userID string, req BodyRequest) (json.RawMessage, error) {
	tier, err := s.tiers.Tier(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !tier.Capabilities().BodyAnalysis {
		s.log.InfoContext(ctx, "body analysis denied", logger.UserID(userID), logger.PlanName(tier.String()))
		return nil, ErrBodyAnalysisNotAllowed
	}
	if _, err := s.quota.Consume(ctx, userID); err != nil {
		return nil, err
	}
	return s.run(ctx, userID, bodyBasedPath, func(ctx context.Context) (json.RawMessage, error) {
		return s.analyzer.BodyBased(ctx, req)
	})
}

func (s *Service) run(ctx context.Context, userID, kind string, call func(context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	start := time.Now()
	out, err := call(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "analysis failed",
			logger.UserID(userID),
			slog.String("kind", kind),
			logger.Duration(time.Since(start)),
			logger.Error(err),
		)
		return nil, err
	}
	s.log.DebugContext(ctx, "analysis completed",
		logger.UserID(userID),
		slog.String("kind", kind),
		logger.Duration(time.Since(start)),
	)
	return out, nil
}

var _ Analyzer = (*Client)(nil)
