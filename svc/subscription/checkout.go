package subscription

import (
	"context"
	"errors"

	"github.com/dmitrymomot/medisage/pkg/billing"
	"github.com/dmitrymomot/medisage/pkg/logger"
)

// CheckoutInput is a request to buy the tier behind PriceID.
type CheckoutInput struct {
	UserID  string
	Email   string
	PriceID string
}

// CreateCheckout starts a hosted checkout for the tier sold under PriceID.
// The tier name written to the provider metadata comes from the catalog.
func (s *Service) CreateCheckout(ctx context.Context, in CheckoutInput) (*billing.CheckoutSession, error) {
	if in.Email == "" {
		return nil, ErrMissingEmail
	}
	tier, err := s.catalog.TierForPrice(in.PriceID)
	if err != nil {
		return nil, err
	}

	sess, err := s.provider.CreateCheckoutSession(ctx, billing.CheckoutRequest{
		PriceID:    in.PriceID,
		Email:      in.Email,
		UserID:     in.UserID,
		PlanName:   tier.String(),
		SuccessURL: s.baseURL + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.baseURL + "/pricing",
	})
	if err != nil {
		return nil, errors.Join(ErrInfrastructure, err)
	}

	s.log.InfoContext(ctx, "checkout session created",
		logger.UserID(in.UserID),
		logger.PlanName(tier.String()),
	)
	return sess, nil
}
