package subscription

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/medisage/pkg/billing"
	"github.com/dmitrymomot/medisage/pkg/logger"
	"github.com/dmitrymomot/medisage/pkg/metrics"
)

// HandleWebhook verifies and applies a provider event. The signature is
// checked before anything else; unknown event kinds succeed without effect.
// Any error should be reported to the provider as a failed delivery so the
// event is redelivered.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	evt, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		s.metrics.WebhookEvent("", metrics.OutcomeRejected)
		return err
	}

	log := s.log.With(
		logger.EventID(evt.ID),
		logger.EventType(evt.Type),
		slog.Time("event_created", evt.Created),
	)

	switch evt.Kind {
	case billing.EventCheckoutCompleted:
		err = s.applyCheckoutCompleted(ctx, log, evt.Session)
	case billing.EventSubscriptionUpdated:
		err = s.applySubscriptionUpdated(ctx, evt.Subscription)
	case billing.EventSubscriptionDeleted:
		err = s.applySubscriptionDeleted(ctx, log, evt.Subscription)
	default:
		s.metrics.WebhookEvent(evt.Type, metrics.OutcomeIgnored)
		log.DebugContext(ctx, "webhook event ignored")
		return nil
	}

	if errors.Is(err, errSuperseded) {
		s.metrics.WebhookEvent(evt.Type, metrics.OutcomeIgnored)
		log.InfoContext(ctx, "webhook event for superseded subscription ignored",
			logger.SubscriptionID(evt.Subscription.SubscriptionID),
		)
		return nil
	}
	if err != nil {
		s.metrics.WebhookEvent(evt.Type, metrics.OutcomeFailed)
		log.ErrorContext(ctx, "webhook event failed", logger.Error(err))
		return err
	}
	s.metrics.WebhookEvent(evt.Type, metrics.OutcomeProcessed)
	log.InfoContext(ctx, "webhook event processed")
	return nil
}

func (s *Service) applyCheckoutCompleted(ctx context.Context, log *slog.Logger, sess *billing.CheckoutSession) error {
	if sess == nil || sess.UserID == "" {
		return ErrMissingMetadata
	}
	if sess.SubscriptionID == "" {
		log.InfoContext(ctx, "checkout without subscription, nothing to reconcile", logger.UserID(sess.UserID))
		return nil
	}

	snap, err := s.provider.GetSubscription(ctx, sess.SubscriptionID)
	if err != nil {
		return errors.Join(ErrInfrastructure, err)
	}
	_, err = s.reconcile(ctx, sess.UserID, sess.PlanName, *snap)
	return err
}

func (s *Service) applySubscriptionUpdated(ctx context.Context, snap *billing.Snapshot) error {
	if snap == nil {
		return ErrMissingMetadata
	}
	userID, planName, err := s.owner(ctx, snap)
	if err != nil {
		return err
	}
	_, err = s.reconcile(ctx, userID, planName, *snap)
	return err
}

func (s *Service) applySubscriptionDeleted(ctx context.Context, log *slog.Logger, snap *billing.Snapshot) error {
	if snap == nil {
		return ErrMissingMetadata
	}
	userID, _, err := s.owner(ctx, snap)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, userID); err != nil {
		return errors.Join(ErrInfrastructure, err)
	}
	log.InfoContext(ctx, "subscription deleted", logger.UserID(userID), logger.SubscriptionID(snap.SubscriptionID))
	return nil
}

// owner resolves the user and plan of a subscription event. Metadata wins;
// otherwise the live record referencing the subscription is used. Events for
// a subscription other than the one on the live record return errSuperseded.
func (s *Service) owner(ctx context.Context, snap *billing.Snapshot) (userID, planName string, err error) {
	var rec *Record
	if snap.UserID != "" {
		rec, err = s.store.Get(ctx, snap.UserID)
	} else {
		rec, err = s.store.FindBySubscriptionID(ctx, snap.SubscriptionID)
	}
	switch {
	case errors.Is(err, ErrNotFound):
		if snap.UserID == "" {
			return "", "", ErrMissingMetadata
		}
		return snap.UserID, snap.PlanName, nil
	case err != nil:
		return "", "", errors.Join(ErrInfrastructure, err)
	}

	if rec.SubscriptionID != "" && rec.SubscriptionID != snap.SubscriptionID {
		return "", "", errSuperseded
	}

	userID = snap.UserID
	if userID == "" {
		userID = rec.UserID
	}
	planName = snap.PlanName
	if planName == "" {
		planName = rec.PlanName
	}
	return userID, planName, nil
}
