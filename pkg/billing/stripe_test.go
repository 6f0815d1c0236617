package billing_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/dmitrymomot/medisage/pkg/billing"
)

const testWebhookSecret = "whsec_test"

func newProvider(t *testing.T, opts ...billing.StripeOption) *billing.StripeProvider {
	t.Helper()
	p, err := billing.NewStripeProvider(billing.Config{
		SecretKey:     "sk_test_123",
		WebhookSecret: testWebhookSecret,
	}, opts...)
	require.NoError(t, err)
	return p
}

func signedEvent(t *testing.T, eventType string, object map[string]any) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":          "evt_123",
		"object":      "event",
		"type":        eventType,
		"created":     1735689600,
		"api_version": "2024-06-20",
		"data":        map[string]any{"object": object},
	})
	require.NoError(t, err)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func TestNewStripeProvider(t *testing.T) {
	t.Parallel()

	_, err := billing.NewStripeProvider(billing.Config{WebhookSecret: "x"})
	assert.ErrorIs(t, err, billing.ErrMissingAPIKey)

	_, err = billing.NewStripeProvider(billing.Config{SecretKey: "x"})
	assert.ErrorIs(t, err, billing.ErrMissingWebhookSecret)
}

func TestStripeProvider_ParseWebhook(t *testing.T) {
	t.Parallel()

	p := newProvider(t)

	t.Run("missing signature", func(t *testing.T) {
		t.Parallel()
		_, err := p.ParseWebhook([]byte(`{}`), "")
		assert.ErrorIs(t, err, billing.ErrSignatureInvalid)
	})

	t.Run("bad signature", func(t *testing.T) {
		t.Parallel()
		payload, _ := signedEvent(t, "customer.subscription.updated", map[string]any{"id": "sub_1", "object": "subscription"})
		_, err := p.ParseWebhook(payload, "t=1,v1=deadbeef")
		assert.ErrorIs(t, err, billing.ErrSignatureInvalid)
	})

	t.Run("tampered payload", func(t *testing.T) {
		t.Parallel()
		payload, header := signedEvent(t, "customer.subscription.updated", map[string]any{"id": "sub_1", "object": "subscription"})
		payload = append(payload, ' ')
		_, err := p.ParseWebhook(payload, header)
		assert.ErrorIs(t, err, billing.ErrSignatureInvalid)
	})

	t.Run("checkout completed", func(t *testing.T) {
		t.Parallel()
		payload, header := signedEvent(t, "checkout.session.completed", map[string]any{
			"id":             "cs_123",
			"object":         "checkout.session",
			"payment_status": "paid",
			"customer":       "cus_1",
			"subscription":   "sub_1",
			"metadata":       map[string]string{"userId": "user_1", "planName": "clinical"},
		})

		evt, err := p.ParseWebhook(payload, header)
		require.NoError(t, err)
		assert.Equal(t, billing.EventCheckoutCompleted, evt.Kind)
		assert.Equal(t, "evt_123", evt.ID)
		assert.Equal(t, time.Unix(1735689600, 0).UTC(), evt.Created)
		require.NotNil(t, evt.Session)
		assert.Equal(t, billing.CheckoutSession{
			ID:             "cs_123",
			Paid:           true,
			UserID:         "user_1",
			PlanName:       "clinical",
			CustomerID:     "cus_1",
			SubscriptionID: "sub_1",
		}, *evt.Session)
	})

	subscriptionCases := []struct {
		eventType string
		kind      billing.EventKind
	}{
		{"customer.subscription.created", billing.EventSubscriptionUpdated},
		{"customer.subscription.updated", billing.EventSubscriptionUpdated},
		{"customer.subscription.deleted", billing.EventSubscriptionDeleted},
	}
	for _, tc := range subscriptionCases {
		t.Run(tc.eventType, func(t *testing.T) {
			t.Parallel()
			payload, header := signedEvent(t, tc.eventType, map[string]any{
				"id":                   "sub_1",
				"object":               "subscription",
				"status":               "active",
				"customer":             "cus_1",
				"current_period_end":   1767225600,
				"cancel_at_period_end": true,
				"metadata":             map[string]string{"userId": "user_1"},
			})

			evt, err := p.ParseWebhook(payload, header)
			require.NoError(t, err)
			assert.Equal(t, tc.kind, evt.Kind)
			require.NotNil(t, evt.Subscription)
			assert.Equal(t, billing.Snapshot{
				SubscriptionID:    "sub_1",
				CustomerID:        "cus_1",
				Status:            "active",
				CurrentPeriodEnd:  time.Unix(1767225600, 0).UTC(),
				CancelAtPeriodEnd: true,
				UserID:            "user_1",
			}, *evt.Subscription)
		})
	}

	t.Run("other events are ignored", func(t *testing.T) {
		t.Parallel()
		payload, header := signedEvent(t, "invoice.paid", map[string]any{"id": "in_1", "object": "invoice"})
		evt, err := p.ParseWebhook(payload, header)
		require.NoError(t, err)
		assert.Equal(t, billing.EventIgnored, evt.Kind)
		assert.Equal(t, "invoice.paid", evt.Type)
	})
}

func TestStripeProvider_GetSubscription(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/subscriptions/sub_42" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = fmt.Fprint(w, `{"error":{"type":"invalid_request_error","message":"No such subscription"}}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"id":"sub_42","object":"subscription","status":"past_due","customer":"cus_9","current_period_end":1767225600,"cancel_at_period_end":false,"metadata":{"userId":"user_9","planName":"professional"}}`)
	}))
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	p := newProvider(t, billing.WithStripeBackends(&stripe.Backends{API: backend, Connect: backend, Uploads: backend}))

	snap, err := p.GetSubscription(context.Background(), "sub_42")
	require.NoError(t, err)
	assert.Equal(t, "past_due", snap.Status)
	assert.False(t, snap.Active())
	assert.Equal(t, "user_9", snap.UserID)
	assert.Equal(t, "professional", snap.PlanName)
	assert.Equal(t, "cus_9", snap.CustomerID)

	_, err = p.GetSubscription(context.Background(), "sub_missing")
	assert.ErrorIs(t, err, billing.ErrProvider)
}
