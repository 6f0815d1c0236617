package billing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Config holds Stripe credentials and the price ids of the sold tiers.
type Config struct {
	SecretKey         string `env:"STRIPE_SECRET_KEY,required"`
	WebhookSecret     string `env:"STRIPE_WEBHOOK_SECRET,required"`
	PriceProfessional string `env:"STRIPE_PRICE_PROFESSIONAL,required"`
	PriceClinical     string `env:"STRIPE_PRICE_CLINICAL,required"`
}

// Stripe metadata keys written at checkout.
const (
	MetadataUserID   = "userId"
	MetadataPlanName = "planName"
)

// StripeProvider implements Provider with stripe-go.
type StripeProvider struct {
	api           *client.API
	secretKey     string
	webhookSecret string
}

// StripeOption configures StripeProvider.
type StripeOption func(*StripeProvider)

// WithStripeBackends points the client at custom backends. Used in tests.
func WithStripeBackends(backends *stripe.Backends) StripeOption {
	return func(p *StripeProvider) {
		p.api = client.New(p.secretKey, backends)
	}
}

// NewStripeProvider creates a provider from cfg.
func NewStripeProvider(cfg Config, opts ...StripeOption) (*StripeProvider, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	p := &StripeProvider{
		api:           client.New(cfg.SecretKey, nil),
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// CreateCheckoutSession creates a subscription-mode Checkout session paid by
// card, with billing address collection and promotion codes enabled.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if req.PriceID == "" {
		return nil, ErrMissingPriceID
	}
	if req.Email == "" {
		return nil, ErrMissingEmail
	}

	metadata := map[string]string{
		MetadataUserID:   req.UserID,
		MetadataPlanName: req.PlanName,
	}
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
		AllowPromotionCodes:      stripe.Bool(true),
		CustomerEmail:            stripe.String(req.Email),
		SuccessURL:               stripe.String(req.SuccessURL),
		CancelURL:                stripe.String(req.CancelURL),
		Metadata:                 metadata,
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	params.Context = ctx

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, errors.Join(ErrProvider, err)
	}
	if sess.URL == "" {
		return nil, ErrNoCheckoutURL
	}
	return sessionFromStripe(sess), nil
}

// GetCheckoutSession fetches a Checkout session.
func (p *StripeProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, errors.Join(ErrProvider, err)
	}
	return sessionFromStripe(sess), nil
}

// GetSubscription fetches a subscription.
func (p *StripeProvider) GetSubscription(ctx context.Context, subscriptionID string) (*Snapshot, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := p.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, errors.Join(ErrProvider, err)
	}
	return snapshotFromStripe(sub), nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
// API version mismatches between the account and the library are tolerated.
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*Event, error) {
	if signature == "" {
		return nil, errors.Join(ErrSignatureInvalid, errors.New("missing signature header"))
	}

	evt, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return nil, errors.Join(ErrSignatureInvalid, err)
	}

	out := &Event{
		ID:      evt.ID,
		Type:    string(evt.Type),
		Kind:    EventIgnored,
		Created: time.Unix(evt.Created, 0).UTC(),
	}
	if evt.Data == nil {
		return out, nil
	}

	switch evt.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &sess); err != nil {
			return nil, errors.Join(ErrInvalidPayload, err)
		}
		out.Kind = EventCheckoutCompleted
		out.Session = sessionFromStripe(&sess)
	case "customer.subscription.created",
		"customer.subscription.updated",
		"customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(evt.Data.Raw, &sub); err != nil {
			return nil, errors.Join(ErrInvalidPayload, err)
		}
		out.Kind = EventSubscriptionUpdated
		if evt.Type == "customer.subscription.deleted" {
			out.Kind = EventSubscriptionDeleted
		}
		out.Subscription = snapshotFromStripe(&sub)
	}
	return out, nil
}

func sessionFromStripe(sess *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:       sess.ID,
		URL:      sess.URL,
		Paid:     sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		UserID:   sess.Metadata[MetadataUserID],
		PlanName: sess.Metadata[MetadataPlanName],
	}
	if sess.Customer != nil {
		out.CustomerID = sess.Customer.ID
	}
	if sess.Subscription != nil {
		out.SubscriptionID = sess.Subscription.ID
	}
	return out
}

func snapshotFromStripe(sub *stripe.Subscription) *Snapshot {
	out := &Snapshot{
		SubscriptionID:    sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		UserID:            sub.Metadata[MetadataUserID],
		PlanName:          sub.Metadata[MetadataPlanName],
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.CurrentPeriodEnd > 0 {
		out.CurrentPeriodEnd = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	}
	return out
}
