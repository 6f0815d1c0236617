package billing

import (
	"context"
	"time"
)

// Provider is the subset of the payment provider used by the service.
// Implementations verify webhook signatures themselves and return
// provider-neutral values.
type Provider interface {
	// CreateCheckoutSession starts a hosted subscription checkout.
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// GetCheckoutSession fetches a checkout session by id.
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	// GetSubscription fetches the current state of a subscription.
	GetSubscription(ctx context.Context, subscriptionID string) (*Snapshot, error)
	// ParseWebhook verifies the signature header and decodes the event.
	// A bad or missing signature returns ErrSignatureInvalid.
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

// CheckoutRequest contains data needed to create a checkout session.
type CheckoutRequest struct {
	PriceID    string
	Email      string
	UserID     string // stored in session and subscription metadata
	PlanName   string // stored in session and subscription metadata
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is a provider checkout session.
type CheckoutSession struct {
	ID             string
	URL            string
	Paid           bool
	UserID         string // from metadata, may be empty
	PlanName       string // from metadata, may be empty
	CustomerID     string
	SubscriptionID string
}

// Snapshot is the provider's view of a subscription at one point in time.
type Snapshot struct {
	SubscriptionID    string
	CustomerID        string
	Status            string
	CurrentPeriodEnd  time.Time
	CancelAtPeriodEnd bool
	UserID            string // from metadata, may be empty
	PlanName          string // from metadata, may be empty
}

// Active reports whether the provider considers the subscription active.
func (s Snapshot) Active() bool {
	return s.Status == StatusActive
}

// Subscription statuses used by the service.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusCanceled = "canceled"
)

// EventKind is the normalized webhook event kind.
type EventKind string

const (
	EventCheckoutCompleted   EventKind = "checkout_completed"
	EventSubscriptionUpdated EventKind = "subscription_updated"
	EventSubscriptionDeleted EventKind = "subscription_deleted"
	EventIgnored             EventKind = "ignored"
)

// Event is a verified webhook event. Session is set for
// EventCheckoutCompleted, Subscription for the subscription kinds.
type Event struct {
	ID           string
	Type         string // provider event name
	Kind         EventKind
	Created      time.Time
	Session      *CheckoutSession
	Subscription *Snapshot
}
