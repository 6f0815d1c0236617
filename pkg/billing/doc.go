// Package billing talks to the payment provider.
//
// Provider is the provider-neutral surface used by the subscription service:
// hosted checkout creation, checkout session and subscription lookups, and
// webhook verification. StripeProvider implements it with stripe-go; events
// are verified against the endpoint secret before they are decoded, and a
// failed verification always yields ErrSignatureInvalid.
//
// The user id travels through the provider as metadata ("userId") on both the
// checkout session and the subscription it creates, so later subscription
// events can be mapped back to the user.
package billing
