package subscription

import "errors"

var (
	// ErrNotFound is returned by stores when no live record exists.
	ErrNotFound = errors.New("subscription not found")
	// ErrMissingMetadata marks provider events that cannot be mapped to a user.
	ErrMissingMetadata = errors.New("missing userId in metadata")
	// ErrInfrastructure wraps store and provider failures.
	ErrInfrastructure = errors.New("subscription: infrastructure failure")
	// ErrMissingEmail is returned when checkout is requested without an email.
	ErrMissingEmail = errors.New("user email is required")
	// ErrCheckoutNotSettled means a checkout session cannot be reconciled:
	// it was not found, is unpaid, has no subscription or belongs to someone else.
	ErrCheckoutNotSettled = errors.New("checkout session not settled")

	// errSuperseded marks an event for a subscription the live record no
	// longer references. Such events are acknowledged without effect.
	errSuperseded = errors.New("subscription superseded")
)
