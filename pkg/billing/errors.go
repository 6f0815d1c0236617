package billing

import "errors"

var (
	ErrMissingAPIKey        = errors.New("billing provider API key is required")
	ErrMissingWebhookSecret = errors.New("billing provider webhook secret is required")
	ErrSignatureInvalid     = errors.New("webhook signature verification failed")
	ErrInvalidPayload       = errors.New("invalid webhook payload")
	ErrMissingPriceID       = errors.New("price ID is required")
	ErrMissingEmail         = errors.New("customer email is required")
	ErrNoCheckoutURL        = errors.New("no checkout URL returned from provider")
	ErrProvider             = errors.New("billing provider error")
)
