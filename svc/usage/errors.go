package usage

import "errors"

var (
	// ErrLimitExceeded is returned by Consume when today's quota is used up.
	ErrLimitExceeded = errors.New("daily analysis limit reached")
	// ErrInfrastructure wraps counter store and plan lookup failures.
	ErrInfrastructure = errors.New("usage: infrastructure failure")
	// ErrMissingUserID is returned when the user id is empty.
	ErrMissingUserID = errors.New("usage: user id is required")
)
