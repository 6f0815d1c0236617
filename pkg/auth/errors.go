package auth

import "errors"

var (
	ErrMissingIssuer  = errors.New("auth: issuer is required")
	ErrJWKS           = errors.New("auth: failed to initialize JWKS")
	ErrMissingToken   = errors.New("auth: missing bearer token")
	ErrInvalidToken   = errors.New("auth: invalid token")
	ErrMissingSubject = errors.New("auth: token missing subject")
	ErrNoIdentity     = errors.New("auth: no identity in context")

	ErrMissingSecretKey = errors.New("auth: secret key is required")
	ErrUserLookup       = errors.New("auth: user lookup failed")
	ErrUserNotFound     = errors.New("auth: user not found")
)
