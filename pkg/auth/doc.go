// Package auth authenticates API requests with session tokens issued by the
// external identity provider.
//
// Verifier checks RS256 tokens against the provider's JWKS (issuer, expiry
// and, when configured, audience) and returns the Identity carried by the
// token: the user id from "sub" and, when the session token template adds
// it, the email from "email". Directory resolves the email through the
// provider's backend API for tokens that do not carry one.
// Middleware enforces a bearer token on a route group and makes the Identity
// available through IdentityFromContext.
package auth
