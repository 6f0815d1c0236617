package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

const defaultLeeway = 30 * time.Second

// Identity is the authenticated user extracted from a session token.
type Identity struct {
	UserID    string
	Email     string
	SessionID string
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Email     string `json:"email,omitempty"`
	SessionID string `json:"sid,omitempty"`
}

// Verifier validates RS256 session tokens against the provider's JWKS.
type Verifier struct {
	keyfunc jwt.Keyfunc
	parser  *jwt.Parser
}

// VerifierOption configures Verifier.
type VerifierOption func(*Verifier)

// WithKeyfunc replaces JWKS key lookup. Used in tests with a static key.
func WithKeyfunc(kf jwt.Keyfunc) VerifierOption {
	return func(v *Verifier) {
		v.keyfunc = kf
	}
}

// NewVerifier builds a Verifier. Unless WithKeyfunc is given, the JWKS is
// fetched from cfg.JWKSURL and refreshed in the background for the
// lifetime of ctx.
func NewVerifier(ctx context.Context, cfg Config, opts ...VerifierOption) (*Verifier, error) {
	issuer := strings.TrimRight(strings.TrimSpace(cfg.Issuer), "/")
	if issuer == "" {
		return nil, ErrMissingIssuer
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithIssuer(issuer),
		jwt.WithLeeway(defaultLeeway),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name}),
	}
	if cfg.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(cfg.Audience))
	}

	v := &Verifier{parser: jwt.NewParser(parserOpts...)}
	for _, opt := range opts {
		opt(v)
	}

	if v.keyfunc == nil {
		jwksURL := cfg.JWKSURL
		if jwksURL == "" {
			jwksURL = issuer + "/.well-known/jwks.json"
		}
		k, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
		if err != nil {
			return nil, errors.Join(ErrJWKS, err)
		}
		v.keyfunc = k.Keyfunc
	}

	return v, nil
}

// Verify parses and validates a raw token.
func (v *Verifier) Verify(_ context.Context, token string) (Identity, error) {
	var claims sessionClaims
	if _, err := v.parser.ParseWithClaims(token, &claims, v.keyfunc); err != nil {
		return Identity{}, errors.Join(ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Identity{}, ErrMissingSubject
	}
	return Identity{
		UserID:    claims.Subject,
		Email:     claims.Email,
		SessionID: claims.SessionID,
	}, nil
}
