package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/medisage/pkg/logger"
)

// TokenVerifier validates a raw session token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// Middleware rejects requests without a valid bearer token with 401 and
// stores the Identity in the request context otherwise.
func Middleware(v TokenVerifier, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Noop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r)
			if err == nil {
				var id Identity
				id, err = v.Verify(r.Context(), token)
				if err == nil {
					next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
					return
				}
			}

			log.WarnContext(r.Context(), "unauthorized request",
				logger.Error(err),
				slog.String("path", r.URL.Path),
				logger.Component("auth"),
			)
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized"}` + "\n"))
		})
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
