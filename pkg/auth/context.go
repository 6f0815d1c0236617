package auth

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/medisage/pkg/logger"
)

type contextKey struct{ name string }

func (c contextKey) String() string { return c.name }

var identityContextKey = &contextKey{name: "auth_identity"}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext returns the identity set by Middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(Identity)
	return id, ok && id.UserID != ""
}

// UserIDFromContext returns the authenticated user id or "".
func UserIDFromContext(ctx context.Context) string {
	id, _ := IdentityFromContext(ctx)
	return id.UserID
}

// LoggerExtractor adds the authenticated user id to log records.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if userID := UserIDFromContext(ctx); userID != "" {
			return logger.UserID(userID), true
		}
		return slog.Attr{}, false
	}
}
