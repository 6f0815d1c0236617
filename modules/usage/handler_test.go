package usage_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	usagemod "github.com/dmitrymomot/medisage/modules/usage"
	"github.com/dmitrymomot/medisage/pkg/auth"
	"github.com/dmitrymomot/medisage/pkg/plan"
	"github.com/dmitrymomot/medisage/svc/usage"
)

type tierFunc func(ctx context.Context, userID string) (plan.Tier, error)

func (f tierFunc) Tier(ctx context.Context, userID string) (plan.Tier, error) { return f(ctx, userID) }

func newServer(t *testing.T, tier plan.Tier) http.Handler {
	t.Helper()
	now := func() time.Time { return time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC) }
	limiter := usage.NewLimiter(
		usage.NewMemoryStore(now),
		tierFunc(func(context.Context, string) (plan.Tier, error) { return tier, nil }),
		usage.WithClock(now),
	)
	return usagemod.NewHandler(limiter, nil).Handle()
}

func do(t *testing.T, h http.Handler, method, userID string) (*httptest.ResponseRecorder, usagemod.LimitResponse) {
	t.Helper()
	req := httptest.NewRequest(method, "/", nil)
	if userID != "" {
		req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: userID}))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body usagemod.LimitResponse
	if rec.Code != http.StatusUnauthorized {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHandler_ConsumeUntilExhausted(t *testing.T) {
	t.Parallel()

	h := newServer(t, plan.Basic)

	rec, body := do(t, h, http.MethodGet, "user_1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, usagemod.LimitResponse{Allowed: true, Remaining: 5, Total: 0, PlanName: "basic"}, body)

	for i := 1; i <= 5; i++ {
		rec, body = do(t, h, http.MethodPost, "user_1")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, body.Allowed)
		assert.Equal(t, 5-i, body.Remaining)
		assert.Equal(t, i, body.Total)
	}

	rec, body = do(t, h, http.MethodPost, "user_1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, usagemod.LimitResponse{
		Allowed:   false,
		Remaining: 0,
		Total:     5,
		PlanName:  "basic",
		Error:     "Daily analysis limit reached",
	}, body)

	rec, body = do(t, h, http.MethodGet, "user_1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, body.Allowed)
	assert.Equal(t, 5, body.Total)
}

func TestHandler_Unlimited(t *testing.T) {
	t.Parallel()

	h := newServer(t, plan.Professional)
	for range 10 {
		rec, body := do(t, h, http.MethodPost, "user_1")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, usagemod.LimitResponse{Allowed: true, Remaining: -1, Total: -1, PlanName: "professional"}, body)
	}
}

func TestHandler_Unauthorized(t *testing.T) {
	t.Parallel()

	h := newServer(t, plan.Basic)
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rec, _ := do(t, h, method, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, method)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
	}
}

func TestHandler_InfrastructureFailure(t *testing.T) {
	t.Parallel()

	limiter := usage.NewLimiter(usage.NewMemoryStore(nil), tierFunc(func(context.Context, string) (plan.Tier, error) {
		return "", assert.AnError
	}))
	h := usagemod.NewHandler(limiter, nil).Handle()

	rec, _ := do(t, h, http.MethodPost, "user_1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}
