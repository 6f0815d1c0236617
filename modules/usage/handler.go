package usage

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/medisage/handler"
	"github.com/dmitrymomot/medisage/pkg/auth"
	"github.com/dmitrymomot/medisage/svc/usage"
)

// Limiter is the quota API used by the module. usage.Limiter implements it.
type Limiter interface {
	Check(ctx context.Context, userID string) (usage.Result, error)
	Consume(ctx context.Context, userID string) (usage.Result, error)
}

// LimitResponse is the JSON body of both endpoints.
type LimitResponse struct {
	Allowed   bool   `json:"allowed"`
	Remaining int    `json:"remaining"`
	Total     int    `json:"total"`
	PlanName  string `json:"planName"`
	Error     string `json:"error,omitempty"`
}

// Handler serves the analysis quota endpoints.
type Handler struct {
	limiter      Limiter
	errorHandler handler.ErrorHandler
}

// NewHandler creates a Handler.
func NewHandler(limiter Limiter, log *slog.Logger) *Handler {
	return &Handler{
		limiter: limiter,
		errorHandler: handler.NewErrorHandler(log,
			handler.ErrorMapping{Err: usage.ErrMissingUserID, Status: http.StatusUnauthorized, Message: "Unauthorized"},
		),
	}
}

// Handle returns the module router. Mount it behind auth.Middleware.
//
//	r.Mount("/api/analysis-limit", usagemod.NewHandler(limiter, log).Handle())
func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Get("/", handler.Wrap(h.check, handler.WithErrorHandler[struct{}](h.errorHandler)))
	r.Post("/", handler.Wrap(h.consume, handler.WithErrorHandler[struct{}](h.errorHandler)))
	return r
}

func (h *Handler) check(ctx handler.Context, _ struct{}) handler.Response {
	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		return handler.Error(handler.ErrUnauthorized)
	}

	res, err := h.limiter.Check(ctx, userID)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(toResponse(res))
}

func (h *Handler) consume(ctx handler.Context, _ struct{}) handler.Response {
	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		return handler.Error(handler.ErrUnauthorized)
	}

	res, err := h.limiter.Consume(ctx, userID)
	switch {
	case errors.Is(err, usage.ErrLimitExceeded):
		body := toResponse(res)
		body.Allowed = false
		body.Remaining = 0
		body.Error = "Daily analysis limit reached"
		return handler.JSON(body, handler.WithStatus(http.StatusTooManyRequests))
	case err != nil:
		return handler.Error(err)
	}
	return handler.JSON(toResponse(res))
}

func toResponse(res usage.Result) LimitResponse {
	return LimitResponse{
		Allowed:   res.Allowed,
		Remaining: res.Remaining,
		Total:     res.Total,
		PlanName:  res.PlanName,
	}
}
