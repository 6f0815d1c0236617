package analysis

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dmitrymomot/medisage/handler"
	"github.com/dmitrymomot/medisage/pkg/auth"
	"github.com/dmitrymomot/medisage/svc/analysis"
	"github.com/dmitrymomot/medisage/svc/usage"
)

// Analyses is the analysis API used by the module. analysis.Service
// implements it.
type Analyses interface {
	Traditional(ctx context.Context, userID string, req analysis.TraditionalRequest) (json.RawMessage, error)
	BodyBased(ctx context.Context, userID string, req analysis.BodyRequest) (json.RawMessage, error)
}

// Handler serves the analysis endpoints.
type Handler struct {
	analyses     Analyses
	validate     *validator.Validate
	errorHandler handler.ErrorHandler
}

// NewHandler creates a Handler.
func NewHandler(analyses Analyses, log *slog.Logger) *Handler {
	return &Handler{
		analyses: analyses,
		validate: handler.NewValidator(),
		errorHandler: handler.NewErrorHandler(log,
			handler.ErrorMapping{Err: analysis.ErrBodyAnalysisNotAllowed, Status: http.StatusForbidden, Message: "Body analysis requires the Clinical plan. Upgrade to continue."},
			handler.ErrorMapping{Err: usage.ErrLimitExceeded, Status: http.StatusTooManyRequests, Message: "Daily analysis limit reached"},
			handler.ErrorMapping{Err: usage.ErrMissingUserID, Status: http.StatusUnauthorized, Message: "Unauthorized"},
			handler.ErrorMapping{Err: analysis.ErrUpstream, Status: http.StatusBadGateway, Message: "Analysis service unavailable"},
			handler.ErrorMapping{Err: analysis.ErrInvalidResponse, Status: http.StatusBadGateway, Message: "Analysis service returned an invalid response"},
		),
	}
}

// Handle returns the module router. Mount it behind auth.Middleware.
func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Post("/traditional", handler.Wrap(h.traditional,
		handler.WithBinders[analysis.TraditionalRequest](handler.JSONBody(h.validate)),
		handler.WithErrorHandler[analysis.TraditionalRequest](h.errorHandler),
	))
	r.Post("/body-based", handler.Wrap(h.bodyBased,
		handler.WithBinders[analysis.BodyRequest](handler.JSONBody(h.validate)),
		handler.WithErrorHandler[analysis.BodyRequest](h.errorHandler),
	))
	return r
}

func (h *Handler) traditional(ctx handler.Context, req analysis.TraditionalRequest) handler.Response {
	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		return handler.Error(handler.ErrUnauthorized)
	}
	out, err := h.analyses.Traditional(ctx, userID, req)
	if err != nil {
		return handler.Error(err)
	}
	return handler.Raw(http.StatusOK, "application/json; charset=utf-8", out)
}

func (h *Handler) bodyBased(ctx handler.Context, req analysis.BodyRequest) handler.Response {
	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		return handler.Error(handler.ErrUnauthorized)
	}
	out, err := h.analyses.BodyBased(ctx, userID, req)
	if err != nil {
		return handler.Error(err)
	}
	return handler.Raw(http.StatusOK, "application/json; charset=utf-8", out)
}
