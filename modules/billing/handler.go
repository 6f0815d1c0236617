package billing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dmitrymomot/medisage/handler"
	"github.com/dmitrymomot/medisage/pkg/auth"
	"github.com/dmitrymomot/medisage/pkg/billing"
	"github.com/dmitrymomot/medisage/pkg/logger"
	"github.com/dmitrymomot/medisage/pkg/plan"
	"github.com/dmitrymomot/medisage/svc/subscription"
)

// MaxWebhookBodySize bounds webhook payloads.
const MaxWebhookBodySize = 1 << 20

// SignatureHeader carries the provider's webhook signature.
const SignatureHeader = "Stripe-Signature"

// Subscriptions is the subscription API used by the module.
// subscription.Service implements it.
type Subscriptions interface {
	EffectivePlan(ctx context.Context, userID, sessionID string) (subscription.Status, error)
	CreateCheckout(ctx context.Context, in subscription.CheckoutInput) (*billing.CheckoutSession, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// EmailLookup resolves a user's email when the session token lacks one.
// auth.Directory implements it.
type EmailLookup interface {
	Email(ctx context.Context, userID string) (string, error)
}

// StatusResponse is the body of GET /subscription-status.
type StatusResponse struct {
	PlanName          string     `json:"planName"`
	Status            string     `json:"status"`
	ExpiryDate        *time.Time `json:"expiryDate"`
	CancelAtPeriodEnd *bool      `json:"cancelAtPeriodEnd,omitempty"`
}

// CheckoutRequest is the body of POST /checkout-session. PlanName is
// accepted for compatibility; the tier always comes from the price.
type CheckoutRequest struct {
	PriceID  string `json:"priceId" validate:"required"`
	PlanName string `json:"planName"`
}

// CheckoutResponse is the body returned for a created checkout.
type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// Handler serves subscription status, checkout and webhook endpoints.
type Handler struct {
	subs         Subscriptions
	emails       EmailLookup
	validate     *validator.Validate
	log          *slog.Logger
	errorHandler handler.ErrorHandler
}

// Option configures Handler.
type Option func(*Handler)

// WithEmailLookup sets the fallback used by checkout for tokens without an
// email claim.
func WithEmailLookup(l EmailLookup) Option {
	return func(h *Handler) { h.emails = l }
}

// NewHandler creates a Handler.
func NewHandler(subs Subscriptions, log *slog.Logger, opts ...Option) *Handler {
	if log == nil {
		log = logger.Noop()
	}
	h := &Handler{
		subs:     subs,
		validate: handler.NewValidator(),
		log:      log,
		errorHandler: handler.NewErrorHandler(log,
			handler.ErrorMapping{Err: subscription.ErrMissingEmail, Status: http.StatusBadRequest, Message: "No email address found"},
			handler.ErrorMapping{Err: plan.ErrUnknownPrice, Status: http.StatusBadRequest, Message: "Invalid price"},
		),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle returns the authenticated routes. Mount it behind auth.Middleware.
func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Get("/subscription-status", handler.Wrap(h.status,
		handler.WithErrorHandler[struct{}](h.errorHandler),
	))
	r.Post("/checkout-session", handler.Wrap(h.checkout,
		handler.WithBinders[CheckoutRequest](handler.JSONBody(h.validate)),
		handler.WithErrorHandler[CheckoutRequest](h.errorHandler),
	))
	return r
}

// Webhook returns the provider webhook endpoint. It authenticates requests
// by signature only and must not sit behind auth.Middleware.
func (h *Handler) Webhook() http.Handler {
	return handler.Wrap(h.webhook, handler.WithErrorHandler[struct{}](webhookErrorHandler(h.log)))
}

func (h *Handler) status(ctx handler.Context, _ struct{}) handler.Response {
	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		return handler.Error(handler.ErrUnauthorized)
	}

	st, err := h.subs.EffectivePlan(ctx, userID, ctx.Request().URL.Query().Get("session_id"))
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(StatusResponse{
		PlanName:          st.PlanName,
		Status:            st.Status,
		ExpiryDate:        st.ExpiryDate,
		CancelAtPeriodEnd: st.CancelAtPeriodEnd,
	})
}

func (h *Handler) checkout(ctx handler.Context, req CheckoutRequest) handler.Response {
	id, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return handler.Error(handler.ErrUnauthorized)
	}

	email, err := h.email(ctx, id)
	if err != nil {
		return handler.Error(err)
	}

	sess, err := h.subs.CreateCheckout(ctx, subscription.CheckoutInput{
		UserID:  id.UserID,
		Email:   email,
		PriceID: req.PriceID,
	})
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(CheckoutResponse{SessionID: sess.ID, URL: sess.URL})
}

// email prefers the token claim and falls back to the identity provider.
// An unknown user resolves to "" so checkout reports the missing email.
func (h *Handler) email(ctx context.Context, id auth.Identity) (string, error) {
	if id.Email != "" || h.emails == nil {
		return id.Email, nil
	}
	email, err := h.emails.Email(ctx, id.UserID)
	if errors.Is(err, auth.ErrUserNotFound) {
		return "", nil
	}
	return email, err
}

func (h *Handler) webhook(ctx handler.Context, _ struct{}) handler.Response {
	r := ctx.Request()
	payload, err := io.ReadAll(io.LimitReader(r.Body, MaxWebhookBodySize))
	if err != nil {
		return handler.Error(errors.Join(handler.ErrInvalidBody, err))
	}

	if err := h.subs.HandleWebhook(ctx, payload, r.Header.Get(SignatureHeader)); err != nil {
		return handler.Error(err)
	}
	return handler.EmptyWithStatus(http.StatusOK)
}

// webhookErrorHandler answers every failure with 400 so the provider
// redelivers the event.
func webhookErrorHandler(log *slog.Logger) handler.ErrorHandler {
	render := handler.NewErrorHandler(log)
	return func(ctx handler.Context, err error) {
		render(ctx, errors.Join(handler.NewHTTPError(http.StatusBadRequest, webhookMessage(err)), err))
	}
}

func webhookMessage(err error) string {
	switch {
	case errors.Is(err, billing.ErrSignatureInvalid):
		return "Webhook Error: invalid signature"
	case errors.Is(err, billing.ErrInvalidPayload), errors.Is(err, handler.ErrInvalidBody):
		return "Webhook Error: invalid payload"
	case errors.Is(err, subscription.ErrMissingMetadata):
		return "Webhook Error: " + subscription.ErrMissingMetadata.Error()
	default:
		return "Webhook Error: processing failed"
	}
}
