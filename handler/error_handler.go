package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/medisage/pkg/logger"
	"github.com/dmitrymomot/medisage/pkg/requestid"
)

// ErrorMapping binds a sentinel error to a status code. When Message is
// empty the sentinel's own text is shown to the client.
type ErrorMapping struct {
	Err     error
	Status  int
	Message string
}

// ErrorInfo is the classified form of an error.
type ErrorInfo struct {
	StatusCode int
	Message    string
	LogLevel   slog.Level
}

// ErrorBody is the JSON body written for failed requests.
type ErrorBody struct {
	Error string `json:"error"`
}

func isClientError(status int) bool {
	return status >= http.StatusBadRequest && status < http.StatusInternalServerError
}

// Classify resolves err into a status code and message. HTTPError and
// ValidationError take precedence over mappings; mappings are matched in
// order with errors.Is. Server errors never leak the underlying message.
func Classify(err error, mappings ...ErrorMapping) ErrorInfo {
	info := ErrorInfo{
		StatusCode: http.StatusInternalServerError,
		Message:    "Internal server error",
	}

	var (
		httpErr HTTPError
		valErr  ValidationError
	)
	switch {
	case errors.As(err, &valErr):
		info.StatusCode = http.StatusBadRequest
		info.Message = valErr.Error()
	case errors.Is(err, ErrInvalidBody):
		info.StatusCode = http.StatusBadRequest
		info.Message = ErrInvalidBody.Error()
	case errors.As(err, &httpErr):
		info.StatusCode = httpErr.Code
		info.Message = httpErr.Message
	default:
		for _, m := range mappings {
			if errors.Is(err, m.Err) {
				info.StatusCode = m.Status
				info.Message = m.Message
				if info.Message == "" {
					info.Message = m.Err.Error()
				}
				break
			}
		}
	}

	info.LogLevel = slog.LevelError
	if isClientError(info.StatusCode) {
		info.LogLevel = slog.LevelWarn
	}
	return info
}

// NewErrorHandler returns an ErrorHandler that logs the failure and writes
// {"error": "..."} with the classified status.
func NewErrorHandler(log *slog.Logger, mappings ...ErrorMapping) ErrorHandler {
	if log == nil {
		log = logger.Noop()
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		info := Classify(err, mappings...)

		log.LogAttrs(r.Context(), info.LogLevel, "request error",
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(err),
			slog.Int("status_code", info.StatusCode),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("error_handler"),
		)

		w := ctx.ResponseWriter()
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(info.StatusCode)
		_ = json.NewEncoder(w).Encode(ErrorBody{Error: info.Message})
	}
}
