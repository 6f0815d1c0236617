// Package handler provides typed HTTP handlers for the JSON API.
//
// Wrap turns a HandlerFunc[R] into an http.HandlerFunc: binders populate the
// request value (JSONBody decodes and validates it), the handler returns a
// Response (JSON, Empty, Raw or Error), and any failure is passed to the
// ErrorHandler, which classifies it into a status code and writes
// {"error": "..."}.
//
// Domain packages keep their own sentinel errors; modules translate them to
// status codes with ErrorMapping values passed to NewErrorHandler:
//
//	errs := handler.NewErrorHandler(log,
//		handler.ErrorMapping{Err: usage.ErrLimitExceeded, Status: http.StatusTooManyRequests},
//	)
package handler
