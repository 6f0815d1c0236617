package handler

import (
	"errors"
	"net/http"
)

var (
	// ErrNilResponse indicates a handler returned nil instead of a Response.
	ErrNilResponse = errors.New("handler returned nil response")
	// ErrInvalidBody indicates a request body that could not be decoded.
	ErrInvalidBody = errors.New("invalid request body")
)

// HTTPError is an error with a fixed status code and client-facing message.
type HTTPError struct {
	Code    int
	Message string
}

func (e HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates an HTTPError.
func NewHTTPError(code int, message string) HTTPError {
	return HTTPError{Code: code, Message: message}
}

var (
	ErrBadRequest          = HTTPError{Code: http.StatusBadRequest, Message: "Bad request"}
	ErrUnauthorized        = HTTPError{Code: http.StatusUnauthorized, Message: "Unauthorized"}
	ErrForbidden           = HTTPError{Code: http.StatusForbidden, Message: "Forbidden"}
	ErrNotFound            = HTTPError{Code: http.StatusNotFound, Message: "Not found"}
	ErrTooManyRequests     = HTTPError{Code: http.StatusTooManyRequests, Message: "Too many requests"}
	ErrInternalServerError = HTTPError{Code: http.StatusInternalServerError, Message: "Internal server error"}
	ErrBadGateway          = HTTPError{Code: http.StatusBadGateway, Message: "Bad gateway"}
)
