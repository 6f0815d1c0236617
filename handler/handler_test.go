package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/medisage/handler"
)

type createRequest struct {
	Name  string   `json:"name" validate:"required"`
	Age   int      `json:"age" validate:"min=1,max=120"`
	Items []string `json:"items" validate:"min=1"`
}

var errDomain = errors.New("domain failure")

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body handler.ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func TestWrap(t *testing.T) {
	t.Parallel()

	errs := handler.NewErrorHandler(nil,
		handler.ErrorMapping{Err: errDomain, Status: http.StatusConflict},
	)
	h := handler.Wrap(func(ctx handler.Context, req createRequest) handler.Response {
		if req.Name == "fail" {
			return handler.Error(errors.Join(errDomain, errors.New("cause")))
		}
		if req.Name == "boom" {
			return handler.Error(errors.New("database password leaked"))
		}
		return handler.JSON(map[string]any{"name": req.Name}, handler.WithStatus(http.StatusCreated))
	},
		handler.WithBinders[createRequest](handler.JSONBody(handler.NewValidator())),
		handler.WithErrorHandler[createRequest](errs),
	)

	tests := []struct {
		name     string
		body     string
		status   int
		contains string
	}{
		{name: "success", body: `{"name":"ann","age":30,"items":["a"]}`, status: http.StatusCreated, contains: `"name":"ann"`},
		{name: "malformed json", body: `{`, status: http.StatusBadRequest, contains: "invalid request body"},
		{name: "empty body", body: ``, status: http.StatusBadRequest, contains: "invalid request body"},
		{name: "validation", body: `{"name":"","age":0,"items":[]}`, status: http.StatusBadRequest, contains: "age: must be at least 1"},
		{name: "mapped error", body: `{"name":"fail","age":30,"items":["a"]}`, status: http.StatusConflict, contains: "domain failure"},
		{name: "server error hides cause", body: `{"name":"boom","age":30,"items":["a"]}`, status: http.StatusInternalServerError, contains: "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.contains)
			assert.NotContains(t, rec.Body.String(), "password")
		})
	}
}

func TestWrap_NilResponse(t *testing.T) {
	t.Parallel()

	h := handler.Wrap(func(handler.Context, struct{}) handler.Response { return nil })
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decodeError(t, rec))
}

func TestWrap_Decorators(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) handler.Decorator[struct{}] {
		return func(next handler.HandlerFunc[struct{}]) handler.HandlerFunc[struct{}] {
			return func(ctx handler.Context, req struct{}) handler.Response {
				order = append(order, name)
				return next(ctx, req)
			}
		}
	}

	h := handler.Wrap(func(handler.Context, struct{}) handler.Response { return handler.Empty() },
		handler.WithDecorators(mark("outer"), mark("inner")),
	)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestResponses(t *testing.T) {
	t.Parallel()

	t.Run("raw", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		require.NoError(t, handler.Raw(http.StatusOK, "application/json", []byte(`{"a":1}`)).Render(rec, nil))
		assert.Equal(t, `{"a":1}`, rec.Body.String())
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	})

	t.Run("empty with status", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		require.NoError(t, handler.EmptyWithStatus(http.StatusOK).Render(rec, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{name: "http error", err: handler.ErrUnauthorized, status: http.StatusUnauthorized, message: "Unauthorized"},
		{name: "wrapped http error", err: errors.Join(handler.ErrForbidden, errors.New("tier")), status: http.StatusForbidden, message: "Forbidden"},
		{name: "mapping with message", err: errDomain, status: http.StatusTooManyRequests, message: "slow down"},
		{name: "unknown", err: errors.New("x"), status: http.StatusInternalServerError, message: "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			info := handler.Classify(tt.err, handler.ErrorMapping{Err: errDomain, Status: http.StatusTooManyRequests, Message: "slow down"})
			assert.Equal(t, tt.status, info.StatusCode)
			assert.Equal(t, tt.message, info.Message)
		})
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := handler.NewValidationError()
	assert.True(t, err.IsEmpty())
	assert.Equal(t, "Validation failed", err.Error())

	err.Add("symptoms", "is required")
	err.Add("age", "must be at least 1")
	assert.True(t, err.Has("age"))
	assert.Equal(t, "is required", err.Get("symptoms"))
	assert.Equal(t, "validation error: age: must be at least 1, symptoms: is required", err.Error())
}
