package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxJSONBodySize bounds JSON request bodies.
const MaxJSONBodySize = 1 << 20

// NewValidator returns a validator that reports fields by their json names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// JSONBody decodes the request body as JSON and, when v is not nil,
// validates the result. Decoding failures wrap ErrInvalidBody; validation
// failures are returned as ValidationError.
func JSONBody(v *validator.Validate) Bind {
	return func(r *http.Request, dst any) error {
		if ct := r.Header.Get("Content-Type"); ct != "" {
			mediaType, _, err := mime.ParseMediaType(ct)
			if err != nil || mediaType != "application/json" {
				return errors.Join(ErrInvalidBody, fmt.Errorf("unsupported content type %q", ct))
			}
		}

		dec := json.NewDecoder(io.LimitReader(r.Body, MaxJSONBodySize))
		if err := dec.Decode(dst); err != nil {
			if errors.Is(err, io.EOF) {
				return errors.Join(ErrInvalidBody, errors.New("empty body"))
			}
			return errors.Join(ErrInvalidBody, err)
		}

		if v == nil {
			return nil
		}
		if err := v.Struct(dst); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				return toValidationError(verrs)
			}
			return errors.Join(ErrInvalidBody, err)
		}
		return nil
	}
}

func toValidationError(verrs validator.ValidationErrors) ValidationError {
	out := NewValidationError()
	for _, fe := range verrs {
		out.Add(fe.Field(), fieldMessage(fe))
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters long"
		}
		if fe.Kind() == reflect.Slice {
			return "must contain at least " + fe.Param() + " item(s)"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters long"
		}
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}
