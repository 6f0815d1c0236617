package plan

import "errors"

var (
	ErrInvalidCatalog = errors.New("invalid plan catalog")
	ErrUnknownPrice   = errors.New("unknown price id")
)
