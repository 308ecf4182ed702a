package cart

import "errors"

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrInvalidPrice    = errors.New("unit price must not be negative")
	ErrLineNotFound    = errors.New("cart line not found")
	ErrDuplicateLine   = errors.New("duplicate cart line id")
	ErrEmptyLineID     = errors.New("cart line id is required")
)
