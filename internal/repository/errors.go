package repository

import "errors"

// Store-level failures. Implementations wrap these so callers can match with errors.Is.
var (
	ErrItemNotFound        = errors.New("item not found")
	ErrItemExists          = errors.New("item already exists")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrInvalidQuery        = errors.New("invalid query")
	ErrValueFormat         = errors.New("value format")
	ErrNoSuchNodeType      = errors.New("no such node type")
)
