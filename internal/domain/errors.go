package domain

import (
	"errors"
	"strings"
)

// Error kinds
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrUnsupportedType = errors.New("unsupported property type")
	ErrStore           = errors.New("store error")
	ErrPartialFailure  = errors.New("partial failure")
	ErrEmptyRequest    = errors.New("empty request")
)

// Error is the error returned by explorer operations
type Error struct {
	Kind    error
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	var msg strings.Builder
	if e.Op != "" {
		msg.WriteString(e.Op)
		msg.WriteString(": ")
	}
	if e.Message != "" {
		msg.WriteString(e.Message)
	} else if e.Kind != nil {
		msg.WriteString(e.Kind.Error())
	}
	if e.Err != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Err.Error())
	}
	return msg.String()
}

// Is matches the error kind
func (e *Error) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Invalid builds an ErrInvalidArgument error
func Invalid(op, message string) error {
	return &Error{Kind: ErrInvalidArgument, Op: op, Message: message}
}

// NotFound builds an ErrNotFound error
func NotFound(op, message string, cause error) error {
	return &Error{Kind: ErrNotFound, Op: op, Message: message, Err: cause}
}

// Unsupported builds an ErrUnsupportedType error
func Unsupported(op string, t PropertyType) error {
	return &Error{Kind: ErrUnsupportedType, Op: op, Message: "unsupported property type: " + string(t)}
}

// StoreFailure wraps a failure surfaced by the store
func StoreFailure(op, message string, cause error) error {
	return &Error{Kind: ErrStore, Op: op, Message: message, Err: cause}
}

// KindOf returns the kind of err, or nil when err is not an explorer error
func KindOf(err error) error {
	for _, kind := range []error{
		ErrInvalidArgument, ErrNotFound, ErrUnsupportedType,
		ErrEmptyRequest, ErrPartialFailure, ErrStore,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// KindName returns a short identifier for the kind of err
func KindName(err error) string {
	switch KindOf(err) {
	case ErrInvalidArgument:
		return "invalid_argument"
	case ErrNotFound:
		return "not_found"
	case ErrUnsupportedType:
		return "unsupported_type"
	case ErrEmptyRequest:
		return "empty_request"
	case ErrPartialFailure:
		return "partial_failure"
	case ErrStore:
		return "store_error"
	}
	return "internal"
}
