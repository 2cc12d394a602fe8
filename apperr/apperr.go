package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error so handlers can map it to an HTTP status
// without inspecting message text.
type Kind string

const (
	KindValidation              Kind = "VALIDATION_ERROR"
	KindNotFound                Kind = "NOT_FOUND"
	KindInsufficientStock       Kind = "INSUFFICIENT_STOCK"
	KindInsufficientIngredients Kind = "INSUFFICIENT_INGREDIENTS"
	KindConflict                Kind = "CONFLICT"
	KindAuthorization           Kind = "AUTHORIZATION_ERROR"
	KindExternalVerification    Kind = "EXTERNAL_VERIFICATION_ERROR"
	KindInternal                Kind = "INTERNAL_ERROR"
)

// Error is a structured failure carrying a kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from an error chain, defaulting to internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error kind to its HTTP status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInsufficientStock, KindInsufficientIngredients:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	case KindAuthorization:
		return http.StatusForbidden
	case KindExternalVerification:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
