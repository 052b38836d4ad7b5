// Package apperr defines the error kinds surfaced by the IAMS core and their
// HTTP mapping. Every submission and listing handler maps failures to one of
// these kinds; nothing else escapes a handler.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies an error for transport and recovery policy.
type Kind string

const (
	KindValidation           Kind = "validation"
	KindCatalogMissing       Kind = "catalog_missing"
	KindReferentialIntegrity Kind = "referential_integrity"
	KindTransient            Kind = "transient"
	KindConflict             Kind = "conflict"
	KindConfirmationMismatch Kind = "delete_confirmation_mismatch"
	KindNotFound             Kind = "not_found"
	KindInternal             Kind = "internal"
)

// Error carries a kind alongside the underlying cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an existing error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Validation is shorthand for a KindValidation error.
func Validation(format string, args ...any) *Error {
	return Newf(KindValidation, format, args...)
}

// KindOf extracts the kind from an error chain. Unclassified errors are
// KindInternal, except context deadline and network failures which are
// treated as transient per the recovery policy.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if IsTransient(err) {
		return KindTransient
	}
	return KindInternal
}

// IsTransient reports whether err looks like a timeout or lost connection,
// i.e. the caller should retry rather than fix the request.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var ae *Error
	if errors.As(err, &ae) && ae.Kind == KindTransient {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// HTTPStatus maps an error kind to the status code written by handlers.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindReferentialIntegrity, KindConfirmationMismatch:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindCatalogMissing:
		return http.StatusUnprocessableEntity
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
