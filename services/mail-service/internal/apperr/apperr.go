// Package apperr defines the failure kinds the mail core reports to its
// callers and how each one maps to an HTTP status.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	// Internal is anything not covered by a more specific kind.
	Internal Kind = iota
	// InvalidInput is a missing or malformed request field. No network call was made.
	InvalidInput
	// NotFound is an empty thread or an attachment that could not be resolved.
	NotFound
	// Provider means the mail provider answered with a non-success status.
	Provider
	// Unavailable means no response was received from the provider.
	Unavailable
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case NotFound:
		return "not_found"
	case Provider:
		return "provider_error"
	case Unavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error carries a Kind plus, for provider errors, the upstream status and body.
type Error struct {
	Kind    Kind
	Status  int    // upstream HTTP status, Provider kind only
	Message string // safe to show to the caller
	Body    string // upstream body, verbatim
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus is the status a handler should answer with.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case InvalidInput:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Provider:
		if e.Status >= 400 {
			return e.Status
		}
		return http.StatusBadGateway
	case Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func Invalid(message string) *Error {
	return &Error{Kind: InvalidInput, Message: message}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: NotFound, Message: fmt.Sprintf(format, args...)}
}

// FromProvider builds a Provider error that keeps the upstream status and body.
func FromProvider(status int, body string, err error) *Error {
	return &Error{Kind: Provider, Status: status, Message: "API error", Body: body, Err: err}
}

func Unreachable(err error) *Error {
	return &Error{Kind: Unavailable, Message: "Service unavailable.", Err: err}
}

func Wrap(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: Internal, Message: "An unexpected error occurred.", Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, Internal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}
