// internal/apperr/apperr.go

// Package apperr defines the single error type used across contactform.
// Every failure a request can hit carries a Kind, and each Kind maps to
// exactly one HTTP status.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error by who caused it and how it is reported.
type Kind int

const (
	// Internal is the zero value; used for errors that were never tagged.
	Internal Kind = iota
	// Input is a malformed request body.
	Input
	// Missing is a well-formed body that lacks a required field.
	Missing
	// Unsupported is a request body in a media type the service does not accept.
	Unsupported
	// Validation is a submitter-supplied value that failed a syntax check.
	Validation
	// Config is a missing or malformed setting found at startup.
	Config
	// Compose is a failure to build the outbound message from valid input.
	Compose
	// Transport is a failed hand-off to the mail transport.
	Transport
)

var kindNames = map[Kind]string{
	Internal:    "internal",
	Input:       "input",
	Missing:     "missing_field",
	Unsupported: "unsupported_media_type",
	Validation:  "validation",
	Config:      "config",
	Compose:     "compose",
	Transport:   "transport",
}

// String returns the machine-readable name of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case Input, Validation:
		return http.StatusBadRequest
	case Missing:
		return http.StatusUnprocessableEntity
	case Unsupported:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

// Error is a tagged error. Message is safe to show to the submitter;
// Err is the underlying cause and is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind. This lets callers
// write errors.Is(err, apperr.New(apperr.Validation, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// New creates an Error without an underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error around an existing error.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Newf is New with fmt.Sprintf formatting.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// From extracts an *Error from err, or tags err as Internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: Internal, Message: "an internal error occurred", Err: err}
}

// KindOf returns the Kind of err, or Internal if err is not tagged.
func KindOf(err error) Kind {
	if err == nil {
		return Internal
	}
	return From(err).Kind
}

// Status returns the HTTP status for err; 200 for nil.
func Status(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return From(err).Kind.Status()
}
