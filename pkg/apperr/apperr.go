// Package apperr defines the error taxonomy shared by every gated operation
// and the uniform JSON envelope used to report it to callers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a pipeline failure. The string value is what callers see
// in the "code" field of the error envelope.
type Kind string

const (
	KindUnauthenticated  Kind = "Unauthenticated"
	KindUnauthorized     Kind = "Unauthorized"
	KindValidationFailed Kind = "ValidationFailed"
	KindNotFound         Kind = "NotFound"
	KindConflict         Kind = "Conflict"
	KindDownstreamFailed Kind = "DownstreamFailed"
)

// Reasons attached to Unauthenticated errors.
const (
	ReasonMissingHeader   = "MISSING_HEADER"
	ReasonMalformedHeader = "MALFORMED_HEADER"
	ReasonInvalidToken    = "INVALID_TOKEN"
)

// Error is a classified failure. Message is safe to return to the caller;
// Err carries the underlying cause for logs only.
type Error struct {
	Kind    Kind
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Reason != "" {
		msg += "(" + e.Reason + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status code for the error's kind.
func (e *Error) Status() int { return StatusOf(e.Kind) }

// New creates an Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind around cause.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func Unauthenticated(reason, message string) *Error {
	return &Error{Kind: KindUnauthenticated, Reason: reason, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func Validation(format string, args ...any) *Error {
	return New(KindValidationFailed, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

func Downstream(cause error, message string) *Error {
	return Wrap(KindDownstreamFailed, cause, message)
}

// As extracts an *Error from err. Unclassified errors are reported as
// DownstreamFailed: everything the pipeline calls past the gate is a
// downstream collaborator.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Downstream(err, "downstream call failed")
}

// KindOf returns the kind of err, or "" for a nil error.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return As(err).Kind
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

// StatusOf maps a kind to its HTTP status code.
func StatusOf(kind Kind) int {
	switch kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindUnauthorized:
		return http.StatusForbidden
	case KindValidationFailed:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindDownstreamFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Body is the inner object of the error envelope.
type Body struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Envelope is the JSON shape of every failed response.
type Envelope struct {
	Error Body `json:"error"`
}

// EnvelopeOf builds the envelope for err. DownstreamFailed responses carry
// the generic message only, never the underlying cause.
func EnvelopeOf(err error) Envelope {
	ae := As(err)
	msg := ae.Message
	if msg == "" {
		msg = string(ae.Kind)
	}
	return Envelope{Error: Body{Code: string(ae.Kind), Message: msg}}
}
