// Package domain defines the core domain models for the account portal.
package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a PortalError.
type ErrorKind string

const (
	// KindTransport is a non-success HTTP status or an unexpected content type.
	KindTransport ErrorKind = "transport"
	// KindApplication is a response body carrying error_message.
	KindApplication ErrorKind = "application"
	// KindNetwork is a failure to reach the server at all.
	KindNetwork ErrorKind = "network"
	// KindDecode is a response body that could not be parsed.
	KindDecode ErrorKind = "decode"
	// KindValidation is a client-side input check that failed before any request.
	KindValidation ErrorKind = "validation"
	// KindStorage is a failure of the local credential store.
	KindStorage ErrorKind = "storage"
)

// PortalError is the single failure type produced by portal operations.
//
// Error returns Message verbatim so a caller can show exactly what the
// server (or the transport) reported. Kind lets callers branch without
// parsing the text.
type PortalError struct {
	Kind    ErrorKind // Failure category
	Message string    // Text shown to the user
	Details string    // Optional diagnostic details, never shown by Error()
	Cause   error     // Underlying error (if any)
}

// Error implements the error interface.
func (e *PortalError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *PortalError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support, matching on Kind.
func (e *PortalError) Is(target error) bool {
	t, ok := target.(*PortalError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewPortalError creates a PortalError of the given kind.
func NewPortalError(kind ErrorKind, message string) *PortalError {
	return &PortalError{
		Kind:    kind,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *PortalError) WithDetails(details string) *PortalError {
	return &PortalError{
		Kind:    e.Kind,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *PortalError) WithCause(cause error) *PortalError {
	return &PortalError{
		Kind:    e.Kind,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// ApplicationError builds the error for a response carrying error_message.
func ApplicationError(message string) *PortalError {
	return NewPortalError(KindApplication, message)
}

// TransportError builds the error for a non-success status or bad content type.
func TransportError(statusText string, status int) *PortalError {
	return NewPortalError(KindTransport, statusText).
		WithDetails(fmt.Sprintf("status %d", status))
}

// NetworkError wraps a failure to complete the HTTP exchange.
func NetworkError(cause error) *PortalError {
	return NewPortalError(KindNetwork, cause.Error()).WithCause(cause)
}

// DecodeError wraps a failure to parse a response body.
func DecodeError(cause error) *PortalError {
	return NewPortalError(KindDecode, cause.Error()).WithCause(cause)
}

// ValidationError builds a client-side validation failure.
func ValidationError(message string) *PortalError {
	return NewPortalError(KindValidation, message)
}

// StorageError wraps a credential store failure.
func StorageError(cause error) *PortalError {
	return NewPortalError(KindStorage, cause.Error()).WithCause(cause)
}

// KindOf extracts the kind from an error chain.
// It returns the empty kind when err is not a PortalError.
func KindOf(err error) ErrorKind {
	var pe *PortalError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsKind reports whether err is a PortalError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// Sentinel values for errors.Is comparisons.
var (
	ErrTransport   = NewPortalError(KindTransport, "transport error")
	ErrApplication = NewPortalError(KindApplication, "application error")
	ErrNetwork     = NewPortalError(KindNetwork, "network error")
	ErrDecode      = NewPortalError(KindDecode, "decode error")
	ErrValidation  = NewPortalError(KindValidation, "validation error")
	ErrStorage     = NewPortalError(KindStorage, "storage error")
)
