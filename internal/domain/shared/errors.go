// Package shared contains the error vocabulary used across the domain and
// application layers. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base errors that can be used for error checking with errors.Is().
var (
	ErrValidation = errors.New("validation error")

	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// ErrInvalidSubmission marks a form that failed its own checks before
// anything was sent to the remote endpoint.
var ErrInvalidSubmission = errors.New("invalid submission")

// DomainError carries the failing operation together with the message
// shown to the person who triggered it.
type DomainError struct {
	Domain  string // "sheet" or "submission"
	Op      string // e.g. "Fetch", "Submit"
	Kind    error  // base error for errors.Is()
	Message string // user-facing, may be Arabic
	Err     error  // underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error, or the kind when there is none.
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is matches both the kind and the wrapped error.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

// WrapError wraps err with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// UserMessage returns the message of the outermost DomainError in err's
// chain, or fallback when there is none or it is empty.
func UserMessage(err error, fallback string) string {
	var de *DomainError
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return fallback
}

// IsValidation reports whether err was rejected before reaching the remote.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsExternalService reports whether err came from the remote endpoint.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) || errors.Is(err, ErrServiceUnavailable)
}
