// Package errors defines the application's error taxonomy.
//
// Each category is a *DomainError identified by its Code. Callers wrap a
// category with context using fmt.Errorf("%w: ...", errors.ErrValidation) and
// test for it with the standard library's errors.Is.
package errors

import stderrors "errors"

type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same code, so two DomainError values
// built separately still match.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

var (
	// ErrConfiguration is a missing key or credential. Fatal, not retryable.
	ErrConfiguration = &DomainError{
		Code:    "CONFIGURATION_ERROR",
		Message: "configuration error",
	}
	// ErrValidation is malformed input rejected before any computation.
	ErrValidation = &DomainError{
		Code:    "VALIDATION_ERROR",
		Message: "validation error",
	}
	// ErrTransport is a network or HTTP failure talking to the gateway.
	ErrTransport = &DomainError{
		Code:    "TRANSPORT_ERROR",
		Message: "gateway transport error",
	}
	// ErrSignatureMismatch is a callback whose signature did not verify.
	ErrSignatureMismatch = &DomainError{
		Code:    "SIGNATURE_MISMATCH",
		Message: "signature mismatch",
	}
	// ErrCollaboratorUnavailable is a text generation failure. It is always
	// absorbed into a fallback and never returned from the core.
	ErrCollaboratorUnavailable = &DomainError{
		Code:    "COLLABORATOR_UNAVAILABLE",
		Message: "collaborator unavailable",
	}
	ErrNotFound = &DomainError{
		Code:    "NOT_FOUND",
		Message: "record not found",
	}
)

// CodeOf returns the taxonomy code of err, or "" when err is outside it.
func CodeOf(err error) string {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Code
	}
	return ""
}
