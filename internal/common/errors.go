package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrInvalidInput = errors.New("invalid input")

	// Engine error taxonomy. Extraction schema failures are fatal to a
	// pass; everything else is row- or line-scoped and never aborts
	// unrelated rows.
	ErrSchema     = errors.New("document schema invalid")
	ErrLookup     = errors.New("catalog lookup failed")
	ErrCreation   = errors.New("catalog entry creation failed")
	ErrSubmission = errors.New("order submission failed")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewLookupFailure marks a gateway-side lookup error. Callers treat it
// like "not found" for flow purposes but log it distinctly so operators
// can tell a missing code apart from an unreachable catalog.
func NewLookupFailure(code string, cause error) *AppError {
	return &AppError{
		Code:    "LOOKUP_FAILURE",
		Message: fmt.Sprintf("lookup for %q", code),
		Cause:   fmt.Errorf("%w: %w", ErrLookup, cause),
	}
}

func NewCreationFailure(name string, cause error) *AppError {
	return &AppError{
		Code:    "CREATION_FAILURE",
		Message: fmt.Sprintf("create catalog entry %q", name),
		Cause:   fmt.Errorf("%w: %w", ErrCreation, cause),
	}
}

func NewSubmissionError(cause error) *AppError {
	return &AppError{
		Code:    "SUBMISSION_ERROR",
		Message: "create order",
		Cause:   fmt.Errorf("%w: %w", ErrSubmission, cause),
	}
}
