// Package errs provides standardized error types for pipeline operations.
// It defines PipelineError for consistent error handling across the
// warehouse, preprocessing, and training APIs, with operation context and
// error wrapping support.
package errs

import (
	"fmt"
)

// PipelineError represents standardized errors across all pipeline stages
type PipelineError struct {
	Op      string // Operation name (e.g., "Collect", "Fit", "OneHotEncode")
	Column  string // Column name if applicable
	Message string // Human-readable error description
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s operation failed on column '%s': %s", e.Op, e.Column, e.Message)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying cause for error wrapping support
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is implements error equality checking for errors.Is()
func (e *PipelineError) Is(target error) bool {
	if pe, ok := target.(*PipelineError); ok {
		return e.Op == pe.Op && e.Column == pe.Column && e.Message == pe.Message
	}
	return false
}

// Common error constructors for consistent error creation

// NewColumnNotFoundError creates an error for operations on non-existent columns
func NewColumnNotFoundError(op, column string) *PipelineError {
	return &PipelineError{
		Op:      op,
		Column:  column,
		Message: "column does not exist",
	}
}

// NewTableNotFoundError creates an error for lookups of unknown warehouse tables
func NewTableNotFoundError(op, table string) *PipelineError {
	return &PipelineError{
		Op:      op,
		Message: fmt.Sprintf("table %q does not exist", table),
	}
}

// NewInvalidInputError creates an error for invalid operation inputs
func NewInvalidInputError(op, message string) *PipelineError {
	return &PipelineError{
		Op:      op,
		Message: message,
	}
}

// NewUnsupportedTypeError creates an error for unsupported data types
func NewUnsupportedTypeError(op, column, typeName string) *PipelineError {
	return &PipelineError{
		Op:      op,
		Column:  column,
		Message: fmt.Sprintf("unsupported type: %s", typeName),
	}
}

// NewInternalError creates an error for internal operation failures
func NewInternalError(op string, cause error) *PipelineError {
	return &PipelineError{
		Op:      op,
		Message: "internal error occurred",
		Cause:   cause,
	}
}

// Predefined error variables for common cases
var (
	// ErrEmptyFrame indicates operations on empty frames
	ErrEmptyFrame = &PipelineError{
		Op:      "validation",
		Message: "operation not supported on empty frame",
	}

	// ErrMismatchedLength indicates length mismatches between columns
	ErrMismatchedLength = &PipelineError{
		Op:      "validation",
		Message: "columns must have the same length",
	}

	// ErrNotFitted indicates prediction on a model that was never fitted
	ErrNotFitted = &PipelineError{
		Op:      "Predict",
		Message: "model has not been fitted",
	}
)
