// Package errors provides structured error types for the research solver.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *NOT_FOUND: Unknown cells, aspects or runs
//   - SOLVER_*: Solver limits
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidBoard, "radius %d out of range", r)
//	if errors.Is(err, errors.ErrCodeInvalidBoard) {
//	    // Handle validation error
//	}
//
//	// Library errors carry sentinels; Classify maps them to codes
//	code := errors.Classify(err)
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/WalterStager/thaumcraft-research-solver/pkg/aspect"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/exact"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/hexgrid"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/milp"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/placement"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidRecipe Code = "INVALID_RECIPE"
	ErrCodeInvalidBoard  Code = "INVALID_BOARD"

	// Resource not found errors
	ErrCodeNotFound       Code = "NOT_FOUND"
	ErrCodeNodeNotFound   Code = "NODE_NOT_FOUND"
	ErrCodeAspectNotFound Code = "ASPECT_NOT_FOUND"

	// Recipe graph errors
	ErrCodeCycleDetected Code = "CYCLE_DETECTED"

	// Solver errors
	ErrCodeSolverTimeout Code = "SOLVER_TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Classify returns the code of err. Structured errors keep their own code;
// sentinels from the solver packages are mapped; anything else is internal.
func Classify(err error) Code {
	if err == nil {
		return ""
	}
	if code := GetCode(err); code != "" {
		return code
	}
	switch {
	case errors.Is(err, aspect.ErrCycleDetected):
		return ErrCodeCycleDetected
	case errors.Is(err, aspect.ErrAspectNotFound):
		return ErrCodeAspectNotFound
	case errors.Is(err, aspect.ErrEmptyName):
		return ErrCodeInvalidRecipe
	case errors.Is(err, hexgrid.ErrNodeNotFound):
		return ErrCodeNodeNotFound
	case errors.Is(err, hexgrid.ErrInvalidRadius),
		errors.Is(err, exact.ErrDisabledCell),
		errors.Is(err, placement.ErrDuplicateSeed):
		return ErrCodeInvalidBoard
	case errors.Is(err, exact.ErrNoTerminals),
		errors.Is(err, exact.ErrDuplicateTerminal),
		errors.Is(err, placement.ErrUnknownMode):
		return ErrCodeInvalidInput
	case errors.Is(err, milp.ErrModelTooLarge):
		return ErrCodeUnsupported
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeSolverTimeout
	}
	return ErrCodeInternal
}

// HTTPStatus maps a code to the status the API answers with.
func HTTPStatus(code Code) int {
	switch code {
	case ErrCodeInvalidInput, ErrCodeInvalidRecipe, ErrCodeInvalidBoard, ErrCodeCycleDetected:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeNodeNotFound, ErrCodeAspectNotFound:
		return http.StatusNotFound
	case ErrCodeSolverTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeUnsupported:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
