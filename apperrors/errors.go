// Package apperrors provides the standardized error taxonomy of the predictor.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeModelUnavailable ErrorCode = "MODEL_UNAVAILABLE"
	ErrCodeSchemaMismatch   ErrorCode = "SCHEMA_MISMATCH"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodePredictionFailed ErrorCode = "PREDICTION_FAILED"
)

// Sentinels for errors.Is; matching is by code only.
var (
	ErrModelUnavailable = &StandardError{Code: ErrCodeModelUnavailable}
	ErrSchemaMismatch   = &StandardError{Code: ErrCodeSchemaMismatch}
	ErrInvalidInput     = &StandardError{Code: ErrCodeInvalidInput}
	ErrPredictionFailed = &StandardError{Code: ErrCodePredictionFailed}
)

// FieldError describes one refused input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode    `json:"code"`
	Message   string       `json:"message"`
	Details   string       `json:"details,omitempty"`
	Retryable bool         `json:"retryable"`
	Fields    []FieldError `json:"fields,omitempty"`
	Timestamp time.Time    `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a StandardError with the same code.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	return ok && t.Code == e.Code
}

// NewModelUnavailableError is returned when the serialized model cannot be loaded.
// The process cannot serve predictions after this.
func NewModelUnavailableError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeModelUnavailable,
		Message:   "Model artifact could not be loaded",
		Details:   fmt.Sprintf("path: %s: %v", path, err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewSchemaMismatchError is returned when the model rejects the shape of a row.
func NewSchemaMismatchError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSchemaMismatch,
		Message:   "Record does not match the model schema",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError is returned by input surfaces that refuse a value.
func NewInvalidInputError(fields []FieldError) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Input refused",
		Details:   fmt.Sprintf("%d invalid field(s)", len(fields)),
		Retryable: false,
		Fields:    fields,
		Timestamp: time.Now().UTC(),
	}
}

func NewPredictionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePredictionFailed,
		Message:   "Prediction failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// From normalizes any error into a StandardError.
func From(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return NewPredictionFailedError(err)
}

// HTTPStatus maps an error code to the status returned by the HTTP surface.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidInput:
		return http.StatusUnprocessableEntity
	case ErrCodeModelUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
