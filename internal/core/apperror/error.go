// Package apperror provides structured error handling for the platform.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error codes following the ledger's failure taxonomy
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Business rule violations (422)
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeSameUnitTransfer       = "SAME_UNIT_TRANSFER"

	// Transient, retryable (409/503)
	CodeLockTimeout      = "LOCK_TIMEOUT"
	CodeDeadlockDetected = "DEADLOCK_DETECTED"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict        = "CONFLICT"
	CodeDuplicate       = "DUPLICATE_ENTRY"
	CodeDuplicateReport = "DUPLICATE_REPORT"
	CodeIdempotency     = "IDEMPOTENCY_CONFLICT"
)

// AppError is the standard error type for the platform.
// It implements the error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Retryable hints that the caller may retry the whole operation
	Retryable bool `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400).
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404).
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInsufficientStock creates a stock shortage error. Quantities are item counts.
func NewInsufficientStock(productID string, requested, available int64) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "Insufficient stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"product_id": productID,
			"requested":  requested,
			"available":  available,
		},
	}
}

// NewInvalidStateTransition reports an attempt to move an entity out of a
// terminal or incompatible state (resolving a resolved request, editing a paid sale).
func NewInvalidStateTransition(entity string, id any, from, to string) *AppError {
	return &AppError{
		Code:       CodeInvalidStateTransition,
		Message:    fmt.Sprintf("%s cannot transition from %s to %s", entity, from, to),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"entity": entity, "id": id, "from": from, "to": to},
	}
}

// NewSameUnitTransfer rejects a transfer where source and destination match.
func NewSameUnitTransfer(unitID string) *AppError {
	return &AppError{
		Code:       CodeSameUnitTransfer,
		Message:    "Source and destination unit must differ",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"unit_id": unitID},
	}
}

// NewDuplicateReport reports that a daily report already exists for the
// unit and date. Recoverable: fetch the existing report.
func NewDuplicateReport(unitID string, date time.Time) *AppError {
	return &AppError{
		Code:       CodeDuplicateReport,
		Message:    fmt.Sprintf("A daily report for this unit already exists for %s", date.Format("2006-01-02")),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"unit_id": unitID, "report_date": date.Format("2006-01-02")},
	}
}

// NewLockTimeout creates a transient lock acquisition failure. Retryable.
func NewLockTimeout(err error) *AppError {
	return &AppError{
		Code:       CodeLockTimeout,
		Message:    "Could not acquire row lock within the request deadline",
		HTTPStatus: http.StatusServiceUnavailable,
		Retryable:  true,
		Err:        err,
	}
}

// NewDeadlockDetected creates a transient deadlock failure. Retryable.
func NewDeadlockDetected(err error) *AppError {
	return &AppError{
		Code:       CodeDeadlockDetected,
		Message:    "Transaction aborted by deadlock detector",
		HTTPStatus: http.StatusConflict,
		Retryable:  true,
		Err:        err,
	}
}

// NewInternal creates an internal server error (hides details from the client).
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewConflict creates a conflict error (409).
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409).
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// NewIdempotencyConflict creates an error for an operation already in progress.
func NewIdempotencyConflict(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Operation already in progress or completed",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// NewIdempotencyMismatch is returned when the same idempotency key is reused for
// a different request (different actor/operation/body hash).
func NewIdempotencyMismatch(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Idempotency key mismatch",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// --- Helper functions ---

// IsAppError checks if err is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts an AppError from the error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns the appropriate HTTP status for any error.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if err carries CodeNotFound.
func IsNotFound(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeNotFound
	}
	return false
}

// IsInsufficientStock checks if err carries CodeInsufficientStock.
func IsInsufficientStock(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeInsufficientStock
	}
	return false
}

// IsRetryable reports whether the caller may retry the whole transaction.
func IsRetryable(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Retryable
	}
	return false
}
