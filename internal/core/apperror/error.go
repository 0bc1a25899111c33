// Package apperror defines the error kinds a sale can fail with.
//
// Every failure that reaches a caller is an *AppError. Its Code is the stable,
// machine-readable kind; Details carries what a counter clerk needs to fix the
// request (the field, the shortfall, the unavailable serials).
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeInternal          = "INTERNAL_ERROR"

	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeIdempotency  = "IDEMPOTENCY_CONFLICT"
)

var statusByCode = map[string]int{
	CodeValidation:        http.StatusBadRequest,
	CodeInsufficientStock: http.StatusUnprocessableEntity,
	CodeNotFound:          http.StatusNotFound,
	CodeConflict:          http.StatusConflict,
	CodeInternal:          http.StatusInternalServerError,
	CodeUnauthorized:      http.StatusUnauthorized,
	CodeForbidden:         http.StatusForbidden,
	CodeIdempotency:       http.StatusConflict,
}

// RetryMessage is the generic message returned for write races.
const RetryMessage = "The sale could not be completed because of a concurrent update. Please retry."

// AppError is a classified failure.
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is derived from Code.
	HTTPStatus int `json:"-"`

	// Err is logged, never rendered.
	Err error `json:"-"`
}

// New builds an error of the given kind.
func New(code, message string) *AppError {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail sets one detail and returns e for chaining.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause attaches the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

func NewValidation(message string) *AppError {
	return New(CodeValidation, message)
}

// NewNotFound reports a missing product, agent, customer or invoice.
func NewNotFound(entity string, key any) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", entity)).
		WithDetail("entity", entity).
		WithDetail("id", key)
}

// NewInsufficientStock reports that fewer sellable units exist than requested.
// The shortfall is never negative.
func NewInsufficientStock(productID string, requested, available int) *AppError {
	shortfall := max(requested-available, 0)
	return New(CodeInsufficientStock, fmt.Sprintf("Insufficient stock: %d more unit(s) needed", shortfall)).
		WithDetail("productId", productID).
		WithDetail("requested", requested).
		WithDetail("available", available).
		WithDetail("shortfall", shortfall)
}

// NewUnavailableSerials reports manually selected serials that are sold or unknown.
// Nothing is substituted for them.
func NewUnavailableSerials(productID string, selected int, unavailable []string) *AppError {
	return NewInsufficientStock(productID, selected, selected-len(unavailable)).
		WithDetail("unavailableSerials", unavailable)
}

// NewInternal hides err from the caller behind a generic message.
func NewInternal(err error) *AppError {
	return New(CodeInternal, "Internal server error").WithCause(err)
}

func NewUnauthorized(message string) *AppError {
	return New(CodeUnauthorized, message)
}

func NewForbidden(message string) *AppError {
	return New(CodeForbidden, message)
}

// NewIdempotencyConflict is returned while the first request with the key is still running.
func NewIdempotencyConflict(key string) *AppError {
	return New(CodeIdempotency, "Operation already in progress or completed").
		WithDetail("idempotency_key", key)
}

// NewIdempotencyMismatch is returned when a key is reused for a different sale body.
func NewIdempotencyMismatch(key string) *AppError {
	return New(CodeIdempotency, "Idempotency key mismatch").
		WithDetail("idempotency_key", key)
}

func NewConflict(message string) *AppError {
	return New(CodeConflict, message)
}

// NewRetryConflict wraps a constraint or serialization failure with the generic retry message.
func NewRetryConflict(cause error) *AppError {
	return NewConflict(RetryMessage).WithCause(cause)
}

func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns 500 for errors that were never classified.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode reports whether err carries the given AppError code.
func HasCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

func IsNotFound(err error) bool          { return HasCode(err, CodeNotFound) }
func IsInsufficientStock(err error) bool { return HasCode(err, CodeInsufficientStock) }
func IsConflict(err error) bool          { return HasCode(err, CodeConflict) }
func IsValidation(err error) bool        { return HasCode(err, CodeValidation) }
