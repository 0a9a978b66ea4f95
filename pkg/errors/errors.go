package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for the catalog pipeline.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrVendorUnavailable = errors.New("vendor unavailable")
	ErrVendorSchema      = errors.New("vendor schema error")
	ErrCacheUnavailable  = errors.New("cache unavailable")
	ErrInternal          = errors.New("internal error")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// VendorUnavailable creates a 503 error for a vendor that could not be reached
// (network failure, timeout, or a 5xx from the vendor API). The aggregator
// contains these at the adapter boundary; they reach the request boundary only
// when every vendor fails.
func VendorUnavailable(vendor string, err error) *AppError {
	return &AppError{
		Code:    "VENDOR_UNAVAILABLE",
		Message: fmt.Sprintf("vendor %s is unavailable", vendor),
		Status:  http.StatusServiceUnavailable,
		Err:     fmt.Errorf("%w: %w", ErrVendorUnavailable, err),
	}
}

// VendorSchema creates an error for a vendor payload that does not match the
// expected shape. Individual malformed records are skipped by adapters; this
// error is for payloads whose envelope itself is undecodable.
func VendorSchema(vendor string, err error) *AppError {
	return &AppError{
		Code:    "VENDOR_SCHEMA_ERROR",
		Message: fmt.Sprintf("vendor %s returned an unexpected payload", vendor),
		Status:  http.StatusBadGateway,
		Err:     fmt.Errorf("%w: %w", ErrVendorSchema, err),
	}
}

// CacheUnavailable creates an error for an unreachable cache store. Callers
// recover from this by bypassing the cache, so it normally never reaches the
// request boundary.
func CacheUnavailable(err error) *AppError {
	return &AppError{
		Code:    "CACHE_UNAVAILABLE",
		Message: "cache store unreachable",
		Status:  http.StatusServiceUnavailable,
		Err:     fmt.Errorf("%w: %w", ErrCacheUnavailable, err),
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrVendorUnavailable), errors.Is(err, ErrCacheUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrVendorSchema):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
