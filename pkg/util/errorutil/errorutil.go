package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes rendered to API clients.
const (
	CodeValidation         = "VALIDATION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeConflict           = "CONFLICT"
	CodeUnknownProduct     = "UNKNOWN_PRODUCT"
	CodeNoFulfillableLines = "NO_FULFILLABLE_LINES"
	CodeAccountInactive    = "ACCOUNT_INACTIVE"
	CodeAlreadyFinalized   = "ALREADY_FINALIZED"
	CodeStoreUnavailable   = "STORE_UNAVAILABLE"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
)

// Sentinel kinds. Any DomainError carrying the same code matches them with errors.Is.
var (
	ErrValidation         = &DomainError{Code: CodeValidation, Message: "validation failed", HTTPStatus: http.StatusBadRequest}
	ErrNotFound           = &DomainError{Code: CodeNotFound, Message: "not found", HTTPStatus: http.StatusNotFound}
	ErrUnauthenticated    = &DomainError{Code: CodeUnauthorized, Message: "unauthenticated", HTTPStatus: http.StatusUnauthorized}
	ErrForbidden          = &DomainError{Code: CodeForbidden, Message: "forbidden", HTTPStatus: http.StatusForbidden}
	ErrConflict           = &DomainError{Code: CodeConflict, Message: "conflict", HTTPStatus: http.StatusConflict}
	ErrUnknownProduct     = &DomainError{Code: CodeUnknownProduct, Message: "unknown product", HTTPStatus: http.StatusBadRequest}
	ErrNoFulfillableLines = &DomainError{Code: CodeNoFulfillableLines, Message: "none of the requested items are available", HTTPStatus: http.StatusBadRequest}
	ErrAccountInactive    = &DomainError{Code: CodeAccountInactive, Message: "please get your account activated", HTTPStatus: http.StatusForbidden}
	ErrAlreadyFinalized   = &DomainError{Code: CodeAlreadyFinalized, Message: "order is already completed", HTTPStatus: http.StatusConflict}
	ErrStoreUnavailable   = &DomainError{Code: CodeStoreUnavailable, Message: "storage unavailable", HTTPStatus: http.StatusServiceUnavailable}
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewUnknownProduct(productIDs []string) error {
	return NewDomainError(CodeUnknownProduct, "invalid product id", http.StatusBadRequest,
		map[string]any{"product_ids": productIDs})
}

func NewNoFulfillableLines(details map[string]any) error {
	return NewDomainError(CodeNoFulfillableLines, ErrNoFulfillableLines.Message, http.StatusBadRequest, details)
}

func NewAlreadyFinalized(orderID string) error {
	return NewDomainError(CodeAlreadyFinalized, ErrAlreadyFinalized.Message, http.StatusConflict,
		map[string]any{"order_id": orderID})
}

func NewRateLimited(retryAfterSeconds int) error {
	return NewDomainError(CodeRateLimited, "rate limit exceeded", http.StatusTooManyRequests,
		map[string]any{"retry_after": retryAfterSeconds})
}

// NewStoreUnavailable wraps an I/O failure from a backing store.
func NewStoreUnavailable(err error) error {
	return &DomainError{
		Code:       CodeStoreUnavailable,
		Message:    ErrStoreUnavailable.Message,
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
