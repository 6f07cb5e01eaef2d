// Package errors provides custom error types for the Lendhub API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError with the same code, so that
// errors.Is(err, ErrInvalidRule) holds for values built with WithMessage.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Opportunity errors.
var (
	ErrInvalidOpportunity  = &AppError{Code: "INVALID_OPPORTUNITY", Message: "Opportunity violates a structural invariant", StatusCode: http.StatusBadRequest}
	ErrOpportunityNotFound = &AppError{Code: "OPPORTUNITY_NOT_FOUND", Message: "Opportunity not found", StatusCode: http.StatusNotFound}
	ErrOpportunityClosed   = &AppError{Code: "OPPORTUNITY_CLOSED", Message: "Opportunity is no longer accepting funds", StatusCode: http.StatusConflict}
	ErrOverFunding         = &AppError{Code: "OVER_FUNDING", Message: "Amount exceeds the remaining funding gap", StatusCode: http.StatusConflict}
)

// Auto-invest rule errors.
var (
	ErrInvalidRule  = &AppError{Code: "INVALID_RULE", Message: "Auto-invest rule is invalid", StatusCode: http.StatusBadRequest}
	ErrRuleNotFound = &AppError{Code: "RULE_NOT_FOUND", Message: "Auto-invest rule not found", StatusCode: http.StatusNotFound}
)

// Lender and investment errors.
var (
	ErrLenderNotFound          = &AppError{Code: "LENDER_NOT_FOUND", Message: "Lender not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail          = &AppError{Code: "DUPLICATE_EMAIL", Message: "A lender with this email already exists", StatusCode: http.StatusConflict}
	ErrInsufficientCapital     = &AppError{Code: "INSUFFICIENT_CAPITAL", Message: "Insufficient available capital", StatusCode: http.StatusBadRequest}
	ErrInvalidInvestmentAmount = &AppError{Code: "INVALID_INVESTMENT_AMOUNT", Message: "Amount is outside the opportunity's investment bounds", StatusCode: http.StatusBadRequest}
	ErrInvestmentNotFound      = &AppError{Code: "INVESTMENT_NOT_FOUND", Message: "Investment not found", StatusCode: http.StatusNotFound}
)
