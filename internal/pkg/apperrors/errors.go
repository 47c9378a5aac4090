package apperrors

import (
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrValidation    ErrorType = "VALIDATION_ERROR"
	ErrPrecondition  ErrorType = "PRECONDITION_ERROR"
	ErrRelayTimeout  ErrorType = "RELAY_TIMEOUT"
	ErrInvalidMarket ErrorType = "INVALID_MARKET"
	ErrGeoBlocked    ErrorType = "GEO_BLOCKED"
	ErrExecution     ErrorType = "EXECUTION_ERROR"
	ErrNotFound      ErrorType = "NOT_FOUND"
	ErrInternal      ErrorType = "INTERNAL_ERROR"
)

// AppError is the standard error struct for the application
type AppError struct {
	Type       ErrorType `json:"code"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(errType ErrorType, msg string, cause error) *AppError {
	return &AppError{
		Type:       errType,
		Message:    msg,
		Cause:      cause,
		HTTPStatus: mapTypeToStatus(errType),
		Suggestion: mapTypeToSuggestion(errType),
	}
}

func NewValidation(msg string) *AppError {
	return New(ErrValidation, msg, nil)
}

func NewPrecondition(msg string) *AppError {
	return New(ErrPrecondition, msg, nil)
}

func NewRelayTimeout(cause error) *AppError {
	return New(ErrRelayTimeout, "relayer did not respond in time", cause)
}

func NewInvalidMarket(msg string) *AppError {
	return New(ErrInvalidMarket, msg, nil)
}

func NewGeoBlocked() *AppError {
	return New(ErrGeoBlocked, "the trading venue rejected the order for this region", nil)
}

func NewExecution(msg string, cause error) *AppError {
	return New(ErrExecution, msg, cause)
}

func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return New(ErrInternal, err.Error(), err)
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == t
}

func mapTypeToStatus(t ErrorType) int {
	switch t {
	case ErrValidation, ErrPrecondition, ErrInvalidMarket:
		return http.StatusBadRequest
	case ErrGeoBlocked:
		return http.StatusForbidden
	case ErrNotFound:
		return http.StatusNotFound
	case ErrRelayTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func mapTypeToSuggestion(t ErrorType) string {
	switch t {
	case ErrRelayTimeout:
		return "Retry the same stage after a few seconds."
	case ErrPrecondition:
		return "Complete the earlier session stages first."
	case ErrInvalidMarket:
		return "Check the market id and that the market is still active."
	case ErrGeoBlocked:
		return "Trading on this venue is not available from your region."
	default:
		return ""
	}
}
