package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorKind classifies a failure the way the user is told about it.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNetwork    ErrorKind = "network"
	KindTimeout    ErrorKind = "timeout"
	KindAPI        ErrorKind = "api"
)

// GenericErrorMessage is shown when an error carries no usable message.
const GenericErrorMessage = "An unexpected error occurred. Please try again."

// AppError represents application-level error with HTTP status.
type AppError struct {
	Kind    ErrorKind              `json:"kind"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error.
func NewAppError(code, field, message string, status int) *AppError {
	return &AppError{
		Kind:    KindAPI,
		Code:    code,
		Message: message,
		Field:   field,
		Status:  status,
		Params:  make(map[string]interface{}),
	}
}

// WithParams sets error params.
func (e *AppError) WithParams(params map[string]interface{}) *AppError {
	e.Params = params
	return e
}

// WithParam sets a single error param.
func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = make(map[string]interface{})
	}
	e.Params[key] = value
	return e
}

// WithError wraps an underlying error.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// NewValidationError reports input rejected before any request was sent.
func NewValidationError(field, message string) *AppError {
	e := NewAppError("ERR_VALIDATION", field, message, http.StatusBadRequest)
	e.Kind = KindValidation
	return e
}

// NewNetworkError wraps a transport failure; the message is the transport's own.
func NewNetworkError(err error) *AppError {
	e := NewAppError("ERR_NETWORK", "", err.Error(), http.StatusBadGateway)
	e.Kind = KindNetwork
	return e
}

// NewTimeoutError reports a request abandoned after d.
func NewTimeoutError(d time.Duration) *AppError {
	msg := "Request timed out"
	if d > 0 {
		msg = fmt.Sprintf("Request timed out after %s", d)
	}
	e := NewAppError("ERR_TIMEOUT", "", msg, http.StatusGatewayTimeout)
	e.Kind = KindTimeout
	return e
}

// NewAPIError reports a non-2xx answer from the backend.
func NewAPIError(status int, message string) *AppError {
	return NewAppError("ERR_API", "", message, status)
}

// KindOf returns the kind of err, or "" when err is not an AppError.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// FormatMessage turns any error into the single line shown to the user.
func FormatMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return GenericErrorMessage
}
