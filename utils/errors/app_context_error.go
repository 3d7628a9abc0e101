package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes used across the proxy pipeline.
const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeDomain      = "DOMAIN_FORBIDDEN"
	CodeTimeout     = "TIMEOUT_ERROR"
	CodeExternalAPI = "EXTERNAL_API_ERROR"
	CodeTransport   = "TRANSPORT_ERROR"
	CodeTranscode   = "TRANSCODE_ERROR"
	CodeDiskIO      = "DISK_IO_ERROR"
	CodeRateLimit   = "RATE_LIMIT_ERROR"
	CodeUnknown     = "UNKNOWN_ERROR"
)

// AppContextError represents an error with rich context information
type AppContextError struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Layer     string                 `json:"layer,omitempty"`     // Clean Architecture layer (rest, usecase, gateway, driver)
	Component string                 `json:"component,omitempty"` // Specific component/service name
	Operation string                 `json:"operation,omitempty"` // Specific operation/method name
	Cause     error                  `json:"-"`                   // Underlying error (not serialized)
	Context   map[string]interface{} `json:"context,omitempty"`   // Additional context information
}

// Error implements the error interface
func (e *AppContextError) Error() string {
	var prefix string
	if e.Layer != "" && e.Component != "" && e.Operation != "" {
		prefix = fmt.Sprintf("[%s:%s:%s] ", e.Layer, e.Component, e.Operation)
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s%s: %s (caused by: %v)", prefix, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s%s: %s", prefix, e.Code, e.Message)
}

// Unwrap returns the underlying error for error chain unwrapping
func (e *AppContextError) Unwrap() error {
	return e.Cause
}

// HTTPStatusCode maps error codes to HTTP status codes
func (e *AppContextError) HTTPStatusCode() int {
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeDomain:
		return http.StatusForbidden
	case CodeRateLimit:
		return http.StatusTooManyRequests
	case CodeExternalAPI, CodeTransport:
		return http.StatusBadGateway
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// HTTPContextResponse represents the structure of error responses sent to clients
type HTTPContextResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToHTTPResponse converts an AppContextError to an HTTP error response.
// Layer/operation details stay server-side; clients get a stable shape.
func (e *AppContextError) ToHTTPResponse() HTTPContextResponse {
	return HTTPContextResponse{
		Error:   "error",
		Code:    e.Code,
		Message: e.Message,
	}
}

// IsRetryable determines if the error represents a retryable condition.
// Upstream 4xx responses carry a status_code in Context and are permanent.
func (e *AppContextError) IsRetryable() bool {
	switch e.Code {
	case CodeTimeout, CodeTransport:
		return true
	case CodeExternalAPI:
		if status, ok := e.Context["status_code"].(int); ok {
			return status >= 500
		}
		return true
	default:
		return false
	}
}

// NewAppContextError creates a new AppContextError with full context
func NewAppContextError(
	code, message, layer, component, operation string,
	cause error,
	context map[string]interface{},
) *AppContextError {
	if context == nil {
		context = make(map[string]interface{})
	}

	return &AppContextError{
		Code:      code,
		Message:   message,
		Layer:     layer,
		Component: component,
		Operation: operation,
		Cause:     cause,
		Context:   context,
	}
}

func NewValidationContextError(message, layer, component, operation string, context map[string]interface{}) *AppContextError {
	return NewAppContextError(CodeValidation, message, layer, component, operation, nil, context)
}

func NewDomainForbiddenContextError(message, layer, component, operation string, context map[string]interface{}) *AppContextError {
	return NewAppContextError(CodeDomain, message, layer, component, operation, nil, context)
}

func NewTimeoutContextError(message, layer, component, operation string, cause error, context map[string]interface{}) *AppContextError {
	return NewAppContextError(CodeTimeout, message, layer, component, operation, cause, context)
}

func NewExternalAPIContextError(message, layer, component, operation string, cause error, context map[string]interface{}) *AppContextError {
	return NewAppContextError(CodeExternalAPI, message, layer, component, operation, cause, context)
}

func NewTransportContextError(message, layer, component, operation string, cause error, context map[string]interface{}) *AppContextError {
	return NewAppContextError(CodeTransport, message, layer, component, operation, cause, context)
}

func NewTranscodeContextError(message, layer, component, operation string, cause error, context map[string]interface{}) *AppContextError {
	return NewAppContextError(CodeTranscode, message, layer, component, operation, cause, context)
}

func NewDiskIOContextError(message, layer, component, operation string, cause error, context map[string]interface{}) *AppContextError {
	return NewAppContextError(CodeDiskIO, message, layer, component, operation, cause, context)
}

func NewRateLimitContextError(message, layer, component, operation string, cause error, context map[string]interface{}) *AppContextError {
	return NewAppContextError(CodeRateLimit, message, layer, component, operation, cause, context)
}

func NewUnknownContextError(message, layer, component, operation string, cause error, context map[string]interface{}) *AppContextError {
	return NewAppContextError(CodeUnknown, message, layer, component, operation, cause, context)
}

// AsAppContextError extracts an AppContextError from an error chain.
func AsAppContextError(err error) (*AppContextError, bool) {
	var appErr *AppContextError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the error code of err, or CodeUnknown when err carries none.
func CodeOf(err error) string {
	if appErr, ok := AsAppContextError(err); ok {
		return appErr.Code
	}
	return CodeUnknown
}
