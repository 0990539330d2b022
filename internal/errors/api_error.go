// Package errors is the error envelope of the HTTP API.
package errors

import "net/http"

// APIError is rendered as {"error": {"code", "message", "details"}}.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func New(status int, code, message string) *APIError {
	return &APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func Internal(message string) *APIError {
	if message == "" {
		message = "internal server error"
	}
	return New(http.StatusInternalServerError, "internal_error", message)
}

func BadRequest(code, message string) *APIError {
	return New(http.StatusBadRequest, code, message)
}

func Unauthorized(message string) *APIError {
	if message == "" {
		message = "unauthorized"
	}
	return New(http.StatusUnauthorized, "unauthorized", message)
}

func NotFound(code, message string) *APIError {
	return New(http.StatusNotFound, code, message)
}

// Unavailable reports a feature the daemon was started without.
func Unavailable(code, message string) *APIError {
	return New(http.StatusServiceUnavailable, code, message)
}

// WithDetails attaches structured context to e.
func (e *APIError) WithDetails(details any) *APIError {
	e.Details = details
	return e
}
