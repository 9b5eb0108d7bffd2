package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeConfiguration  ErrorCode = "CONFIGURATION"
	ErrCodeAuthentication ErrorCode = "AUTHENTICATION"
	ErrCodeNoSession      ErrorCode = "NO_SESSION"
	ErrCodeUpstream       ErrorCode = "UPSTREAM"
	ErrCodeProtocol       ErrorCode = "PROTOCOL"
	ErrCodeInvalid        ErrorCode = "INVALID"
	ErrCodeInternal       ErrorCode = "INTERNAL"
)

// Error represents a domain-level error. StatusCode and Body are set when the
// error originates from an upstream HTTP exchange.
type Error struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d): %s", msg, e.StatusCode, e.Body)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewUpstreamError reports a non-success status from a business call.
// The body is kept verbatim.
func NewUpstreamError(status int, body string) *Error {
	return &Error{
		Code:       ErrCodeUpstream,
		Message:    "upstream request failed",
		StatusCode: status,
		Body:       body,
	}
}

// NewAuthenticationError reports a rejected session-creation exchange.
func NewAuthenticationError(status int, body string) *Error {
	return &Error{
		Code:       ErrCodeAuthentication,
		Message:    "session creation rejected",
		StatusCode: status,
		Body:       body,
	}
}

// Common domain errors.
var (
	ErrMissingConsumerToken = NewError(ErrCodeConfiguration, "consumer token is not configured")
	ErrMissingEmployeeToken = NewError(ErrCodeConfiguration, "employee token is not configured")
	ErrNoSession            = NewError(ErrCodeNoSession, "auth header requested before a session was established")
	ErrSessionNotFound      = NewError(ErrCodeNoSession, "session not found")
	ErrInvalidPayload       = NewError(ErrCodeInvalid, "invalid payload")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// StatusOf returns the upstream status carried by err, or 0.
func StatusOf(err error) int {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.StatusCode
	}
	return 0
}
