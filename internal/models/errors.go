package models

import (
	"errors"
	"fmt"
)

// Error codes used across the sync core.
const (
	CodeMissingReference = "MISSING_REFERENCE"
	CodeTransientNetwork = "TRANSIENT_NETWORK"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeMalformedPayload = "MALFORMED_PAYLOAD"
	CodeValidation       = "VALIDATION_ERROR"
)

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors

// NewMissingReferenceError signals that an action could not resolve the id of
// the entity it acts on. No network call is made in that case.
func NewMissingReferenceError(what string) *AppError {
	return &AppError{
		Code:    CodeMissingReference,
		Message: fmt.Sprintf("cannot resolve %s reference", what),
	}
}

// NewTransientNetworkError wraps a failed authoritative read or write.
func NewTransientNetworkError(err error) *AppError {
	return &AppError{
		Code:    CodeTransientNetwork,
		Message: "backend request failed",
		Err:     err,
	}
}

// NewUnauthorizedError signals that the session is no longer valid. It is
// propagated upward to session handling, never retried here.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

// NewMalformedPayloadError signals a push message missing required fields.
func NewMalformedPayloadError(err error) *AppError {
	return &AppError{
		Code:    CodeMalformedPayload,
		Message: "malformed push payload",
		Err:     err,
	}
}

// NewValidationError signals invalid caller input.
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func hasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsMissingReference reports whether err is a MissingReference error.
func IsMissingReference(err error) bool { return hasCode(err, CodeMissingReference) }

// IsTransientNetwork reports whether err is a TransientNetworkError.
func IsTransientNetwork(err error) bool { return hasCode(err, CodeTransientNetwork) }

// IsUnauthorized reports whether err is an Unauthorized error.
func IsUnauthorized(err error) bool { return hasCode(err, CodeUnauthorized) }

// IsMalformedPayload reports whether err is a MalformedPushPayload error.
func IsMalformedPayload(err error) bool { return hasCode(err, CodeMalformedPayload) }
