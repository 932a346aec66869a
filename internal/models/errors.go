package models

import (
	"errors"
	"fmt"
)

// Error codes surfaced to UI views.
const (
	CodeUnauthenticated   = "UNAUTHENTICATED"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeNameTaken         = "NAME_TAKEN"
	CodeRemoteUnavailable = "REMOTE_UNAVAILABLE"
	CodePartialDelete     = "PARTIAL_DELETE_FAILURE"
	CodeAlreadyApplied    = "ALREADY_APPLIED"
	CodeNotConfirmed      = "NOT_CONFIRMED"
	CodeNotFound          = "NOT_FOUND"
	CodeValidation        = "VALIDATION_ERROR"
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

// Is matches any AppError carrying the same code, so the sentinels below work
// with errors.Is regardless of message or cause.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrUnauthenticated   = &AppError{Code: CodeUnauthenticated, Message: "sign in required"}
	ErrUnauthorized      = &AppError{Code: CodeUnauthorized, Message: "not the owner"}
	ErrNameTaken         = &AppError{Code: CodeNameTaken, Message: "username already taken"}
	ErrRemoteUnavailable = &AppError{Code: CodeRemoteUnavailable, Message: "remote store unavailable"}
	ErrPartialDelete     = &AppError{Code: CodePartialDelete, Message: "post deleted but asset remains"}
	ErrAlreadyApplied    = &AppError{Code: CodeAlreadyApplied, Message: "toggle already in flight"}
	ErrNotConfirmed      = &AppError{Code: CodeNotConfirmed, Message: "action not confirmed"}
	ErrNotFound          = &AppError{Code: CodeNotFound, Message: "not found"}
	ErrValidation        = &AppError{Code: CodeValidation, Message: "invalid input"}
)

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthenticatedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthenticated,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewNameTakenError(username string, err error) *AppError {
	return &AppError{
		Code:    CodeNameTaken,
		Message: fmt.Sprintf("username %q is already taken", username),
		Err:     err,
	}
}

func NewAlreadyAppliedError(postID uint) *AppError {
	return &AppError{
		Code:    CodeAlreadyApplied,
		Message: fmt.Sprintf("like toggle for artwork %d is still in flight", postID),
	}
}

func NewNotConfirmedError(action string) *AppError {
	return &AppError{
		Code:    CodeNotConfirmed,
		Message: action + " was not confirmed",
	}
}

// NewRemoteUnavailableError wraps a network or store failure.
func NewRemoteUnavailableError(op string, err error) *AppError {
	return &AppError{
		Code:    CodeRemoteUnavailable,
		Message: op + " failed",
		Err:     err,
	}
}

// PartialDeleteError reports that the row is gone but its stored asset may remain.
func NewPartialDeleteError(assetPath string, err error) *AppError {
	return &AppError{
		Code:    CodePartialDelete,
		Message: fmt.Sprintf("artwork deleted but asset %s could not be removed", assetPath),
		Err:     err,
	}
}

// ErrorCode returns the AppError code carried by err, or "" if none.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
