package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeForbidden  ErrorType = "FORBIDDEN"
	ErrorTypeConflict   ErrorType = "CONFLICT"
	ErrorTypeInternal   ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed  ErrorCode = "VALIDATION_FAILED"
	ErrCodeNoFieldsToUpdate  ErrorCode = "NO_FIELDS_TO_UPDATE"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeAlreadyProcessed  ErrorCode = "ALREADY_PROCESSED"

	ErrCodeRequestNotFound ErrorCode = "REQUEST_NOT_FOUND"
	ErrCodeExpenseNotFound ErrorCode = "EXPENSE_NOT_FOUND"
	ErrCodeUserNotFound    ErrorCode = "USER_NOT_FOUND"
	ErrCodeNotTeamMember   ErrorCode = "NOT_TEAM_MEMBER"
	ErrCodeAdminOnly       ErrorCode = "ADMIN_ONLY"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"

	ErrCodeStorageFailed ErrorCode = "STORAGE_FAILED"
	ErrCodeNoBotToken    ErrorCode = "NO_BOT_TOKEN"
)

// AppError is the service-wide error shape. StatusCode drives the HTTP
// mapping; Cause is kept for operator diagnosis and never serialized.
type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
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

func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeStorageFailed,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrRequestNotFound = NewNotFoundError("request not found", ErrCodeRequestNotFound)
	ErrExpenseNotFound = NewNotFoundError("expense not found", ErrCodeExpenseNotFound)
	ErrUserNotFound    = NewNotFoundError("user not found", ErrCodeUserNotFound)

	ErrNoFieldsToUpdate  = NewValidationError("no fields to update", ErrCodeNoFieldsToUpdate)
	ErrInvalidTransition = NewValidationError("invalid status transition", ErrCodeInvalidTransition)
	ErrAlreadyProcessed  = NewConflictError("already processed", ErrCodeAlreadyProcessed)

	ErrNotTeamMember = NewForbiddenError("you must be added to the team first", ErrCodeNotTeamMember)
	ErrAdminOnly     = NewForbiddenError("admin access required", ErrCodeAdminOnly)

	ErrInvalidCredentials = &AppError{Type: ErrorTypeForbidden, Code: ErrCodeInvalidCredentials, Message: "invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrInvalidToken       = &AppError{Type: ErrorTypeForbidden, Code: ErrCodeInvalidToken, Message: "invalid token", StatusCode: http.StatusUnauthorized}
	ErrTokenExpired       = &AppError{Type: ErrorTypeForbidden, Code: ErrCodeTokenExpired, Message: "token has expired", StatusCode: http.StatusUnauthorized}

	ErrNoBotToken = NewValidationError("no telegram bot token configured", ErrCodeNoBotToken)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

type ErrorResponse struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, ErrorResponse{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
