// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrCodeCatalogInvalid ErrorCode = "CATALOG_INVALID"

	ErrCodeSessionLoadFailed ErrorCode = "SESSION_LOAD_FAILED"
	ErrCodeSessionSaveFailed ErrorCode = "SESSION_SAVE_FAILED"
	ErrCodeSessionBusy       ErrorCode = "SESSION_BUSY"

	ErrCodeTicketCreateFailed ErrorCode = "TICKET_CREATE_FAILED"
	ErrCodeTicketNotFound     ErrorCode = "TICKET_NOT_FOUND"
	ErrCodeTicketUpdateFailed ErrorCode = "TICKET_UPDATE_FAILED"

	ErrCodeNotificationPublishFailed ErrorCode = "NOTIFICATION_PUBLISH_FAILED"

	ErrCodeArchiveFailed     ErrorCode = "ARCHIVE_FAILED"
	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"

	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT_ERROR"
	ErrCodeNotFound        ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeAuthentication  ErrorCode = "AUTHENTICATION_ERROR"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key to the error's metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message string, err error, retryable bool) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewInvalidInputError creates a non-retryable error for malformed job variables.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid job input", stderrors.New(details), false)
}

// NewCatalogInvalidError creates a non-retryable error for a broken knowledge catalog.
func NewCatalogInvalidError(err error) *StandardError {
	return newError(ErrCodeCatalogInvalid, "Knowledge catalog is invalid", err, false)
}

func NewSessionLoadFailedError(sessionID string, err error) *StandardError {
	return newError(ErrCodeSessionLoadFailed, "Failed to load chat session", err, true).
		WithMetadata("sessionId", sessionID)
}

func NewSessionSaveFailedError(sessionID string, err error) *StandardError {
	return newError(ErrCodeSessionSaveFailed, "Failed to save chat session", err, true).
		WithMetadata("sessionId", sessionID)
}

// NewSessionBusyError is returned when another job holds the session lock.
func NewSessionBusyError(sessionID string) *StandardError {
	return newError(ErrCodeSessionBusy, "Chat session is being processed", nil, true).
		WithMetadata("sessionId", sessionID)
}

func NewTicketCreateFailedError(ticketNumber string, err error) *StandardError {
	return newError(ErrCodeTicketCreateFailed, "Failed to create ticket", err, true).
		WithMetadata("ticketNumber", ticketNumber)
}

func NewTicketNotFoundError(ticketNumber string) *StandardError {
	return newError(ErrCodeTicketNotFound, "Ticket not found", nil, false).
		WithMetadata("ticketNumber", ticketNumber)
}

func NewTicketUpdateFailedError(ticketNumber string, err error) *StandardError {
	return newError(ErrCodeTicketUpdateFailed, "Failed to update ticket", err, true).
		WithMetadata("ticketNumber", ticketNumber)
}

func NewNotificationPublishFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationPublishFailed, fmt.Sprintf("Failed to publish on %s", channel), err, true)
}

func NewArchiveFailedError(ticketNumber string, err error) *StandardError {
	return newError(ErrCodeArchiveFailed, "Failed to archive transcript", err, true).
		WithMetadata("ticketNumber", ticketNumber)
}

func NewSearchQueryFailedError(err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Transcript search failed", err, true)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection failed", err, true)
}

// Generic constructors

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err, true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err, true)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError(ErrCodeNotFound, fmt.Sprintf("Resource not found in %s", service), stderrors.New(details), false)
}

func NewAuthenticationError(details string) *StandardError {
	return newError(ErrCodeAuthentication, "Authentication failed", stderrors.New(details), false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the error codes BPMN boundary
// events catch. Unmapped codes are thrown as-is.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:              "INVALID_INPUT",
	ErrCodeCatalogInvalid:            "CATALOG_INVALID",
	ErrCodeSessionLoadFailed:         "SESSION_UNAVAILABLE",
	ErrCodeSessionSaveFailed:         "SESSION_UNAVAILABLE",
	ErrCodeSessionBusy:               "SESSION_BUSY",
	ErrCodeTicketCreateFailed:        "TICKET_STORE_UNAVAILABLE",
	ErrCodeTicketUpdateFailed:        "TICKET_STORE_UNAVAILABLE",
	ErrCodeTicketNotFound:            "TICKET_NOT_FOUND",
	ErrCodeNotificationPublishFailed: "NOTIFICATION_PUBLISH_FAILED",
	ErrCodeArchiveFailed:             "ARCHIVE_UNAVAILABLE",
	ErrCodeSearchQueryFailed:         "ARCHIVE_UNAVAILABLE",
	ErrCodeDatabaseConnectionFailed:  "DATABASE_CONNECTION_FAILED",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSessionLoadFailed,
		ErrCodeSessionSaveFailed,
		ErrCodeTicketCreateFailed,
		ErrCodeTicketUpdateFailed,
		ErrCodeNotificationPublishFailed,
		ErrCodeArchiveFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeExternalService:
		return 3 // Retryable technical errors

	case ErrCodeSessionBusy, ErrCodeTimeout:
		return 2

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError unwraps err to a StandardError when one is in the chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "SESSION"):
		return "SESSION"
	case strings.HasPrefix(codeStr, "TICKET") || strings.HasPrefix(codeStr, "DATABASE"):
		return "DATABASE"
	case strings.HasPrefix(codeStr, "ARCHIVE") || strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
