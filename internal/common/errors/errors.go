// Package errors provides the standardized error type used between the
// backend client, the session services and the notification layer.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Document selection errors. Raised before any network call.
const (
	ErrCodeMixedFileTypes      ErrorCode = "MIXED_FILE_TYPE"
	ErrCodeTooManyFiles        ErrorCode = "TOO_MANY_FILES"
	ErrCodeUnsupportedFileType ErrorCode = "UNSUPPORTED_FILE_TYPE"
	ErrCodeEmptyBatch          ErrorCode = "EMPTY_BATCH"
)

// Transport, auth and workflow-state errors.
const (
	ErrCodeUploadFailed     ErrorCode = "UPLOAD_FAILED"
	ErrCodeNetwork          ErrorCode = "NETWORK_ERROR"
	ErrCodeBackend          ErrorCode = "BACKEND_ERROR"
	ErrCodeSchemaMismatch   ErrorCode = "SCHEMA_MISMATCH"
	ErrCodeAuthRejected     ErrorCode = "AUTH_REJECTED"
	ErrCodeNotAuthenticated ErrorCode = "NOT_AUTHENTICATED"
	ErrCodeStorage          ErrorCode = "STORAGE_ERROR"
	ErrCodeExportFailed     ErrorCode = "EXPORT_FAILED"
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	ErrCodeRecordingActive  ErrorCode = "RECORDING_ACTIVE"
	ErrCodeEditInProgress   ErrorCode = "EDIT_IN_PROGRESS"
	ErrCodeWrongStage       ErrorCode = "WRONG_STAGE"
	ErrCodeActionCancelled  ErrorCode = "ACTION_CANCELLED"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key to the error and returns it.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// Constructors
// ==========================

// NewMixedFileTypesError rejects a selection that combines images and PDFs.
func NewMixedFileTypesError(docType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMixedFileTypes,
		Message:   "Cannot mix PDF and image files. Please upload either a PDF OR images.",
		Details:   fmt.Sprintf("documentType: %s", docType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTooManyFilesError rejects a selection above the per-type limit.
func NewTooManyFilesError(docType, message string, total int) *StandardError {
	return &StandardError{
		Code:      ErrCodeTooManyFiles,
		Message:   message,
		Details:   fmt.Sprintf("documentType: %s, files: %d", docType, total),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnsupportedFileTypeError rejects a file that has no preview rendering.
func NewUnsupportedFileTypeError(fileName, contentType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnsupportedFileType,
		Message:   "Unsupported file type",
		Details:   fmt.Sprintf("file: %s, type: %s", fileName, contentType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmptyBatchError rejects an upload with no selected files.
func NewEmptyBatchError(docType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmptyBatch,
		Message:   "Select a file to upload first",
		Details:   fmt.Sprintf("documentType: %s", docType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUploadError carries the server detail, or a generic message when absent.
func NewUploadError(detail string, status int) *StandardError {
	msg := detail
	if msg == "" {
		msg = "Upload failed"
	}
	return &StandardError{
		Code:      ErrCodeUploadFailed,
		Message:   msg,
		Details:   fmt.Sprintf("status: %d", status),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNetworkError wraps a transport failure. Nothing in this client retries it.
func NewNetworkError(endpoint string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNetwork,
		Message:   fmt.Sprintf("Request to '%s' failed", endpoint),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendError reports a non-success status from the backend.
func NewBackendError(endpoint string, status int, detail string) *StandardError {
	msg := detail
	if msg == "" {
		msg = fmt.Sprintf("Backend returned status %d", status)
	}
	return &StandardError{
		Code:      ErrCodeBackend,
		Message:   msg,
		Details:   fmt.Sprintf("endpoint: %s, status: %d", endpoint, status),
		Retryable: status >= 500,
		Metadata:  map[string]interface{}{"status": status},
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthRejectedError reports a 401 from an authenticated endpoint.
func NewAuthRejectedError(endpoint, detail string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthRejected,
		Message:   "Session expired or token invalid",
		Details:   fmt.Sprintf("endpoint: %s, detail: %s", endpoint, detail),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotAuthenticatedError is returned when a call needs a token and none is held.
func NewNotAuthenticatedError(operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotAuthenticated,
		Message:   "Login required",
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSchemaMismatchError reports a response that does not match its schema.
func NewSchemaMismatchError(endpoint string, problems []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSchemaMismatch,
		Message:   fmt.Sprintf("Unexpected response from '%s'", endpoint),
		Details:   strings.Join(problems, "; "),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStorageError wraps a local or Redis storage failure.
func NewStorageError(op, key string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorage,
		Message:   fmt.Sprintf("Storage %s failed", op),
		Details:   fmt.Sprintf("key: %s, error: %s", key, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewExportFailedError wraps a download sink failure.
func NewExportFailedError(name string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExportFailed,
		Message:   "Download failed",
		Details:   fmt.Sprintf("file: %s, error: %s", name, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPermissionDeniedError reports microphone access denial.
func NewPermissionDeniedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePermissionDenied,
		Message:   "Microphone access denied. Please allow microphone permissions.",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecordingActiveError rejects a second concurrent recording.
func NewRecordingActiveError() *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordingActive,
		Message:   "A recording is already in progress",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEditInProgressError blocks download/print while inline editing.
func NewEditInProgressError(action string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEditInProgress,
		Message:   "Save or cancel your edits first",
		Details:   fmt.Sprintf("action: %s", action),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewWrongStageError rejects an operation outside its wizard stage.
func NewWrongStageError(operation string, current, required int) *StandardError {
	return &StandardError{
		Code:      ErrCodeWrongStage,
		Message:   fmt.Sprintf("'%s' is not available at this step", operation),
		Details:   fmt.Sprintf("currentStep: %d, requiredStep: %d", current, required),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewActionCancelledError is returned when the user declines a confirmation.
func NewActionCancelledError(action string) *StandardError {
	return &StandardError{
		Code:      ErrCodeActionCancelled,
		Message:   "Action cancelled",
		Details:   fmt.Sprintf("action: %s", action),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError reports a malformed argument.
func NewInvalidInputError(field, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   fmt.Sprintf("Invalid %s", field),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// Utility Functions
// ==========================

// AsStandard extracts a *StandardError from err, if any.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the code of err, or INTERNAL_ERROR for foreign errors.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if stdErr, ok := AsStandard(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err carries code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsAuthError reports whether err means the held token is no longer valid.
func IsAuthError(err error) bool {
	return HasCode(err, ErrCodeAuthRejected)
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeMixedFileTypes, ErrCodeTooManyFiles, ErrCodeUnsupportedFileType,
		ErrCodeEmptyBatch, ErrCodeInvalidInput:
		return "VALIDATION"
	case ErrCodeAuthRejected, ErrCodeNotAuthenticated:
		return "AUTH"
	case ErrCodePermissionDenied:
		return "PERMISSION"
	case ErrCodeNetwork, ErrCodeBackend, ErrCodeUploadFailed, ErrCodeSchemaMismatch:
		return "NETWORK"
	case ErrCodeEditInProgress, ErrCodeWrongStage, ErrCodeRecordingActive, ErrCodeActionCancelled:
		return "STATE"
	case ErrCodeStorage, ErrCodeExportFailed:
		return "LOCAL"
	default:
		return "OTHER"
	}
}
