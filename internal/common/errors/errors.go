// Package errors provides standardized error codes for the loan intake
// pipeline and their mapping onto HTTP statuses and BPMN errors.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Validation outcomes: reported to the caller as success=false.
const (
	ErrCodeApplicantNotFound   ErrorCode = "APPLICANT_NOT_FOUND"
	ErrCodeApplicantInactive   ErrorCode = "APPLICANT_INACTIVE"
	ErrCodeFileMissing         ErrorCode = "FILE_MISSING"
	ErrCodeFileTooLarge        ErrorCode = "FILE_TOO_LARGE"
	ErrCodeInvalidFileType     ErrorCode = "INVALID_FILE_TYPE"
	ErrCodeApplicationNotFound ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeInvalidRequest      ErrorCode = "INVALID_REQUEST"
)

// Backing-store and unexpected failures.
const (
	ErrCodeApplicantCheckFailed ErrorCode = "APPLICANT_CHECK_FAILED"
	ErrCodeFileStoreFailed      ErrorCode = "FILE_STORE_FAILED"
	ErrCodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
)

// Category splits codes into caller mistakes and system failures.
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryInternal   Category = "internal"
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

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job variables.
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

// New creates a validation-style error with a caller-facing message.
func New(code ErrorCode, message string) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// Wrap attaches a code to a lower-level failure. The cause text becomes Details.
func Wrap(code ErrorCode, message string, cause error) *StandardError {
	e := New(code, message)
	if cause != nil {
		e.Details = cause.Error()
		e.cause = cause
	}
	return e
}

// NewDatabaseError is the catch-all for failed SQL work.
func NewDatabaseError(err error) *StandardError {
	return Wrap(ErrCodeDatabaseError, "Database error", err)
}

// NewInternalError is used for failures nothing more specific describes.
func NewInternalError(err error) *StandardError {
	return Wrap(ErrCodeInternal, "Unexpected error", err)
}

// ==========================
// 4. Classification
// ==========================

// GetErrorCategory returns the category of the error code. Unknown codes are
// treated as internal.
func GetErrorCategory(code ErrorCode) Category {
	switch code {
	case ErrCodeApplicantNotFound,
		ErrCodeApplicantInactive,
		ErrCodeFileMissing,
		ErrCodeFileTooLarge,
		ErrCodeInvalidFileType,
		ErrCodeApplicationNotFound,
		ErrCodeInvalidRequest:
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// IsValidation reports whether code describes a caller-side problem.
func IsValidation(code ErrorCode) bool {
	return GetErrorCategory(code) == CategoryValidation
}

// HTTPStatus maps a code onto the response status used by the HTTP surface.
func HTTPStatus(code ErrorCode) int {
	if code == "" {
		return http.StatusOK
	}
	if IsValidation(code) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// CodeOf extracts the ErrorCode carried by err, or ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// ==========================
// 5. Error Conversion to BPMN
// ==========================

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
// BPMN codes are identical to the internal codes.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		ErrorVariables: map[string]interface{}{
			"errorCategory": string(GetErrorCategory(stdErr.Code)),
			"timestamp":     stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ToBPMNError normalizes any error into a BPMNError.
func ToBPMNError(err error) *BPMNError {
	var stdErr *StandardError
	if !stderrors.As(err, &stdErr) {
		stdErr = NewInternalError(err)
	}
	return ConvertToBPMNError(stdErr)
}
