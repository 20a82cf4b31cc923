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
	ErrCodeCatalogFetchFailed      ErrorCode = "CATALOG_FETCH_FAILED"
	ErrCodeCatalogDecodeFailed     ErrorCode = "CATALOG_DECODE_FAILED"
	ErrCodeProfileExtractionFailed ErrorCode = "PROFILE_EXTRACTION_FAILED"
	ErrCodeInvalidInput            ErrorCode = "INVALID_INPUT"
	ErrCodeGenerationSuperseded    ErrorCode = "GENERATION_SUPERSEDED"
	ErrCodeGenerationFailed        ErrorCode = "GENERATION_FAILED"
	ErrCodeGuardUnavailable        ErrorCode = "GENERATION_GUARD_UNAVAILABLE"

	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT_ERROR"
	ErrCodeNotFound        ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeBusinessRule    ErrorCode = "BUSINESS_RULE_VIOLATION"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// UserMessagePrefix starts every alert shown to the employee.
const UserMessagePrefix = "Ошибка генерации: "

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata adds a key to Metadata and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	se := &StandardError{
		Code:      code,
		Message:   message,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
	if cause != nil {
		se.Details = cause.Error()
	}
	return se
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

// NewCatalogFetchFailedError wraps a failed catalog download. Fetches are never retried.
func NewCatalogFetchFailedError(file string, err error) *StandardError {
	return newError(ErrCodeCatalogFetchFailed, "Catalog document could not be loaded", err, false).
		WithMetadata("file", file)
}

func NewCatalogDecodeFailedError(file string, err error) *StandardError {
	return newError(ErrCodeCatalogDecodeFailed, "Catalog document is not valid", err, false).
		WithMetadata("file", file)
}

func NewProfileExtractionFailedError(err error) *StandardError {
	return newError(ErrCodeProfileExtractionFailed, "Client profile could not be extracted", err, false)
}

func NewInvalidInputError(details string) *StandardError {
	se := newError(ErrCodeInvalidInput, "Invalid input", nil, false)
	se.Details = details
	return se
}

// NewInvalidInputErrorFrom keeps err as the cause, so a sentinel wrapped in err
// still matches errors.Is.
func NewInvalidInputErrorFrom(err error) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid input", err, false)
}

// NewGenerationSupersededError marks a result discarded because a newer
// generation for the same session started.
func NewGenerationSupersededError(session string) *StandardError {
	se := newError(ErrCodeGenerationSuperseded, "Generation superseded by a newer request", nil, false)
	se.Details = "session: " + session
	return se.WithMetadata("session", session)
}

func NewGenerationFailedError(err error) *StandardError {
	return newError(ErrCodeGenerationFailed, "Script generation failed", err, false)
}

// NewGuardUnavailableError is retryable: the job can be picked up again once redis is back.
func NewGuardUnavailableError(err error) *StandardError {
	return newError(ErrCodeGuardUnavailable, "Generation guard unavailable", err, true)
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	se := newError(ErrCodeBusinessRule, message, nil, false)
	se.Details = details
	return se
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err, true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err, true)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	se := newError(ErrCodeNotFound, fmt.Sprintf("Resource not found in %s", service), nil, false)
	se.Details = details
	return se
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended job retry count for a code.
// Catalog, profile and generation failures are reported once and never retried.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeGuardUnavailable, ErrCodeExternalService:
		return 3
	case ErrCodeTimeout:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		"userMessage":       UserMessage(stdErr),
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
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

// AsStandardError finds a StandardError in err's chain or wraps err as an internal error.
func AsStandardError(err error) *StandardError {
	var se *StandardError
	if stderrors.As(err, &se) {
		return se
	}
	return newError(ErrCodeInternal, "Unexpected error", err, false)
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	var se *StandardError
	return stderrors.As(err, &se) && se.Code == code
}

// UserMessage renders the single alert text for a failed generation,
// e.g. "Ошибка генерации: rules.json загрузка: 404".
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var se *StandardError
	if stderrors.As(err, &se) {
		if se.Details != "" {
			return UserMessagePrefix + se.Details
		}
		return UserMessagePrefix + se.Message
	}
	return UserMessagePrefix + err.Error()
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "CATALOG"):
		return "CATALOG"
	case strings.HasPrefix(codeStr, "PROFILE"):
		return "PROFILE"
	case strings.HasPrefix(codeStr, "GENERATION"):
		return "GENERATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "BUSINESS_RULE"):
		return "VALIDATION"
	case strings.Contains(codeStr, "EXTERNAL") || strings.Contains(codeStr, "TIMEOUT"):
		return "INFRASTRUCTURE"
	default:
		return "OTHER"
	}
}
