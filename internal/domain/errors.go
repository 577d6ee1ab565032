package domain

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeNotFound     ErrorCode = "NOT_FOUND"

	// Pipeline specific errors
	CodeAnalysisNotFound ErrorCode = "ANALYSIS_NOT_FOUND"
	CodeQuizNotFound     ErrorCode = "QUIZ_NOT_FOUND"
	CodeQuizAttempted    ErrorCode = "QUIZ_ALREADY_ATTEMPTED"
	CodeGenerationFailed ErrorCode = "GENERATION_FAILED"
	CodeModelService     ErrorCode = "MODEL_SERVICE_ERROR"
	CodeMissingAPIKey    ErrorCode = "MISSING_API_KEY"
	CodeNoImages         ErrorCode = "NO_IMAGES_PROVIDED"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewInternalError(message string, cause error) *DomainError {
	return NewError(CodeInternal, message, cause)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewAnalysisNotFoundError(id string) *DomainError {
	return NewError(CodeAnalysisNotFound, fmt.Sprintf("Analysis result not found: %s", id), nil)
}

func NewQuizNotFoundError(id string) *DomainError {
	return NewError(CodeQuizNotFound, fmt.Sprintf("Quiz not found: %s", id), nil)
}

func NewQuizAttemptedError(id string) *DomainError {
	return NewError(CodeQuizAttempted, fmt.Sprintf("Quiz already attempted: %s", id), nil)
}

// NewGenerationFailedError signals that the model responded but nothing
// usable could be recovered from its output.
func NewGenerationFailedError(message string) *DomainError {
	return NewError(CodeGenerationFailed, message, nil)
}

func NewModelServiceError(cause error) *DomainError {
	return NewError(CodeModelService, "Failed to call the external model", cause)
}
