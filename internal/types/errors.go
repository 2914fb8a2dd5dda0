package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for threatsim errors.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// Scenario error codes
const (
	SCENARIO_VALIDATION_FAILED ErrorCode = "SCENARIO_VALIDATION_FAILED"
	SCENARIO_LOAD_FAILED       ErrorCode = "SCENARIO_LOAD_FAILED"
)

// Template error codes
const (
	TEMPLATE_NOT_FOUND     ErrorCode = "TEMPLATE_NOT_FOUND"
	TEMPLATE_DUPLICATE     ErrorCode = "TEMPLATE_DUPLICATE"
	TEMPLATE_INVALID       ErrorCode = "TEMPLATE_INVALID"
	TEMPLATE_RENDER_FAILED ErrorCode = "TEMPLATE_RENDER_FAILED"
	TEMPLATE_VAR_MISSING   ErrorCode = "TEMPLATE_VAR_MISSING"
)

// Provider error codes
const (
	LLM_NO_PROVIDER_AVAILABLE  ErrorCode = "LLM_NO_PROVIDER_AVAILABLE"
	LLM_PROVIDER_NOT_FOUND     ErrorCode = "LLM_PROVIDER_NOT_FOUND"
	LLM_PROVIDER_EXISTS        ErrorCode = "LLM_PROVIDER_EXISTS"
	LLM_PROVIDER_INVALID_INPUT ErrorCode = "LLM_PROVIDER_INVALID_INPUT"
	LLM_PROVIDER_RATE_LIMITED  ErrorCode = "LLM_PROVIDER_RATE_LIMITED"
	LLM_PROVIDER_TRANSIENT     ErrorCode = "LLM_PROVIDER_TRANSIENT"
	LLM_PROVIDER_FATAL         ErrorCode = "LLM_PROVIDER_FATAL"
	LLM_PROVIDER_UNAUTHORIZED  ErrorCode = "LLM_PROVIDER_UNAUTHORIZED"
	LLM_TIMEOUT_EXCEEDED       ErrorCode = "LLM_TIMEOUT_EXCEEDED"
)

// Safety and simulation error codes
const (
	SAFETY_REJECTED      ErrorCode = "SAFETY_REJECTED"
	SIMULATION_CANCELLED ErrorCode = "SIMULATION_CANCELLED"
	SIMULATION_FAILED    ErrorCode = "SIMULATION_FAILED"
)

// SimError represents a structured error with error code, message, and
// optional cause. It supports error wrapping and retryability hints for
// orchestrator retry logic.
type SimError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *SimError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
func (e *SimError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
func (e *SimError) Is(target error) bool {
	var simErr *SimError
	if errors.As(target, &simErr) {
		return e.Code == simErr.Code
	}
	return false
}

// NewError creates a new non-retryable SimError with the given code and message.
func NewError(code ErrorCode, message string) *SimError {
	return &SimError{
		Code:    code,
		Message: message,
	}
}

// NewRetryableError creates a new retryable SimError.
// Use this for transient errors that may succeed on retry.
func NewRetryableError(code ErrorCode, message string) *SimError {
	return &SimError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// WrapError creates a new non-retryable SimError that wraps an existing error.
func WrapError(code ErrorCode, message string, cause error) *SimError {
	return &SimError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf extracts the ErrorCode from an error chain.
// Returns an empty code when the chain holds no SimError.
func CodeOf(err error) ErrorCode {
	var simErr *SimError
	if errors.As(err, &simErr) {
		return simErr.Code
	}
	return ""
}
