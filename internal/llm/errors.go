package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/threatsim/threatsim/internal/types"
)

// IsRetryable determines if an error is transient and may succeed on retry
// against the same provider.
func IsRetryable(err error) bool {
	var simErr *types.SimError
	if !errors.As(err, &simErr) {
		return false
	}
	if simErr.Retryable {
		return true
	}

	switch simErr.Code {
	case types.LLM_PROVIDER_RATE_LIMITED, types.LLM_PROVIDER_TRANSIENT, types.LLM_TIMEOUT_EXCEEDED:
		return true
	default:
		return false
	}
}

// IsFatal reports whether an error must abort generation entirely, with no
// retry and no fallback to another provider.
func IsFatal(err error) bool {
	switch types.CodeOf(err) {
	case types.LLM_PROVIDER_FATAL, types.LLM_PROVIDER_UNAUTHORIZED:
		return true
	default:
		return false
	}
}

// NewRateLimitError creates a retryable rate limit error.
func NewRateLimitError(providerName string) *types.SimError {
	return types.NewRetryableError(types.LLM_PROVIDER_RATE_LIMITED,
		"rate limit exceeded for provider: "+providerName)
}

// NewAuthError creates a fatal authentication error.
func NewAuthError(providerName string, cause error) *types.SimError {
	return &types.SimError{
		Code:    types.LLM_PROVIDER_UNAUTHORIZED,
		Message: fmt.Sprintf("provider %q authentication failed", providerName),
		Cause:   cause,
	}
}

// NewTransientError creates a retryable error for temporary provider failures.
func NewTransientError(providerName string, cause error) *types.SimError {
	return &types.SimError{
		Code:      types.LLM_PROVIDER_TRANSIENT,
		Message:   "provider temporarily unavailable: " + providerName,
		Retryable: true,
		Cause:     cause,
	}
}

// NewFatalError creates a non-recoverable provider error. Fatal errors
// abort the whole generation without fallback.
func NewFatalError(providerName string, message string, cause error) *types.SimError {
	return &types.SimError{
		Code:    types.LLM_PROVIDER_FATAL,
		Message: fmt.Sprintf("provider %q: %s", providerName, message),
		Cause:   cause,
	}
}

// NewTimeoutError creates a retryable timeout error.
func NewTimeoutError(message string) *types.SimError {
	return types.NewRetryableError(types.LLM_TIMEOUT_EXCEEDED, message)
}

// NewNoProviderError creates the error for an empty candidate set.
func NewNoProviderError(detail string) *types.SimError {
	return types.NewError(types.LLM_NO_PROVIDER_AVAILABLE, detail)
}

// TranslateError classifies raw provider/SDK errors into SimErrors based on
// message content. Errors that are already SimErrors, and context
// cancellation or deadline errors, pass through unchanged so callers can
// distinguish cancellation from provider failure.
func TranslateError(providerName string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var simErr *types.SimError
	if errors.As(err, &simErr) {
		return err
	}

	lowerMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lowerMsg, "unauthorized") ||
		strings.Contains(lowerMsg, "authentication") ||
		strings.Contains(lowerMsg, "api key"):
		return NewAuthError(providerName, err)
	case strings.Contains(lowerMsg, "rate limit") || strings.Contains(lowerMsg, "too many requests"):
		return NewRateLimitError(providerName)
	case strings.Contains(lowerMsg, "timeout") || strings.Contains(lowerMsg, "deadline"):
		return NewTimeoutError(err.Error())
	case strings.Contains(lowerMsg, "content policy") || strings.Contains(lowerMsg, "content filter"):
		return NewFatalError(providerName, "content filtered", err)
	case strings.Contains(lowerMsg, "invalid request") || strings.Contains(lowerMsg, "bad request"):
		return types.WrapError(types.LLM_PROVIDER_INVALID_INPUT, "invalid request to provider "+providerName, err)
	default:
		return NewTransientError(providerName, err)
	}
}
