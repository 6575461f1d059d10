// Package errors provides standardized error handling for the query pipeline.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeRateLimitExceeded   ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeNoProviderAvailable ErrorCode = "NO_PROVIDER_AVAILABLE"
	ErrCodeProviderError       ErrorCode = "PROVIDER_ERROR"
	ErrCodeProviderTimeout     ErrorCode = "PROVIDER_TIMEOUT"
	ErrCodeHealthProbeFailed   ErrorCode = "HEALTH_PROBE_FAILED"
	ErrCodeAnalysisError       ErrorCode = "ANALYSIS_ERROR"
)

// Sentinels for errors.Is checks across package boundaries.
var (
	ErrRateLimitExceeded   = errors.New("RATE_LIMIT_EXCEEDED")
	ErrNoProviderAvailable = errors.New("NO_PROVIDER_AVAILABLE")
	ErrProviderError       = errors.New("PROVIDER_ERROR")
	ErrAnalysisError       = errors.New("ANALYSIS_ERROR")
)

// StandardError represents a structured application error. Provider carries
// the id of the provider that originated the failure, when there is one, so
// callers can decide whether a retry is worth it.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Provider  string                 `json:"provider,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("StandardError[%s] provider=%s: %s", e.Code, e.Provider, e.Message)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is maps error codes onto the package sentinels.
func (e *StandardError) Is(target error) bool {
	switch target {
	case ErrRateLimitExceeded:
		return e.Code == ErrCodeRateLimitExceeded
	case ErrNoProviderAvailable:
		return e.Code == ErrCodeNoProviderAvailable
	case ErrProviderError:
		return e.Code == ErrCodeProviderError || e.Code == ErrCodeProviderTimeout
	case ErrAnalysisError:
		return e.Code == ErrCodeAnalysisError
	}
	return false
}

// NewRateLimitExceededError creates the error returned when the request
// ceiling for the trailing window is already met. Callers should back off;
// the pipeline never retries this internally.
func NewRateLimitExceededError(current, limit int) *StandardError {
	return &StandardError{
		Code:      ErrCodeRateLimitExceeded,
		Message:   "request rate limit exceeded",
		Details:   fmt.Sprintf("requestsPerMinute: %d, limit: %d", current, limit),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoProviderAvailableError creates the terminal error raised when every
// configured provider is unhealthy.
func NewNoProviderAvailableError() *StandardError {
	return &StandardError{
		Code:      ErrCodeNoProviderAvailable,
		Message:   "no text-generation provider available",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderError creates a retryable provider call error.
func NewProviderError(provider string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderError,
		Message:   "provider call failed",
		Details:   err.Error(),
		Provider:  provider,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderTimeoutError creates a retryable provider timeout error.
func NewProviderTimeoutError(provider string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderTimeout,
		Message:   "provider call timed out",
		Provider:  provider,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewHealthProbeFailedError records a failed liveness probe.
func NewHealthProbeFailedError(provider string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeHealthProbeFailed,
		Message:   "provider health probe failed",
		Details:   err.Error(),
		Provider:  provider,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAnalysisError creates a non-retryable structuring error.
func NewAnalysisError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAnalysisError,
		Message:   "generated text could not be structured",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// IsRetryable reports whether err carries a retryable StandardError.
func IsRetryable(err error) bool {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// CodeOf extracts the error code from err, or empty if err is not a
// StandardError.
func CodeOf(err error) ErrorCode {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
