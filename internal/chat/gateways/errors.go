// Package gateways contains model gateway implementations.
package gateways

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FailureReason categorizes why a gateway request failed. It drives the
// retry decision inside each gateway.
type FailureReason string

const (
	// FailureRateLimit indicates rate limiting (HTTP 429).
	FailureRateLimit FailureReason = "rate_limit"

	// FailureAuth indicates authentication failure (HTTP 401, 403).
	FailureAuth FailureReason = "auth"

	// FailureTimeout indicates a request timeout.
	FailureTimeout FailureReason = "timeout"

	// FailureServerError indicates server-side issues (HTTP 5xx).
	FailureServerError FailureReason = "server_error"

	// FailureInvalidRequest indicates client-side issues (HTTP 400).
	FailureInvalidRequest FailureReason = "invalid_request"

	// FailureModelUnavailable indicates the model is not available.
	FailureModelUnavailable FailureReason = "model_unavailable"

	// FailureUnknown indicates an unclassified error.
	FailureUnknown FailureReason = "unknown"
)

// IsRetryable reports whether retrying the same request may succeed.
func (r FailureReason) IsRetryable() bool {
	switch r {
	case FailureRateLimit, FailureTimeout, FailureServerError:
		return true
	default:
		return false
	}
}

// GatewayError is a structured error from a model gateway. It captures the
// context needed for retry decisions and debugging.
type GatewayError struct {
	// Reason categorizes the error for retry logic.
	Reason FailureReason

	// Gateway is the gateway name, e.g. "anthropic" or "ollama".
	Gateway string

	// Model is the model that was requested.
	Model string

	// Status is the HTTP status code, if applicable.
	Status int

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	parts := []string{fmt.Sprintf("[%s]", e.Reason)}
	if e.Gateway != "" {
		parts = append(parts, e.Gateway)
	}
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}
	if e.Status != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.Status))
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying error.
func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// NewGatewayError wraps cause with gateway context and a classified reason.
func NewGatewayError(gateway, model string, cause error) *GatewayError {
	err := &GatewayError{
		Gateway: gateway,
		Model:   model,
		Cause:   cause,
		Reason:  FailureUnknown,
	}
	if cause != nil {
		err.Reason = ClassifyError(cause)
	}
	return err
}

// WithStatus records the HTTP status and reclassifies from it.
func (e *GatewayError) WithStatus(status int) *GatewayError {
	e.Status = status
	e.Reason = classifyStatusCode(status)
	return e
}

// ClassifyError inspects an error and returns the matching FailureReason.
// Classification is by message pattern; providers do not expose typed
// errors consistently enough to switch on.
func ClassifyError(err error) FailureReason {
	if err == nil {
		return FailureUnknown
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "context deadline") {
		return FailureTimeout
	}

	if strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "rate_limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429") {
		return FailureRateLimit
	}

	if strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "invalid api key") ||
		strings.Contains(errStr, "invalid_api_key") ||
		strings.Contains(errStr, "authentication") ||
		strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "403") {
		return FailureAuth
	}

	if strings.Contains(errStr, "model not found") ||
		strings.Contains(errStr, "model_not_found") ||
		strings.Contains(errStr, "does not exist") ||
		strings.Contains(errStr, "unavailable") {
		return FailureModelUnavailable
	}

	if strings.Contains(errStr, "internal server") ||
		strings.Contains(errStr, "server error") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") {
		return FailureServerError
	}

	return FailureUnknown
}

func classifyStatusCode(status int) FailureReason {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return FailureAuth
	case status == http.StatusTooManyRequests:
		return FailureRateLimit
	case status == http.StatusBadRequest:
		return FailureInvalidRequest
	case status == http.StatusNotFound:
		return FailureModelUnavailable
	case status >= 500:
		return FailureServerError
	default:
		return FailureUnknown
	}
}

// IsRetryable reports whether the error is worth retrying, unwrapping
// GatewayError when present and classifying raw errors otherwise.
func IsRetryable(err error) bool {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Reason.IsRetryable()
	}
	return ClassifyError(err).IsRetryable()
}
