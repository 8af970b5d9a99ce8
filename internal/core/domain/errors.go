package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIndexInProgress indicates an indexing job is already running.
	// Starting a second build is rejected, never queued.
	ErrIndexInProgress = errors.New("indexing already in progress")

	// ErrDimensionMismatch indicates a vector's length disagrees with the
	// store's established embedding width. Fatal to the current operation
	// but not to the process.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Semantic indexing and search are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// ErrorKind classifies an embedding provider failure. Classification
// happens exactly once, in the embedding adapter, and propagates
// unchanged to the job state and error callbacks.
type ErrorKind string

// Provider error kinds.
const (
	// ErrorKindNetwork is a transport-level failure (DNS, connect, timeout).
	ErrorKindNetwork ErrorKind = "network"

	// ErrorKindRateLimit is a provider 429 or a local rate-limit rejection.
	ErrorKindRateLimit ErrorKind = "rate_limit"

	// ErrorKindAuth is an invalid or missing API key (401/403).
	ErrorKindAuth ErrorKind = "auth"

	// ErrorKindInvalidRequest is a malformed request the provider rejected (4xx).
	ErrorKindInvalidRequest ErrorKind = "invalid_request"

	// ErrorKindServer is a provider-side failure (5xx).
	ErrorKindServer ErrorKind = "server"

	// ErrorKindConfig is a local misconfiguration (missing key, bad base URL).
	ErrorKindConfig ErrorKind = "config"

	// ErrorKindUnknown is anything that resists classification.
	ErrorKindUnknown ErrorKind = "unknown"
)

// Retryable reports whether a failure of this kind leaves the operation
// worth retrying without a configuration change.
func (k ErrorKind) Retryable() bool {
	switch k {
	case ErrorKindNetwork, ErrorKindRateLimit, ErrorKindServer:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k ErrorKind) String() string {
	return string(k)
}

// ProviderError wraps an embedding provider failure with its classification.
type ProviderError struct {
	// Kind is the failure classification.
	Kind ErrorKind

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("embedding %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("embedding %s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the wrapped failure is retryable.
func (e *ProviderError) Retryable() bool {
	return e.Kind.Retryable()
}

// NewProviderError constructs a classified provider error.
func NewProviderError(kind ErrorKind, message string, err error) *ProviderError {
	return &ProviderError{Kind: kind, Message: message, Err: err}
}

// ClassifyError extracts the provider classification from an error chain.
// Unclassified errors report ErrorKindUnknown.
func ClassifyError(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ErrorKindUnknown
}
