package sdk

import (
	"errors"
	"fmt"
)

// Sentinel errors matching the service's machine-readable error codes.
// Use errors.Is() to check.
var (
	ErrBadRequest          = errors.New("bad request")
	ErrValidation          = errors.New("validation failed")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNotFound            = errors.New("not found")
	ErrFingerprintMismatch = errors.New("embedding fingerprint mismatch")
	ErrRateLimited         = errors.New("rate limited")
	ErrEmbeddingQuota      = errors.New("embedding quota exceeded")
	ErrEmbedding           = errors.New("embedding provider error")
	ErrSummarizer          = errors.New("summarizer error")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrInternal            = errors.New("internal error")
)

// APIError is a structured error returned by the service.
type APIError struct {
	Status  int    // HTTP status code
	Code    string // machine-readable error code
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("promodex api: %s (%s, http %d)", e.Message, e.Code, e.Status)
}

// Unwrap maps the wire code onto a sentinel error so callers can use
// errors.Is without knowing the code strings.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "bad_request":
		return ErrBadRequest
	case "validation_failed":
		return ErrValidation
	case "unauthorized":
		return ErrUnauthorized
	case "not_found":
		return ErrNotFound
	case "fingerprint_mismatch":
		return ErrFingerprintMismatch
	case "rate_limited":
		return ErrRateLimited
	case "embedding_quota_exceeded":
		return ErrEmbeddingQuota
	case "embedding_provider_error":
		return ErrEmbedding
	case "summarizer_error":
		return ErrSummarizer
	case "store_unavailable":
		return ErrStoreUnavailable
	default:
		return ErrInternal
	}
}
