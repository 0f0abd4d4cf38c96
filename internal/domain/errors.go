package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrExtraction signals a malformed source record; the record is skipped.
	ErrExtraction = errors.New("extraction failed")
	// ErrEmbedding signals an embedding provider failure.
	ErrEmbedding = errors.New("embedding failed")
	// ErrEmbeddingQuota signals an exhausted embedding quota.
	ErrEmbeddingQuota = errors.New("embedding quota exceeded")
	// ErrStore signals a chunk store failure.
	ErrStore = errors.New("store operation failed")
	// ErrRetrieval signals a query-time embedding or store failure.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrSummarizer signals an answer-generation provider failure.
	ErrSummarizer = errors.New("summarizer failed")
	// ErrEmptyQuery signals a blank query string.
	ErrEmptyQuery = errors.New("query text is empty")
	// ErrFingerprintMismatch signals that the store was indexed with a
	// different embedding provider, model or dimensionality.
	ErrFingerprintMismatch = errors.New("embedding fingerprint mismatch")
)

// PromoError attaches the owning promo to a sync failure, so per-promo
// results stay attributable after the batch continues past them.
type PromoError struct {
	PromoID string
	URL     string
	Err     error
}

func (e *PromoError) Error() string {
	return fmt.Sprintf("promo %s: %v", e.PromoID, e.Err)
}

func (e *PromoError) Unwrap() error { return e.Err }

// NewPromoError wraps err with promo identity.
func NewPromoError(promoID, url string, err error) error {
	return &PromoError{PromoID: promoID, URL: url, Err: err}
}
