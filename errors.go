package promodex

import "github.com/kailas-cloud/promodex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrEmptyQuery          = domain.ErrEmptyQuery
	ErrNotFound            = domain.ErrNotFound
	ErrExtraction          = domain.ErrExtraction
	ErrEmbedding           = domain.ErrEmbedding
	ErrEmbeddingQuota      = domain.ErrEmbeddingQuota
	ErrRateLimited         = domain.ErrRateLimited
	ErrRetrieval           = domain.ErrRetrieval
	ErrStore               = domain.ErrStore
	ErrSummarizer          = domain.ErrSummarizer
	ErrFingerprintMismatch = domain.ErrFingerprintMismatch
)
