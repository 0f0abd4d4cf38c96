package query

import (
	"context"

	"github.com/kailas-cloud/promodex/internal/db"
	"github.com/kailas-cloud/promodex/internal/domain"
)

// Searcher runs nearest-neighbor retrieval over stored chunks.
type Searcher interface {
	SearchKNN(ctx context.Context, vector []float32, k int) ([]db.Hit, error)
}

// FingerprintReader reads the fingerprint the store was indexed with.
type FingerprintReader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Embedder vectorizes query text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
