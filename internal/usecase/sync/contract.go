package sync

import (
	"context"

	"github.com/kailas-cloud/promodex/internal/db"
	"github.com/kailas-cloud/promodex/internal/domain"
)

// ChunkWriter mutates the chunk store at promo granularity.
type ChunkWriter interface {
	UpsertChunks(ctx context.Context, chunks []db.StoredChunk) error
	DeleteParent(ctx context.Context, parentID string) (int, error)
	ParentIDs(ctx context.Context) ([]string, error)
}

// SchemaManager rebuilds the store schema when the embedding setup changes.
type SchemaManager interface {
	EnsureSchema(ctx context.Context, dimensions int) error
	DropSchema(ctx context.Context) error
}

// FingerprintStore reads and writes the index fingerprint.
type FingerprintStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Embedder vectorizes chunk texts. Batch size limits are the embedder's
// concern, not the caller's.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// SnapshotWriter persists the reconciled promo set for degraded-mode reads.
type SnapshotWriter interface {
	Save(promos []domain.Promo) error
}
