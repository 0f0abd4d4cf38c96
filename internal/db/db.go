// Package db defines the chunk store facade implemented by the redis and
// sqlite drivers. The store holds embedded promo chunks plus a small KV
// namespace for the index fingerprint and the embedding cache.
package db

import (
	"context"
	"time"

	"github.com/kailas-cloud/promodex/internal/domain"
)

// KeyFingerprint is the KV key holding the embedding fingerprint the store
// was indexed with. Drivers apply their own key prefix.
const KeyFingerprint = "meta:fingerprint"

// Store is the main chunk store facade combining all sub-interfaces.
//
//nolint:interfacebloat // consumers depend on the narrow sub-interfaces
type Store interface {
	Pinger
	ChunkStore
	Searcher
	KVStore
	SchemaManager
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoredChunk pairs a chunk with its embedding vector for persistence.
type StoredChunk struct {
	Chunk     domain.Chunk
	Embedding []float32
}

// Hit is a single nearest-neighbor match. Distance is the raw cosine
// distance reported by the driver; ranking math happens above this layer.
type Hit struct {
	Chunk    domain.Chunk
	Distance float64
}

// ChunkStore provides chunk persistence at promo granularity.
type ChunkStore interface {
	// UpsertChunks writes the full chunk set of one or more promos.
	UpsertChunks(ctx context.Context, chunks []StoredChunk) error
	// DeleteParent removes every chunk belonging to the parent and reports
	// how many were deleted. Deleting an absent parent is not an error.
	DeleteParent(ctx context.Context, parentID string) (int, error)
	// ParentIDs lists the distinct parent ids currently stored.
	ParentIDs(ctx context.Context) ([]string, error)
	// CountChunks returns the total number of stored chunks.
	CountChunks(ctx context.Context) (int, error)
}

// Searcher provides nearest-neighbor retrieval over stored chunks.
type Searcher interface {
	SearchKNN(ctx context.Context, vector []float32, k int) ([]Hit, error)
}

// KVStore provides simple key-value operations (fingerprint, embedding
// cache, budget counters).
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// IncrBy atomically increments the integer value at key by val,
	// creating the key at zero when absent.
	IncrBy(ctx context.Context, key string, val int64) error
	// Expire sets the TTL on a key. When nx is true the TTL is set only if
	// the key has no expiry yet.
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// SchemaManager prepares and tears down the driver's schema or index.
type SchemaManager interface {
	// EnsureSchema creates the vector index / tables if missing. Idempotent.
	EnsureSchema(ctx context.Context, dimensions int) error
	// DropSchema removes the schema. Dropping an absent schema is not an error.
	DropSchema(ctx context.Context) error
}
