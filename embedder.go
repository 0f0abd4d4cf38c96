package promodex

import "context"

// Embedder converts text to vector embeddings.
// Required for Sync, Search and Ask; Ping, Stats and Health work without it.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes multiple texts in a single API call. Optional:
// when the provided Embedder also implements it, sync runs batch their
// provider requests instead of embedding chunk by chunk.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries multiple embedding vectors and aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// Fingerprint identifies the embedding setup: provider, model and vector
// dimensionality. Vectors from different setups are not comparable, so the
// client verifies it against the store on every sync and search.
type Fingerprint struct {
	Provider   string
	Model      string
	Dimensions int
}

// Completer generates a chat completion from a system and user message.
// Ask uses it to turn retrieved promo context into an answer.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
