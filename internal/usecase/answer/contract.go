package answer

import (
	"context"

	"github.com/kailas-cloud/promodex/internal/domain"
)

// Retriever runs ranked promo retrieval.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]domain.Result, error)
}

// Completer generates a chat completion from a system and user message.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// FallbackSource supplies unranked promos when retrieval is down.
type FallbackSource interface {
	Fallback(k int) ([]domain.Promo, error)
}
