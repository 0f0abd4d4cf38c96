package chunker

import (
	"fmt"

	"github.com/kailas-cloud/promodex/internal/domain"
)

// BuildChunks derives the full chunk set for one promotion. Promotions whose
// base text is too short to split still produce a single synthetic chunk
// carrying title, URL and period so they remain searchable.
func BuildChunks(p domain.Promo, cfg Config) []domain.Chunk {
	texts := Split(p.BaseText(), cfg)
	if len(texts) == 0 {
		texts = []string{syntheticText(p)}
	}

	out := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		out[i] = domain.NewChunk(p, i, t)
	}
	return out
}

func syntheticText(p domain.Promo) string {
	return fmt.Sprintf("Title: %s\nURL: %s\nPeriod: %s", p.Title(), p.URL(), p.Period())
}
