package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/promodex/internal/db"
	"github.com/kailas-cloud/promodex/internal/domain"
	"github.com/kailas-cloud/promodex/internal/domain/period"
	"github.com/kailas-cloud/promodex/internal/metrics"
)

// Defaults applied when Config leaves a knob at zero.
const (
	DefaultTopK             = 5
	DefaultMaxTopK          = 50
	DefaultOversampleFactor = 8
	DefaultOversampleFloor  = 40
)

// Config tunes retrieval breadth and carries the embedding setup queries run
// with. Fingerprint is compared against the store on every search.
type Config struct {
	TopK             int
	MaxTopK          int
	OversampleFactor int
	OversampleFloor  int
	Fingerprint      domain.Fingerprint
}

func (c Config) normalized() Config {
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.MaxTopK <= 0 {
		c.MaxTopK = DefaultMaxTopK
	}
	if c.OversampleFactor <= 0 {
		c.OversampleFactor = DefaultOversampleFactor
	}
	if c.OversampleFloor <= 0 {
		c.OversampleFloor = DefaultOversampleFloor
	}
	return c
}

// Service handles promo search: embed, oversample, month-boost, collapse.
type Service struct {
	store Searcher
	kv    FingerprintReader
	embed Embedder
	cfg   Config
}

// New creates a query service.
func New(store Searcher, kv FingerprintReader, embed Embedder, cfg Config) *Service {
	return &Service{store: store, kv: kv, embed: embed, cfg: cfg.normalized()}
}

// Search returns the top k promos for a free-text query, one result per
// promo. k <= 0 falls back to the configured default; fewer matches than k
// is not an error.
func (s *Service) Search(ctx context.Context, query string, k int) ([]domain.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	k = s.clampK(k)

	if err := s.checkFingerprint(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		metrics.QueryDuration.Observe(time.Since(start).Seconds())
	}()

	detected := period.Detect(query)

	embResult, err := s.embed.Embed(ctx, augmentQuery(query, detected))
	if err != nil {
		return nil, fmt.Errorf("%w: vectorize query: %w", domain.ErrRetrieval, err)
	}

	hits, err := s.store.SearchKNN(ctx, embResult.Embedding, s.oversample(k))
	if err != nil {
		return nil, fmt.Errorf("%w: search knn: %w", domain.ErrRetrieval, err)
	}

	results, boosted := rank(hits, detected, k)
	metrics.QueryBoostedHitsTotal.Add(float64(boosted))
	return results, nil
}

// clampK maps k <= 0 to the default and caps oversized requests.
func (s *Service) clampK(k int) int {
	if k <= 0 {
		return s.cfg.TopK
	}
	if k > s.cfg.MaxTopK {
		return s.cfg.MaxTopK
	}
	return k
}

// oversample widens retrieval beyond k so parent collapse still has enough
// distinct promos to fill the page.
func (s *Service) oversample(k int) int {
	n := s.cfg.OversampleFactor * k
	if n < s.cfg.OversampleFloor {
		n = s.cfg.OversampleFloor
	}
	return n
}

// augmentQuery appends every synonym of the detected months so month intent
// survives vectorization. The instruction prefix is the embedder's job.
func augmentQuery(query string, detected []string) string {
	syns := period.ExpandSynonyms(detected)
	if len(syns) == 0 {
		return query
	}
	return query + " " + strings.Join(syns, " ")
}

// checkFingerprint rejects queries against a store indexed with a different
// embedding setup. A store with no fingerprint has never been synced; it
// simply answers with no hits.
func (s *Service) checkFingerprint(ctx context.Context) error {
	raw, err := s.kv.Get(ctx, db.KeyFingerprint)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil
		}
		return fmt.Errorf("%w: read fingerprint: %w", domain.ErrRetrieval, err)
	}

	stored, err := domain.ParseFingerprint(string(raw))
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrFingerprintMismatch, err)
	}
	if !stored.Matches(s.cfg.Fingerprint) {
		return fmt.Errorf("%w: store indexed with %s, configured %s",
			domain.ErrFingerprintMismatch, stored, s.cfg.Fingerprint)
	}
	return nil
}
