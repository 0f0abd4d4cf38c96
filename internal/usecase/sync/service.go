// Package sync reconciles the chunk store against a scraped promo set: new
// and changed promos are re-chunked, re-embedded and upserted, promos that
// left the feed are deleted. One promo failing never stops the run; the
// report records every outcome.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/promodex/internal/chunker"
	"github.com/kailas-cloud/promodex/internal/db"
	"github.com/kailas-cloud/promodex/internal/domain"
	"github.com/kailas-cloud/promodex/internal/metrics"
)

// Config tunes reconciliation. Fingerprint names the embedding setup chunks
// are vectorized with; a change against the stored value forces a rebuild.
type Config struct {
	Workers     int // promos reconciled in parallel, <= 1 runs sequentially
	Chunking    chunker.Config
	Fingerprint domain.Fingerprint
}

// Service reconciles scraped promos into the chunk store.
type Service struct {
	store    ChunkWriter
	schema   SchemaManager
	kv       FingerprintStore
	embed    Embedder
	snapshot SnapshotWriter
	cfg      Config
	logger   *zap.Logger
}

// New creates a sync service.
func New(
	store ChunkWriter, schema SchemaManager, kv FingerprintStore,
	embed Embedder, cfg Config, logger *zap.Logger,
) *Service {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Service{
		store: store, schema: schema, kv: kv,
		embed: embed, cfg: cfg, logger: logger,
	}
}

// WithSnapshot configures a snapshot written after each completed run.
func (s *Service) WithSnapshot(w SnapshotWriter) *Service {
	s.snapshot = w
	return s
}

// Reconcile makes the store match the given promo set. Identical input twice
// leaves identical store contents. The error return covers conditions that
// abort the whole run; per-promo failures live in the report.
func (s *Service) Reconcile(ctx context.Context, promos []domain.Promo) (Report, error) {
	start := time.Now()

	rebuilt, err := s.ensureFingerprint(ctx)
	if err != nil {
		return Report{}, err
	}

	stored, err := s.store.ParentIDs(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("%w: list stored parents: %w", domain.ErrStore, err)
	}

	report := Report{Rebuilt: rebuilt}
	report.OrphansDeleted, report.OrphansFailed = s.deleteOrphans(ctx, orphans(stored, promos))
	report.Results = s.reconcilePromos(ctx, promos)
	report.Duration = time.Since(start)

	s.finishRun(ctx, promos, report)
	return report, nil
}

// orphans returns the stored parent ids no longer present in the feed.
func orphans(stored []string, promos []domain.Promo) []string {
	scraped := make(map[string]struct{}, len(promos))
	for _, p := range promos {
		scraped[p.ID()] = struct{}{}
	}

	var out []string
	for _, id := range stored {
		if _, ok := scraped[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// deleteOrphans removes every chunk of each orphaned promo. A failed orphan
// stays stored and is retried on the next run.
func (s *Service) deleteOrphans(ctx context.Context, ids []string) (deleted, failed int) {
	for _, id := range ids {
		n, err := s.store.DeleteParent(ctx, id)
		if err != nil {
			failed++
			s.logger.Warn("Orphan delete failed",
				zap.String("parent_id", id),
				zap.Error(err),
			)
			continue
		}
		deleted++
		s.logger.Info("Orphan deleted",
			zap.String("parent_id", id),
			zap.Int("chunks", n),
		)
	}
	return deleted, failed
}

func (s *Service) reconcilePromos(ctx context.Context, promos []domain.Promo) []PromoResult {
	if s.cfg.Workers <= 1 {
		return s.reconcileSequential(ctx, promos)
	}
	return s.reconcileParallel(ctx, promos)
}

func (s *Service) reconcileSequential(ctx context.Context, promos []domain.Promo) []PromoResult {
	results := make([]PromoResult, len(promos))
	for i, p := range promos {
		res, cascade := s.reconcilePromo(ctx, p)
		results[i] = res
		s.logResult(res)
		if cascade {
			// Quota and rate-limit errors doom every later embed call too;
			// mark the rest skipped instead of hammering the provider.
			for j := i + 1; j < len(promos); j++ {
				results[j] = NewSkipped(promos[j].ID(), promos[j].URL(), res.Err())
			}
			break
		}
	}
	return results
}

// reconcileParallel fans promos out over a worker pool. Results come back
// through a channel keyed by input position, so no worker ever touches
// shared state. A cascade error cancels the pool; promos not yet started
// are reported skipped with the cancellation cause.
func (s *Service) reconcileParallel(ctx context.Context, promos []domain.Promo) []PromoResult {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	type indexed struct {
		i   int
		res PromoResult
	}

	jobs := make(chan int)
	out := make(chan indexed, len(promos))

	var g errgroup.Group
	for w := 0; w < s.cfg.Workers; w++ {
		g.Go(func() error {
			for i := range jobs {
				if cause := context.Cause(ctx); cause != nil {
					out <- indexed{i, NewSkipped(promos[i].ID(), promos[i].URL(), cause)}
					continue
				}
				res, cascade := s.reconcilePromo(ctx, promos[i])
				if cascade {
					cancel(res.Err())
				}
				s.logResult(res)
				out <- indexed{i, res}
			}
			return nil
		})
	}

	go func() {
		for i := range promos {
			jobs <- i
		}
		close(jobs)
		_ = g.Wait()
		close(out)
	}()

	results := make([]PromoResult, len(promos))
	for ix := range out {
		results[ix.i] = ix.res
	}
	return results
}

// reconcilePromo is the per-promo unit of work: delete old chunks, rebuild,
// embed, upsert. The second return reports a cascade condition that should
// stop the remaining promos.
func (s *Service) reconcilePromo(ctx context.Context, p domain.Promo) (PromoResult, bool) {
	if _, err := s.store.DeleteParent(ctx, p.ID()); err != nil {
		// Upserting after a failed delete could leave stale chunks next to
		// fresh ones, so the promo is abandoned for this run.
		return NewFailed(p.ID(), p.URL(),
			fmt.Errorf("%w: delete parent: %w", domain.ErrStore, err)), false
	}

	chunks := chunker.BuildChunks(p, s.cfg.Chunking)

	vectors, cascade, err := s.vectorize(ctx, chunks)
	if err != nil {
		return NewFailed(p.ID(), p.URL(), err), cascade
	}

	stored := make([]db.StoredChunk, len(chunks))
	for i, c := range chunks {
		stored[i] = db.StoredChunk{Chunk: c, Embedding: vectors[i]}
	}
	if err := s.store.UpsertChunks(ctx, stored); err != nil {
		return NewFailed(p.ID(), p.URL(),
			fmt.Errorf("%w: upsert chunks: %w", domain.ErrStore, err)), false
	}
	return NewOK(p.ID(), p.URL(), len(chunks)), false
}

func (s *Service) vectorize(ctx context.Context, chunks []domain.Chunk) ([][]float32, bool, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.EmbedText()
	}

	result, err := s.embed.BatchEmbed(ctx, texts)
	if err != nil {
		cascade := errors.Is(err, domain.ErrEmbeddingQuota) || errors.Is(err, domain.ErrRateLimited)
		return nil, cascade, fmt.Errorf("vectorize chunks: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, false, fmt.Errorf("%w: got %d embeddings for %d chunks",
			domain.ErrEmbedding, len(result.Embeddings), len(texts))
	}
	return result.Embeddings, false, nil
}

// ensureFingerprint compares the stored fingerprint with the configured
// embedding setup. On a mismatch the stored vectors are useless, so the
// whole schema is dropped, recreated and restamped before any upsert.
func (s *Service) ensureFingerprint(ctx context.Context) (bool, error) {
	raw, err := s.kv.Get(ctx, db.KeyFingerprint)
	if errors.Is(err, db.ErrKeyNotFound) {
		return false, nil // first sync stamps the store after it completes
	}
	if err != nil {
		return false, fmt.Errorf("%w: read fingerprint: %w", domain.ErrStore, err)
	}

	stored, err := domain.ParseFingerprint(string(raw))
	if err == nil && stored.Matches(s.cfg.Fingerprint) {
		return false, nil
	}

	s.logger.Warn("Embedding fingerprint changed, rebuilding index",
		zap.String("stored", string(raw)),
		zap.String("configured", s.cfg.Fingerprint.String()),
	)

	if err := s.schema.DropSchema(ctx); err != nil {
		return false, fmt.Errorf("%w: drop schema: %w", domain.ErrStore, err)
	}
	if err := s.schema.EnsureSchema(ctx, s.cfg.Fingerprint.Dimensions); err != nil {
		return false, fmt.Errorf("%w: ensure schema: %w", domain.ErrStore, err)
	}
	if err := s.kv.Set(ctx, db.KeyFingerprint, []byte(s.cfg.Fingerprint.String())); err != nil {
		return false, fmt.Errorf("%w: write fingerprint: %w", domain.ErrStore, err)
	}
	return true, nil
}

// finishRun records metrics and persists run artifacts: the promo snapshot
// for degraded-mode reads, and the fingerprint on a first sync. Neither
// failing invalidates the reconciliation itself.
func (s *Service) finishRun(ctx context.Context, promos []domain.Promo, report Report) {
	for _, res := range report.Results {
		metrics.SyncPromosTotal.WithLabelValues(string(res.Status())).Inc()
	}
	metrics.SyncChunksUpsertedTotal.Add(float64(report.ChunksUpserted()))
	metrics.SyncOrphansDeletedTotal.Add(float64(report.OrphansDeleted))
	metrics.SyncDuration.Observe(report.Duration.Seconds())

	if s.snapshot != nil {
		if err := s.snapshot.Save(promos); err != nil {
			s.logger.Warn("Snapshot write failed", zap.Error(err))
		}
	}

	if _, err := s.kv.Get(ctx, db.KeyFingerprint); errors.Is(err, db.ErrKeyNotFound) {
		if err := s.kv.Set(ctx, db.KeyFingerprint, []byte(s.cfg.Fingerprint.String())); err != nil {
			s.logger.Warn("Fingerprint write failed", zap.Error(err))
		}
	}

	s.logger.Info("Sync run finished",
		zap.Int("promos", report.Total()),
		zap.Int("succeeded", report.Succeeded()),
		zap.Int("failed", report.Failed()),
		zap.Int("skipped", report.Skipped()),
		zap.Int("chunks_upserted", report.ChunksUpserted()),
		zap.Int("orphans_deleted", report.OrphansDeleted),
		zap.Bool("rebuilt", report.Rebuilt),
		zap.Duration("duration", report.Duration),
	)
}

func (s *Service) logResult(res PromoResult) {
	switch res.Status() {
	case StatusOK:
		s.logger.Info("Promo reconciled",
			zap.String("promo_id", res.PromoID()),
			zap.Int("chunks", res.Chunks()),
		)
	case StatusFailed:
		s.logger.Error("Promo reconcile failed",
			zap.String("promo_id", res.PromoID()),
			zap.String("url", res.URL()),
			zap.Error(res.Err()),
		)
	case StatusSkipped:
	}
}
