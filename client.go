package promodex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/promodex/internal/db"
	dbRedis "github.com/kailas-cloud/promodex/internal/db/redis"
	dbSqlite "github.com/kailas-cloud/promodex/internal/db/sqlite"
	"github.com/kailas-cloud/promodex/internal/domain"
	"github.com/kailas-cloud/promodex/internal/repository/embcache"
	"github.com/kailas-cloud/promodex/internal/snapshot"
	openaitr "github.com/kailas-cloud/promodex/internal/transport/openai"
	answeruc "github.com/kailas-cloud/promodex/internal/usecase/answer"
	embeddinguc "github.com/kailas-cloud/promodex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/promodex/internal/usecase/health"
	queryuc "github.com/kailas-cloud/promodex/internal/usecase/query"
	syncuc "github.com/kailas-cloud/promodex/internal/usecase/sync"
)

const (
	defaultReadinessTimeout = 10 * time.Second

	defaultIndexName   = "promodex-chunks"
	defaultKeyPrefix   = "promodex:"
	defaultSyncWorkers = 4

	defaultSummarizerBaseURL     = "https://api.groq.com/openai/v1"
	defaultSummarizerModel       = "llama-3.3-70b-versatile"
	defaultSummarizerTemperature = 0.2
	defaultSummarizerMaxTokens   = 2000
)

// Внутренние интерфейсы для подмены в тестах.
type syncUseCase interface {
	Reconcile(ctx context.Context, promos []domain.Promo) (syncuc.Report, error)
}

type queryUseCase interface {
	Search(ctx context.Context, query string, k int) ([]domain.Result, error)
}

type answerUseCase interface {
	Ask(ctx context.Context, question string, k, maxDescChars int) (answeruc.Answer, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// pipelineEmbedder is the decorated embedding chain the services consume.
type pipelineEmbedder interface {
	domain.Embedder
	domain.BatchEmbedder
}

// Client embeds the promo retrieval pipeline into the host process: the
// same chunking, sync and search machinery the HTTP service runs.
type Client struct {
	store     db.Store
	syncSvc   syncUseCase
	querySvc  queryUseCase
	answerSvc answerUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a promodex Client and connects to the chunk store.
// The provided context bounds the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		indexName: defaultIndexName,
		keyPrefix: defaultKeyPrefix,
		workers:   defaultSyncWorkers,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("promodex: chunk store required (use WithRedis or WithSQLite)")
	}
	if cfg.embedder != nil && cfg.fingerprint.Dimensions <= 0 {
		return nil, errors.New("promodex: embedder fingerprint needs positive dimensions")
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("promodex: chunk store not ready: %w", err)
	}

	if cfg.embedder != nil {
		if err := store.EnsureSchema(ctx, cfg.fingerprint.Dimensions); err != nil {
			store.Close()
			return nil, fmt.Errorf("promodex: ensure schema: %w", err)
		}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}

	c, err := wireClient(store, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:           cfg.addrs,
			Password:        cfg.password,
			IndexName:       cfg.indexName,
			KeyPrefix:       cfg.keyPrefix,
			HNSWM:           cfg.hnswM,
			HNSWEFConstruct: cfg.hnswEFConstruct,
		})
		if err != nil {
			return nil, fmt.Errorf("promodex: create redis store: %w", err)
		}
		return s, nil
	case "sqlite":
		s, err := dbSqlite.Open(cfg.path)
		if err != nil {
			return nil, fmt.Errorf("promodex: open sqlite store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("promodex: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fp := domain.Fingerprint{
		Provider:   cfg.fingerprint.Provider,
		Model:      cfg.fingerprint.Model,
		Dimensions: cfg.fingerprint.Dimensions,
	}

	// Embedder: noop если не задан (Ping и Stats работают, Sync/Search вернут ошибку).
	var base domain.Embedder = noopEmbedder{}
	if cfg.embedder != nil {
		base = &embedderAdapter{inner: cfg.embedder}
	}

	var chain pipelineEmbedder = embeddinguc.NewBatchingEmbedder(base, fp.Provider, fp.Model, logger)
	if cfg.cacheEnabled {
		chain = embcache.New(chain, store, fp.Model, cfg.cacheTTL, nil, logger)
	}

	var queryEmb domain.Embedder = chain
	if cfg.queryInstruction != "" {
		queryEmb = domain.NewInstructionEmbedder(chain, cfg.queryInstruction)
	}

	syncSvc := syncuc.New(store, store, store, chain, syncuc.Config{
		Workers:     cfg.workers,
		Chunking:    cfg.chunking,
		Fingerprint: fp,
	}, logger)

	querySvc := queryuc.New(store, store, queryEmb, queryuc.Config{Fingerprint: fp})

	completer, err := wireCompleter(cfg, logger)
	if err != nil {
		return nil, err
	}
	answerSvc := answeruc.New(querySvc, completer, answeruc.Config{}, logger)

	if cfg.snapshotPath != "" {
		snap := snapshot.New(cfg.snapshotPath)
		syncSvc = syncSvc.WithSnapshot(snap)
		answerSvc = answerSvc.WithFallback(snap)
	}

	healthSvc := healthuc.New(store, embeddingChecker(cfg.embedder))

	return &Client{
		store:     store,
		syncSvc:   syncSvc,
		querySvc:  querySvc,
		answerSvc: answerSvc,
		healthSvc: healthSvc,
		obs:       obs,
	}, nil
}

// wireCompleter picks the chat provider behind Ask: a custom Completer, the
// built-in OpenAI-compatible summarizer, or a noop that fails on first use.
func wireCompleter(cfg *clientConfig, logger *zap.Logger) (answeruc.Completer, error) {
	if cfg.completer != nil {
		return cfg.completer, nil
	}
	if cfg.summarizerKey == "" {
		return noopCompleter{}, nil
	}

	baseURL := cfg.summarizerBaseURL
	if baseURL == "" {
		baseURL = defaultSummarizerBaseURL
	}
	model := cfg.summarizerModel
	if model == "" {
		model = defaultSummarizerModel
	}

	s, err := openaitr.NewSummarizer(&openaitr.SummarizerConfig{
		APIKey:      cfg.summarizerKey,
		BaseURL:     baseURL,
		Model:       model,
		Temperature: defaultSummarizerTemperature,
		MaxTokens:   defaultSummarizerMaxTokens,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("promodex: %w", err)
	}
	return s, nil
}

// embeddingChecker exposes the embedder's health check when it has one.
func embeddingChecker(e Embedder) healthuc.EmbeddingChecker {
	if hc, ok := e.(healthuc.EmbeddingChecker); ok {
		return hc
	}
	return nil
}

// Close releases the chunk store connection.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks chunk store connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Sync reconciles the chunk store against the given promo set. The set is
// the full feed: stored promos missing from it are deleted. Records failing
// validation are skipped and counted in the report.
func (c *Client) Sync(ctx context.Context, promos []Promo) (report SyncReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("sync", start, err) }()

	converted, invalid := toDomainPromos(promos)
	rep, err := c.syncSvc.Reconcile(ctx, converted)
	if err != nil {
		return SyncReport{}, err
	}

	report = syncReportFromInternal(rep)
	report.Invalid = invalid
	return report, nil
}

// Search returns the top k promos for a free-text query, one result per
// promo. k <= 0 falls back to the default of 5.
func (c *Client) Search(ctx context.Context, query string, k int) (results []Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	found, err := c.querySvc.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	return resultsFromInternal(found), nil
}

// Ask answers a free-text question about current promos, grounded on
// retrieved context. k <= 0 falls back to the default of 8.
func (c *Client) Ask(ctx context.Context, question string, k int) (ans Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ask", start, err) }()

	a, err := c.answerSvc.Ask(ctx, question, k, 0)
	if err != nil {
		return Answer{}, err
	}
	return answerFromInternal(a), nil
}

// Stats reports stored chunk and promo counts.
func (c *Client) Stats(ctx context.Context) (stats Stats, err error) {
	start := time.Now()
	defer func() { c.obs.observe("stats", start, err) }()

	chunks, err := c.store.CountChunks(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: count chunks: %w", domain.ErrStore, err)
	}
	parents, err := c.store.ParentIDs(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: list parents: %w", domain.ErrStore, err)
	}
	return Stats{Chunks: chunks, Promos: len(parents)}, nil
}

// Health reports component availability. The store is the hard dependency;
// a failing embedding provider only degrades.
func (c *Client) Health(ctx context.Context) HealthReport {
	return healthFromInternal(c.healthSvc.Check(ctx))
}

// embedderAdapter wraps the public Embedder to satisfy domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// BatchEmbed forwards to the public BatchEmbedder when implemented, else
// falls back to per-text Embed.
func (a *embedderAdapter) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	be, ok := a.inner.(BatchEmbedder)
	if !ok {
		return domain.BatchFallback(ctx, a, texts)
	}

	r, err := be.BatchEmbed(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   r.Embeddings,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// noopEmbedder returns an error on use (when no embedder is configured).
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, errors.New(
		"promodex: embedder not configured (use WithEmbedder)",
	)
}

// noopCompleter returns an error on use (when no summarizer is configured).
type noopCompleter struct{}

func (noopCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	return "", errors.New(
		"promodex: summarizer not configured (use WithSummarizer or WithCompleter)",
	)
}
