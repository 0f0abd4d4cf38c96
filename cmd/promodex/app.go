package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/promodex/internal/chunker"
	"github.com/kailas-cloud/promodex/internal/config"
	"github.com/kailas-cloud/promodex/internal/db"
	dbRedis "github.com/kailas-cloud/promodex/internal/db/redis"
	dbSqlite "github.com/kailas-cloud/promodex/internal/db/sqlite"
	"github.com/kailas-cloud/promodex/internal/domain"
	"github.com/kailas-cloud/promodex/internal/metrics"
	budgetrepo "github.com/kailas-cloud/promodex/internal/repository/budget"
	"github.com/kailas-cloud/promodex/internal/repository/embcache"
	"github.com/kailas-cloud/promodex/internal/snapshot"
	openaiTr "github.com/kailas-cloud/promodex/internal/transport/openai"
	answeruc "github.com/kailas-cloud/promodex/internal/usecase/answer"
	embeddinguc "github.com/kailas-cloud/promodex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/promodex/internal/usecase/health"
	queryuc "github.com/kailas-cloud/promodex/internal/usecase/query"
	syncuc "github.com/kailas-cloud/promodex/internal/usecase/sync"
	usageuc "github.com/kailas-cloud/promodex/internal/usecase/usage"
)

// app is the wired service graph every command draws from.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	store  db.Store

	syncSvc   *syncuc.Service
	querySvc  *queryuc.Service
	answerSvc *answeruc.Service
	healthSvc *healthuc.Service
	usageSvc  *usageuc.Service
}

// newApp builds the full service graph from configuration. The caller owns
// the returned app and must Close it.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	// Create the chunk store based on driver
	var store db.Store
	var err error
	switch cfg.Database.Driver {
	case "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:           cfg.Database.Addrs,
			Password:        cfg.Database.Password,
			DB:              cfg.Database.DB,
			IndexName:       cfg.Index.Name,
			KeyPrefix:       cfg.Index.KeyPrefix,
			HNSWM:           cfg.Index.HNSWM,
			HNSWEFConstruct: cfg.Index.HNSWEFConstruct,
		})
	case "sqlite":
		store, err = dbSqlite.Open(cfg.Database.Path)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("create chunk store: %w", err)
	}

	// Wait for the store to be ready
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("chunk store not ready: %w", err)
	}
	if err := store.EnsureSchema(ctx, cfg.Embedding.Dimensions); err != nil {
		store.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	logger.Info("Connected to chunk store",
		zap.String("driver", cfg.Database.Driver),
		zap.String("index", cfg.Index.Name),
	)

	// Register Prometheus metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSyncMetrics()
	metrics.RegisterQueryMetrics()

	fp := domain.Fingerprint{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	}

	// Build the embedder chain. The query side carries the instruction
	// prefix outermost so cached entries include it.
	base := openaiTr.NewEmbedder(&openaiTr.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	// Single BudgetTracker shared between the embedder chain and the usage
	// service. Zero limits leave the tracker off entirely.
	var budget *embeddinguc.BudgetTracker
	budgetCfg := cfg.Embedding.Budget
	if budgetCfg.DailyTokenLimit > 0 || budgetCfg.MonthlyTokenLimit > 0 {
		action := embeddinguc.BudgetActionWarn
		if budgetCfg.Action == "reject" {
			action = embeddinguc.BudgetActionReject
		}
		budget = embeddinguc.NewBudgetTracker(
			cfg.Embedding.Provider, budgetCfg.DailyTokenLimit, budgetCfg.MonthlyTokenLimit, action, logger,
		)
		// Connect persistence: loads current counters from the KV store.
		budget.WithStore(ctx, budgetrepo.New(store, 48*time.Hour, 62*24*time.Hour))
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	// Go gotcha: (*BudgetTracker)(nil) wrapped in BudgetChecker != nil.
	var budgetChecker embeddinguc.BudgetChecker
	if budget != nil {
		budgetChecker = budget
	}

	// Enforcement wraps the provider client directly, so batch splitting
	// above re-checks the budget between provider requests and cache hits
	// never spend it.
	instrumented := embeddinguc.NewInstrumentedEmbedder(
		base, cfg.Embedding.Provider, cfg.Embedding.Model, budgetChecker, logger,
	)

	var docEmbedder pipelineEmbedder = embeddinguc.
		NewBatchingEmbedder(instrumented, cfg.Embedding.Provider, cfg.Embedding.Model, logger).
		WithMaxBatchSize(cfg.Embedding.BatchSize)
	if cfg.Embedding.Cache.Enabled {
		docEmbedder = embcache.New(
			docEmbedder, store, cfg.Embedding.Model,
			time.Duration(cfg.Embedding.Cache.TTLSec)*time.Second,
			metrics.EmbeddingCacheTotal, logger,
		)
	}

	var queryEmbedder domain.Embedder = docEmbedder
	if cfg.Embedding.QueryInstruction != "" {
		queryEmbedder = domain.NewInstructionEmbedder(docEmbedder, cfg.Embedding.QueryInstruction)
	}
	logger.Info("Embedder chain created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache", cfg.Embedding.Cache.Enabled),
		zap.Bool("budget", budget != nil),
	)

	syncSvc := syncuc.New(store, store, store, docEmbedder, syncuc.Config{
		Workers: cfg.Sync.Workers,
		Chunking: chunker.Config{
			MaxChars: cfg.Chunking.MaxChars,
			MinChars: cfg.Chunking.MinChars,
			Overlap:  cfg.Chunking.Overlap,
		},
		Fingerprint: fp,
	}, logger)
	if cfg.Sync.SnapshotPath != "" {
		syncSvc.WithSnapshot(snapshot.New(cfg.Sync.SnapshotPath))
	}

	querySvc := queryuc.New(store, store, queryEmbedder, queryuc.Config{
		TopK:             cfg.Query.TopK,
		MaxTopK:          cfg.Query.MaxTopK,
		OversampleFactor: cfg.Query.OversampleFactor,
		OversampleFloor:  cfg.Query.OversampleFloor,
		Fingerprint:      fp,
	})

	completer, err := buildCompleter(cfg.Answer, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	answerSvc := answeruc.New(querySvc, completer, answeruc.Config{
		TopK:                cfg.Answer.TopK,
		MaxDescriptionChars: cfg.Answer.MaxDescriptionChars,
	}, logger)
	if cfg.Answer.Fallback.Enabled && cfg.Answer.Fallback.Path != "" {
		answerSvc.WithFallback(snapshot.New(cfg.Answer.Fallback.Path))
	}

	healthSvc := healthuc.New(store, base)

	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetReader = budget
	}
	usageSvc := usageuc.New(budgetReader)

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		syncSvc:   syncSvc,
		querySvc:  querySvc,
		answerSvc: answerSvc,
		healthSvc: healthSvc,
		usageSvc:  usageSvc,
	}, nil
}

// Close releases the store connection.
func (a *app) Close() {
	a.store.Close()
}

// buildCompleter wires the chat provider, or a stub that fails with a clear
// message when no API key is configured. Search and sync stay usable on a
// deployment that never set one up.
func buildCompleter(cfg config.AnswerConfig, logger *zap.Logger) (answeruc.Completer, error) {
	if cfg.APIKey == "" {
		return noopCompleter{}, nil
	}
	return openaiTr.NewSummarizer(&openaiTr.SummarizerConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Logger:      logger,
	})
}

type noopCompleter struct{}

func (noopCompleter) Complete(context.Context, string, string) (string, error) {
	return "", fmt.Errorf("%w: no chat provider configured (set answer.api_key)", domain.ErrSummarizer)
}

// pipelineEmbedder keeps both halves of the embedding contract visible
// through the decorator chain; sync needs BatchEmbed, query needs Embed.
type pipelineEmbedder interface {
	domain.Embedder
	domain.BatchEmbedder
}
