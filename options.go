package promodex

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/promodex/internal/chunker"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "redis" or "sqlite"
	addrs    []string
	password string
	path     string

	indexName       string
	keyPrefix       string
	hnswM           int
	hnswEFConstruct int

	embedder         Embedder
	fingerprint      Fingerprint
	queryInstruction string
	cacheEnabled     bool
	cacheTTL         time.Duration

	completer         Completer
	summarizerKey     string
	summarizerBaseURL string
	summarizerModel   string

	chunking chunker.Config
	workers  int

	snapshotPath string

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithRedis configures the client to store chunks in a Redis 8+ instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithSQLite configures the client to store chunks in a local SQLite file.
// Pass ":memory:" for an in-memory store.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "sqlite"
		c.path = path
	})
}

// WithIndex overrides the Redis vector index name and key prefix.
// Defaults: "promodex-chunks" and "promodex:".
func WithIndex(name, keyPrefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.indexName = name
		c.keyPrefix = keyPrefix
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction) for the
// Redis driver. Zero keeps the driver defaults.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithEmbedder sets the text embedding provider. The fingerprint names the
// provider setup; the store refuses vectors from a different setup.
// Required for Sync, Search and Ask.
func WithEmbedder(e Embedder, fp Fingerprint) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
		c.fingerprint = fp
	})
}

// WithQueryInstruction prepends instruction text to queries before embedding,
// for e5-style asymmetric models ("query: "). Documents are never prefixed.
func WithQueryInstruction(instruction string) Option {
	return optionFunc(func(c *clientConfig) {
		c.queryInstruction = instruction
	})
}

// WithEmbeddingCache caches embeddings in the chunk store keyed by model and
// text. ttl = 0 keeps entries forever.
func WithEmbeddingCache(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheEnabled = true
		c.cacheTTL = ttl
	})
}

// WithSummarizer configures the chat provider behind Ask. baseURL "" selects
// the Groq endpoint; model "" selects llama-3.3-70b-versatile.
func WithSummarizer(apiKey, baseURL, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.summarizerKey = apiKey
		c.summarizerBaseURL = baseURL
		c.summarizerModel = model
	})
}

// WithCompleter sets a custom chat provider behind Ask, overriding
// WithSummarizer.
func WithCompleter(cp Completer) Option {
	return optionFunc(func(c *clientConfig) {
		c.completer = cp
	})
}

// WithChunking overrides the chunk sizing parameters.
// Defaults: 1200 max, 300 min, 100 overlap characters.
func WithChunking(maxChars, minChars, overlap int) Option {
	return optionFunc(func(c *clientConfig) {
		c.chunking = chunker.Config{MaxChars: maxChars, MinChars: minChars, Overlap: overlap}
	})
}

// WithWorkers sets how many promos Sync reconciles in parallel. Default: 4.
func WithWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = n
	})
}

// WithSnapshot persists each synced promo set to path and lets Ask fall back
// to it when the chunk store is unreachable.
func WithSnapshot(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.snapshotPath = path
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
