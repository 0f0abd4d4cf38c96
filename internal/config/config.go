package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the promodex configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Sync      SyncConfig      `yaml:"sync"`
	Query     QueryConfig     `yaml:"query"`
	Answer    AnswerConfig    `yaml:"answer"`
	Feed      FeedConfig      `yaml:"feed"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds chunk store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, sqlite (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	Path             string   `yaml:"path"` // sqlite database file
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds vector index settings.
type IndexConfig struct {
	Name            string `yaml:"name"`
	KeyPrefix       string `yaml:"key_prefix"`
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
}

// EmbeddingCacheConfig holds embedding cache settings.
type EmbeddingCacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTLSec  int  `yaml:"ttl_sec"` // 0 = no expiry
}

// EmbeddingBudgetConfig holds token budget limits. Zero limits disable
// tracking for that window.
type EmbeddingBudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"`
	Action            string `yaml:"action"` // warn, reject (default: warn)
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider         string                `yaml:"provider"`
	BaseURL          string                `yaml:"base_url"`
	APIKey           string                `yaml:"api_key"`
	Model            string                `yaml:"model"`
	Dimensions       int                   `yaml:"dimensions"`
	BatchSize        int                   `yaml:"batch_size"`
	QueryInstruction string                `yaml:"query_instruction"`
	Cache            EmbeddingCacheConfig  `yaml:"cache"`
	Budget           EmbeddingBudgetConfig `yaml:"budget"`
}

// ChunkingConfig holds text splitting settings.
type ChunkingConfig struct {
	MaxChars int `yaml:"max_chars"`
	MinChars int `yaml:"min_chars"`
	Overlap  int `yaml:"overlap"`
}

// SyncConfig holds reconciliation settings.
type SyncConfig struct {
	Workers      int    `yaml:"workers"`
	SnapshotPath string `yaml:"snapshot_path"` // empty = no snapshot written
}

// QueryConfig holds search and ranking settings.
type QueryConfig struct {
	TopK             int `yaml:"top_k"`
	MaxTopK          int `yaml:"max_top_k"`
	OversampleFactor int `yaml:"oversample_factor"`
	OversampleFloor  int `yaml:"oversample_floor"`
}

// AnswerFallbackConfig holds degraded-mode settings for answer generation.
type AnswerFallbackConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // promo snapshot consulted when retrieval fails
}

// AnswerConfig holds LLM answer generation settings.
type AnswerConfig struct {
	BaseURL             string               `yaml:"base_url"`
	APIKey              string               `yaml:"api_key"`
	Model               string               `yaml:"model"`
	Temperature         float32              `yaml:"temperature"`
	MaxTokens           int                  `yaml:"max_tokens"`
	TopK                int                  `yaml:"top_k"`
	MaxDescriptionChars int                  `yaml:"max_description_chars"`
	Fallback            AnswerFallbackConfig `yaml:"fallback"`
}

// FeedConfig holds promo feed ingestion settings.
type FeedConfig struct {
	Source     string   `yaml:"source"` // file, http (default: file)
	Path       string   `yaml:"path"`
	URLs       []string `yaml:"urls"`
	RatePerSec float64  `yaml:"rate_per_sec"`
	TimeoutSec int      `yaml:"timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Index.Name == "" {
		c.Index.Name = "promodex-chunks"
	}
	if c.Index.KeyPrefix == "" {
		c.Index.KeyPrefix = "promodex:"
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 32
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 400
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 32
	}
	if c.Embedding.QueryInstruction == "" {
		c.Embedding.QueryInstruction = "query: "
	}
	if c.Embedding.Budget.Action == "" {
		c.Embedding.Budget.Action = "warn"
	}
	if c.Chunking.MaxChars <= 0 {
		c.Chunking.MaxChars = 1200
	}
	if c.Chunking.MinChars <= 0 {
		c.Chunking.MinChars = 300
	}
	if c.Chunking.Overlap <= 0 {
		c.Chunking.Overlap = 100
	}
	if c.Sync.Workers <= 0 {
		c.Sync.Workers = 4
	}
	if c.Query.TopK <= 0 {
		c.Query.TopK = 5
	}
	if c.Query.MaxTopK <= 0 {
		c.Query.MaxTopK = 50
	}
	if c.Query.OversampleFactor <= 0 {
		c.Query.OversampleFactor = 8
	}
	if c.Query.OversampleFloor <= 0 {
		c.Query.OversampleFloor = 40
	}
	if c.Answer.BaseURL == "" {
		c.Answer.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.Answer.Model == "" {
		c.Answer.Model = "llama-3.3-70b-versatile"
	}
	if c.Answer.Temperature <= 0 {
		c.Answer.Temperature = 0.2
	}
	if c.Answer.MaxTokens <= 0 {
		c.Answer.MaxTokens = 2000
	}
	if c.Answer.TopK <= 0 {
		c.Answer.TopK = 8
	}
	if c.Answer.MaxDescriptionChars <= 0 {
		c.Answer.MaxDescriptionChars = 600
	}
	if c.Feed.Source == "" {
		c.Feed.Source = "file"
	}
	if c.Feed.RatePerSec <= 0 {
		c.Feed.RatePerSec = 2
	}
	if c.Feed.TimeoutSec <= 0 {
		c.Feed.TimeoutSec = 30
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "redis":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for the redis driver")
		}
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("database.driver must be \"redis\" or \"sqlite\", got %q", c.Database.Driver)
	}
	if c.Chunking.Overlap >= c.Chunking.MaxChars {
		return fmt.Errorf(
			"chunking.overlap (%d) must be smaller than chunking.max_chars (%d)",
			c.Chunking.Overlap, c.Chunking.MaxChars,
		)
	}
	if c.Chunking.MinChars > c.Chunking.MaxChars {
		return fmt.Errorf(
			"chunking.min_chars (%d) must not exceed chunking.max_chars (%d)",
			c.Chunking.MinChars, c.Chunking.MaxChars,
		)
	}
	if c.Query.TopK > c.Query.MaxTopK {
		return fmt.Errorf("query.top_k (%d) must not exceed query.max_top_k (%d)", c.Query.TopK, c.Query.MaxTopK)
	}
	switch c.Feed.Source {
	case "file", "http":
		// ok
	default:
		return fmt.Errorf("feed.source must be \"file\" or \"http\", got %q", c.Feed.Source)
	}
	switch c.Embedding.Budget.Action {
	case "warn", "reject":
		// ok
	default:
		return fmt.Errorf("embedding.budget.action must be \"warn\" or \"reject\", got %q", c.Embedding.Budget.Action)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
