package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/promodex/internal/domain"
	domusage "github.com/kailas-cloud/promodex/internal/domain/usage"
	"github.com/kailas-cloud/promodex/internal/feed"
	answeruc "github.com/kailas-cloud/promodex/internal/usecase/answer"
	healthuc "github.com/kailas-cloud/promodex/internal/usecase/health"
	syncuc "github.com/kailas-cloud/promodex/internal/usecase/sync"
)

const maxSyncRecords = 2000

// Searcher executes ranked promo retrieval.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]domain.Result, error)
}

// Answerer generates a grounded answer from retrieved promo context.
type Answerer interface {
	Ask(ctx context.Context, question string, k, maxDescChars int) (answeruc.Answer, error)
}

// Syncer reconciles the chunk store against a promo set.
type Syncer interface {
	Reconcile(ctx context.Context, promos []domain.Promo) (syncuc.Report, error)
}

// StatsSource reports chunk store counters.
type StatsSource interface {
	CountChunks(ctx context.Context) (int, error)
	ParentIDs(ctx context.Context) ([]string, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// UsageReporter builds embedding token usage reports.
type UsageReporter interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API over the promo index.
type Server struct {
	search        Searcher
	answer        Answerer
	sync          Syncer
	stats         StatsSource
	health        HealthChecker
	usage         UsageReporter
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search Searcher,
	answer Answerer,
	sync Syncer,
	stats StatsSource,
	health HealthChecker,
	usage UsageReporter,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search: search,
		answer: answer,
		sync:   sync,
		stats:  stats,
		health: health,
		usage:  usage,
		logger: logger,
	}
	// Retrieval wraps provider and store sentinels, so the specific ones
	// must be tried before the ErrRetrieval catch-all.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrExtraction, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrFingerprintMismatch, http.StatusConflict, codeFingerprintMismatch),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrEmbeddingQuota, http.StatusPaymentRequired, codeEmbeddingQuotaExceeded),
		sentinelHandler(domain.ErrEmbedding, http.StatusBadGateway, codeEmbeddingProviderError),
		sentinelHandler(domain.ErrSummarizer, http.StatusBadGateway, codeSummarizerError),
		sentinelHandler(domain.ErrStore, http.StatusServiceUnavailable, codeStoreUnavailable),
		sentinelHandler(domain.ErrRetrieval, http.StatusServiceUnavailable, codeStoreUnavailable),
	}
	return s
}

// Routes registers all endpoints on the router.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.Search)
		r.Post("/answer", s.Answer)
		r.Post("/sync", s.Sync)
		r.Get("/stats", s.Stats)
		r.Get("/usage", s.Usage)
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Search handles POST /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	results, err := s.search.Search(r.Context(), req.Query, req.TopK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]resultItem, len(results))
	for i := range results {
		items[i] = resultToWire(&results[i])
	}

	writeJSON(w, http.StatusOK, searchResponse{Items: items, Total: len(items)})
}

// Answer handles POST /api/v1/answer.
func (s *Server) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ans, err := s.answer.Ask(r.Context(), req.Question, req.TopK, req.MaxDescriptionChars)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, answerResponse{
		Answer:   ans.Text,
		Sources:  ans.Sources,
		Degraded: ans.Degraded,
	})
}

// Sync handles POST /api/v1/sync. The posted record set is the full feed:
// stored promos missing from it are deleted, so an explicit empty array
// empties the index.
func (s *Server) Sync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Records == nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "records is required")
		return
	}
	if len(req.Records) > maxSyncRecords {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("records count must not exceed %d", maxSyncRecords))
		return
	}

	promos, invalid := feed.ConvertRecords(req.Records)
	promos = feed.DedupeByURL(promos)

	report, err := s.sync.Reconcile(r.Context(), promos)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, syncReportToWire(report, invalid))
}

// Stats handles GET /api/v1/stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	chunks, err := s.stats.CountChunks(r.Context())
	if err != nil {
		s.handleDomainError(w, fmt.Errorf("%w: count chunks: %w", domain.ErrStore, err))
		return
	}

	parents, err := s.stats.ParentIDs(r.Context())
	if err != nil {
		s.handleDomainError(w, fmt.Errorf("%w: list parents: %w", domain.ErrStore, err))
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{Chunks: chunks, Promos: len(parents)})
}

// Usage handles GET /api/v1/usage. The period query parameter selects the
// aggregation window; unknown values fall back to month.
func (s *Server) Usage(w http.ResponseWriter, r *http.Request) {
	period := domusage.ParsePeriod(r.URL.Query().Get("period"))
	report := s.usage.GetReport(r.Context(), period)
	writeJSON(w, http.StatusOK, usageReportToWire(report))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

// --- Wire types ---

type errorCode string

const (
	codeBadRequest             errorCode = "bad_request"
	codeValidationFailed       errorCode = "validation_failed"
	codeUnauthorized           errorCode = "unauthorized"
	codeNotFound               errorCode = "not_found"
	codeFingerprintMismatch    errorCode = "fingerprint_mismatch"
	codeRateLimited            errorCode = "rate_limited"
	codeEmbeddingQuotaExceeded errorCode = "embedding_quota_exceeded"
	codeEmbeddingProviderError errorCode = "embedding_provider_error"
	codeSummarizerError        errorCode = "summarizer_error"
	codeStoreUnavailable       errorCode = "store_unavailable"
	codeInternalError          errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

type resultItem struct {
	Rank              int      `json:"rank"`
	Title             string   `json:"title"`
	Period            string   `json:"period"`
	URL               string   `json:"url"`
	Category          string   `json:"category"`
	Bank              string   `json:"bank"`
	PaymentMethods    []string `json:"payment_methods"`
	SimilarityPercent float64  `json:"similarity_percent"`
	Score             float64  `json:"score"`
	Description       string   `json:"description"`
}

type searchResponse struct {
	Items []resultItem `json:"items"`
	Total int          `json:"total"`
}

type answerRequest struct {
	Question            string `json:"question"`
	TopK                int    `json:"top_k,omitempty"`
	MaxDescriptionChars int    `json:"max_description_chars,omitempty"`
}

type answerResponse struct {
	Answer   string                 `json:"answer"`
	Sources  []answeruc.ContextItem `json:"sources"`
	Degraded bool                   `json:"degraded"`
}

type syncRequest struct {
	// nil means the key was absent; an explicit [] is a legitimate empty feed.
	Records []feed.Record `json:"records"`
}

type syncResultItem struct {
	PromoID string         `json:"promo_id"`
	URL     string         `json:"url"`
	Status  string         `json:"status"`
	Chunks  int            `json:"chunks"`
	Error   *errorResponse `json:"error,omitempty"`
}

type syncResponse struct {
	Total          int              `json:"total"`
	Succeeded      int              `json:"succeeded"`
	Failed         int              `json:"failed"`
	Skipped        int              `json:"skipped"`
	InvalidRecords int              `json:"invalid_records"`
	ChunksUpserted int              `json:"chunks_upserted"`
	OrphansDeleted int              `json:"orphans_deleted"`
	Rebuilt        bool             `json:"rebuilt"`
	DurationMs     int64            `json:"duration_ms"`
	Results        []syncResultItem `json:"results"`
}

type statsResponse struct {
	Chunks int `json:"chunks"`
	Promos int `json:"promos"`
}

type usageResponse struct {
	Period          string `json:"period"`
	PeriodStartAt   string `json:"period_start_at,omitempty"`
	PeriodEndAt     string `json:"period_end_at,omitempty"`
	TokensUsed      int64  `json:"tokens_used"`
	TokensLimit     int64  `json:"tokens_limit"`
	TokensRemaining int64  `json:"tokens_remaining"`
	Exhausted       bool   `json:"exhausted"`
	ResetsAt        string `json:"resets_at,omitempty"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// --- Converters ---

func resultToWire(r *domain.Result) resultItem {
	return resultItem{
		Rank:              r.Rank(),
		Title:             r.Title(),
		Period:            r.Period(),
		URL:               r.URL(),
		Category:          r.Category(),
		Bank:              r.Bank(),
		PaymentMethods:    r.PaymentMethods(),
		SimilarityPercent: r.SimilarityPercent(),
		Score:             roundScore(r.Score()),
		Description:       r.Description(),
	}
}

// roundScore keeps wire scores at 4 decimals.
func roundScore(score float64) float64 {
	return math.Round(score*10000) / 10000
}

func syncReportToWire(rep syncuc.Report, invalid int) syncResponse {
	results := make([]syncResultItem, len(rep.Results))
	for i, res := range rep.Results {
		item := syncResultItem{
			PromoID: res.PromoID(),
			URL:     res.URL(),
			Status:  string(res.Status()),
			Chunks:  res.Chunks(),
		}
		if res.Err() != nil {
			item.Error = &errorResponse{
				Code:    syncErrorCode(res.Err()),
				Message: safeDomainMessage(res.Err()),
			}
		}
		results[i] = item
	}

	return syncResponse{
		Total:          rep.Total(),
		Succeeded:      rep.Succeeded(),
		Failed:         rep.Failed(),
		Skipped:        rep.Skipped(),
		InvalidRecords: invalid,
		ChunksUpserted: rep.ChunksUpserted(),
		OrphansDeleted: rep.OrphansDeleted,
		Rebuilt:        rep.Rebuilt,
		DurationMs:     rep.Duration.Milliseconds(),
		Results:        results,
	}
}

func usageReportToWire(rep domusage.Report) usageResponse {
	resp := usageResponse{
		Period:          string(rep.Period()),
		TokensUsed:      rep.TokensUsed(),
		TokensLimit:     rep.TokensLimit(),
		TokensRemaining: rep.TokensRemaining(),
		Exhausted:       rep.Exhausted(),
	}
	if rep.PeriodStart() > 0 {
		resp.PeriodStartAt = time.UnixMilli(rep.PeriodStart()).UTC().Format(time.RFC3339)
		resp.PeriodEndAt = time.UnixMilli(rep.PeriodEnd()).UTC().Format(time.RFC3339)
	}
	if rep.ResetsAt() > 0 {
		resp.ResetsAt = time.UnixMilli(rep.ResetsAt()).UTC().Format(time.RFC3339)
	}
	return resp
}

func syncErrorCode(err error) errorCode {
	switch {
	case errors.Is(err, domain.ErrExtraction):
		return codeValidationFailed
	case errors.Is(err, domain.ErrEmbeddingQuota):
		return codeEmbeddingQuotaExceeded
	case errors.Is(err, domain.ErrRateLimited):
		return codeRateLimited
	case errors.Is(err, domain.ErrEmbedding):
		return codeEmbeddingProviderError
	case errors.Is(err, domain.ErrStore):
		return codeStoreUnavailable
	default:
		return codeInternalError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyQuery,
		domain.ErrExtraction,
		domain.ErrNotFound,
		domain.ErrFingerprintMismatch,
		domain.ErrRateLimited,
		domain.ErrEmbeddingQuota,
		domain.ErrEmbedding,
		domain.ErrSummarizer,
		domain.ErrStore,
		domain.ErrRetrieval,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}
