package sdk

// Record is one promo object of the feed contract. Title or url is required;
// everything else is optional. A missing id is derived from the url.
type Record struct {
	ID             string   `json:"id,omitempty"`
	Title          string   `json:"title"`
	URL            string   `json:"url"`
	Period         string   `json:"period,omitempty"`
	Category       string   `json:"category,omitempty"`
	Bank           string   `json:"bank,omitempty"`
	PaymentMethods []string `json:"payment_methods,omitempty"`
	Description    string   `json:"description,omitempty"`
	ScrapeDate     string   `json:"scrape_date,omitempty"`
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// SearchResult is one ranked promo match.
type SearchResult struct {
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
	Items []SearchResult `json:"items"`
	Total int            `json:"total"`
}

// AskRequest carries a question plus optional retrieval knobs.
type AskRequest struct {
	Question            string `json:"question"`
	TopK                int    `json:"top_k,omitempty"`
	MaxDescriptionChars int    `json:"max_description_chars,omitempty"`
}

// Source is one promo row the answer was grounded on.
type Source struct {
	Title          string `json:"title"`
	URL            string `json:"url"`
	PaymentMethods string `json:"payment_methods"`
	Period         string `json:"period"`
	Category       string `json:"category"`
	Bank           string `json:"bank"`
	Description    string `json:"description"`
}

// Answer is a generated reply plus its grounding context. Degraded means the
// context came from the service's snapshot, not the live index.
type Answer struct {
	Answer   string   `json:"answer"`
	Sources  []Source `json:"sources"`
	Degraded bool     `json:"degraded"`
}

type syncRequest struct {
	Records []Record `json:"records"`
}

// ErrorDetail is the service's wire error shape.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SyncResult is the outcome of reconciling one promo.
type SyncResult struct {
	PromoID string       `json:"promo_id"`
	URL     string       `json:"url"`
	Status  string       `json:"status"`
	Chunks  int          `json:"chunks"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// SyncReport aggregates one reconciliation run.
type SyncReport struct {
	Total          int          `json:"total"`
	Succeeded      int          `json:"succeeded"`
	Failed         int          `json:"failed"`
	Skipped        int          `json:"skipped"`
	InvalidRecords int          `json:"invalid_records"`
	ChunksUpserted int          `json:"chunks_upserted"`
	OrphansDeleted int          `json:"orphans_deleted"`
	Rebuilt        bool         `json:"rebuilt"`
	DurationMs     int64        `json:"duration_ms"`
	Results        []SyncResult `json:"results"`
}

// Stats reports stored chunk and promo counts.
type Stats struct {
	Chunks int `json:"chunks"`
	Promos int `json:"promos"`
}

// Health maps each component to "ok" or "error". Status is "ok", "degraded"
// or "error".
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Usage reports embedding token consumption for one aggregation window.
// TokensLimit 0 and TokensRemaining -1 mean no limit is configured. The
// timestamps are RFC3339 and empty for the total window.
type Usage struct {
	Period          string `json:"period"`
	PeriodStartAt   string `json:"period_start_at,omitempty"`
	PeriodEndAt     string `json:"period_end_at,omitempty"`
	TokensUsed      int64  `json:"tokens_used"`
	TokensLimit     int64  `json:"tokens_limit"`
	TokensRemaining int64  `json:"tokens_remaining"`
	Exhausted       bool   `json:"exhausted"`
	ResetsAt        string `json:"resets_at,omitempty"`
}
