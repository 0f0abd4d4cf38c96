package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNew_NoBaseURL(t *testing.T) {
	_, err := New("")
	if err == nil {
		t.Fatal("expected error for empty base url")
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c, err := New("http://localhost:8080/")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.baseURL != "http://localhost:8080" {
		t.Errorf("baseURL = %q, want trailing slash trimmed", c.baseURL)
	}
}

func TestClientOptions(t *testing.T) {
	c, err := New("http://localhost:8080", WithAPIKey("sk-test"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.apiKey != "sk-test" {
		t.Errorf("apiKey = %q, want sk-test", c.apiKey)
	}

	hc := &http.Client{Timeout: time.Second}
	c2, _ := New("http://localhost:8080", WithHTTPClient(hc))
	if c2.http != hc {
		t.Error("expected custom http client to be used")
	}

	c3, _ := New("http://localhost:8080", WithTimeout(5*time.Minute))
	if c3.http.Timeout != 5*time.Minute {
		t.Errorf("timeout = %v, want 5m", c3.http.Timeout)
	}
}

func TestSearch(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}

		json.NewEncoder(w).Encode(searchResponse{
			Items: []SearchResult{{
				Rank:              1,
				Title:             "Diskon Hotel 25%",
				Bank:              "BCA",
				PaymentMethods:    []string{"Kartu Kredit"},
				SimilarityPercent: 80.5,
				Score:             0.92,
			}},
			Total: 1,
		})
	}))
	defer srv.Close()

	c, _ := New(srv.URL, WithAPIKey("sk-test"))
	results, total, err := c.Search(context.Background(), "promo hotel", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotPath != "/api/v1/search" {
		t.Errorf("path = %q, want /api/v1/search", gotPath)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("auth = %q, want Bearer sk-test", gotAuth)
	}
	if gotReq.Query != "promo hotel" || gotReq.TopK != 5 {
		t.Errorf("request = %+v", gotReq)
	}
	if total != 1 || len(results) != 1 {
		t.Fatalf("results/total = %d/%d, want 1/1", len(results), total)
	}
	if results[0].Title != "Diskon Hotel 25%" || results[0].SimilarityPercent != 80.5 {
		t.Errorf("result = %+v", results[0])
	}
}

func TestSearch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(ErrorDetail{Code: "rate_limited", Message: "rate limited"})
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	_, _, err := c.Search(context.Background(), "promo", 5)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Status != http.StatusTooManyRequests || apiErr.Code != "rate_limited" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestSearch_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	_, _, err := c.Search(context.Background(), "promo", 5)
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("err = %v, want ErrInternal fallback", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Status != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", apiErr.Status)
	}
}

func TestAsk(t *testing.T) {
	var gotReq AskRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/answer" {
			t.Errorf("path = %q, want /api/v1/answer", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}

		json.NewEncoder(w).Encode(Answer{
			Answer:   "Ada promo hotel dari BCA.",
			Sources:  []Source{{Title: "Diskon Hotel 25%", Bank: "BCA"}},
			Degraded: true,
		})
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	ans, err := c.Ask(context.Background(), AskRequest{
		Question:            "Promo hotel?",
		TopK:                3,
		MaxDescriptionChars: 300,
	})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}

	if gotReq.TopK != 3 || gotReq.MaxDescriptionChars != 300 {
		t.Errorf("request = %+v", gotReq)
	}
	if ans.Answer != "Ada promo hotel dari BCA." {
		t.Errorf("answer = %q", ans.Answer)
	}
	if len(ans.Sources) != 1 || !ans.Degraded {
		t.Errorf("sources/degraded = %d/%v", len(ans.Sources), ans.Degraded)
	}
}

func TestSync(t *testing.T) {
	var rawBody map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/sync" {
			t.Errorf("path = %q, want /api/v1/sync", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&rawBody); err != nil {
			t.Errorf("decode request: %v", err)
		}

		json.NewEncoder(w).Encode(SyncReport{
			Total:          2,
			Succeeded:      1,
			Failed:         1,
			ChunksUpserted: 3,
			DurationMs:     1200,
			Results: []SyncResult{
				{PromoID: "id-1", Status: "ok", Chunks: 3},
				{PromoID: "id-2", Status: "failed", Error: &ErrorDetail{
					Code:    "embedding_provider_error",
					Message: "embedding failed",
				}},
			},
		})
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	report, err := c.Sync(context.Background(), []Record{
		{Title: "Promo A", URL: "https://example.com/a"},
		{Title: "Promo B", URL: "https://example.com/b"},
	})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}

	var sent []Record
	if err := json.Unmarshal(rawBody["records"], &sent); err != nil {
		t.Fatalf("records key: %v", err)
	}
	if len(sent) != 2 || sent[0].Title != "Promo A" {
		t.Errorf("sent records = %+v", sent)
	}
	if report.Total != 2 || report.Succeeded != 1 || report.Failed != 1 {
		t.Errorf("report = %+v", report)
	}
	if report.Results[1].Error == nil || report.Results[1].Error.Code != "embedding_provider_error" {
		t.Errorf("error detail = %+v", report.Results[1].Error)
	}
}

func TestSync_EmptySliceSentAsArray(t *testing.T) {
	// An empty slice must reach the wire as [], not null: the service reads
	// [] as "the feed is empty" and null as "records missing".
	var rawBody map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&rawBody)
		json.NewEncoder(w).Encode(SyncReport{OrphansDeleted: 4})
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	report, err := c.Sync(context.Background(), []Record{})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if string(rawBody["records"]) != "[]" {
		t.Errorf("records = %s, want []", rawBody["records"])
	}
	if report.OrphansDeleted != 4 {
		t.Errorf("orphans = %d, want 4", report.OrphansDeleted)
	}
}

func TestStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/stats" || r.Method != http.MethodGet {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(Stats{Chunks: 42, Promos: 7})
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	stats, err := c.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Chunks != 42 || stats.Promos != 7 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/usage" || r.Method != http.MethodGet {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("period"); got != "day" {
			t.Errorf("period = %q, want day", got)
		}
		json.NewEncoder(w).Encode(Usage{
			Period:          "day",
			PeriodStartAt:   "2026-05-10T00:00:00Z",
			PeriodEndAt:     "2026-05-11T00:00:00Z",
			TokensUsed:      1500,
			TokensLimit:     10000,
			TokensRemaining: 8500,
			ResetsAt:        "2026-05-11T00:00:00Z",
		})
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	u, err := c.Usage(context.Background(), "day")
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if u.TokensUsed != 1500 || u.TokensRemaining != 8500 || u.Exhausted {
		t.Errorf("usage = %+v", u)
	}
	if u.ResetsAt != "2026-05-11T00:00:00Z" {
		t.Errorf("resets_at = %q", u.ResetsAt)
	}
}

func TestUsage_EmptyPeriodOmitsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("query = %q, want empty", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(Usage{Period: "month", TokensRemaining: -1})
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	u, err := c.Usage(context.Background(), "")
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if u.Period != "month" || u.TokensRemaining != -1 {
		t.Errorf("usage = %+v", u)
	}
}

func TestHealth_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q, want /health", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Health{Status: "ok", Checks: map[string]string{"store": "ok"}})
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if h.Status != "ok" || h.Checks["store"] != "ok" {
		t.Errorf("health = %+v", h)
	}
}

func TestHealth_DegradedStillDecodes(t *testing.T) {
	// 503 carries a report body; it must come back without an error.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(Health{
			Status: "error",
			Checks: map[string]string{"store": "error"},
		})
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if h.Status != "error" || h.Checks["store"] != "error" {
		t.Errorf("health = %+v", h)
	}
}

func TestUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(ErrorDetail{Code: "unauthorized", Message: "invalid or missing bearer token"})
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	_, err := c.Stats(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}
