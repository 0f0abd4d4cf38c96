package promodex

import (
	"time"

	"github.com/kailas-cloud/promodex/internal/domain"
	"github.com/kailas-cloud/promodex/internal/feed"
	answeruc "github.com/kailas-cloud/promodex/internal/usecase/answer"
	healthuc "github.com/kailas-cloud/promodex/internal/usecase/health"
	syncuc "github.com/kailas-cloud/promodex/internal/usecase/sync"
)

// Promo is one scraped promotion record handed to Sync. Title or URL is
// required; everything else is optional. A missing ID is derived from the URL.
type Promo struct {
	ID             string
	Title          string
	URL            string
	Period         string
	Category       string
	Bank           string
	PaymentMethods []string
	Description    string
	ScrapeDate     string
}

// toDomainPromos validates and deduplicates the promo set, counting rejects.
func toDomainPromos(promos []Promo) ([]domain.Promo, int) {
	records := make([]feed.Record, len(promos))
	for i, p := range promos {
		records[i] = feed.Record{
			ID:             p.ID,
			Title:          p.Title,
			URL:            p.URL,
			Period:         p.Period,
			Category:       p.Category,
			Bank:           p.Bank,
			PaymentMethods: p.PaymentMethods,
			Description:    p.Description,
			ScrapeDate:     p.ScrapeDate,
		}
	}
	converted, invalid := feed.ConvertRecords(records)
	return feed.DedupeByURL(converted), invalid
}

// Result is one ranked promo match.
type Result struct {
	Rank              int
	Title             string
	Period            string
	URL               string
	Category          string
	Bank              string
	PaymentMethods    []string
	Description       string
	SimilarityPercent float64
	Score             float64
}

func resultsFromInternal(in []domain.Result) []Result {
	out := make([]Result, len(in))
	for i := range in {
		r := &in[i]
		out[i] = Result{
			Rank:              r.Rank(),
			Title:             r.Title(),
			Period:            r.Period(),
			URL:               r.URL(),
			Category:          r.Category(),
			Bank:              r.Bank(),
			PaymentMethods:    r.PaymentMethods(),
			Description:       r.Description(),
			SimilarityPercent: r.SimilarityPercent(),
			Score:             r.Score(),
		}
	}
	return out
}

// Source is one promo row the answer was grounded on.
type Source struct {
	Title          string
	URL            string
	PaymentMethods string
	Period         string
	Category       string
	Bank           string
	Description    string
}

// Answer is a generated reply plus its grounding context.
type Answer struct {
	Text     string
	Sources  []Source
	Degraded bool // context came from the snapshot, not the live index
}

func answerFromInternal(a answeruc.Answer) Answer {
	sources := make([]Source, len(a.Sources))
	for i, s := range a.Sources {
		sources[i] = Source{
			Title:          s.Title,
			URL:            s.URL,
			PaymentMethods: s.PaymentMethods,
			Period:         s.Period,
			Category:       s.Category,
			Bank:           s.Bank,
			Description:    s.Description,
		}
	}
	return Answer{Text: a.Text, Sources: sources, Degraded: a.Degraded}
}

// SyncStatus is the reconciliation outcome of a single promo.
type SyncStatus string

// Per-promo status values.
const (
	SyncOK      SyncStatus = "ok"
	SyncFailed  SyncStatus = "failed"
	SyncSkipped SyncStatus = "skipped"
)

// SyncResult is the outcome of reconciling one promo.
type SyncResult struct {
	PromoID string
	URL     string
	Status  SyncStatus
	Chunks  int
	Err     error
}

// SyncReport aggregates one reconciliation run.
type SyncReport struct {
	Total          int
	Succeeded      int
	Failed         int
	Skipped        int
	Invalid        int // records rejected before reconciliation started
	ChunksUpserted int
	OrphansDeleted int
	Rebuilt        bool
	Duration       time.Duration
	Results        []SyncResult
}

func syncReportFromInternal(r syncuc.Report) SyncReport {
	results := make([]SyncResult, len(r.Results))
	for i, res := range r.Results {
		results[i] = SyncResult{
			PromoID: res.PromoID(),
			URL:     res.URL(),
			Status:  SyncStatus(res.Status()),
			Chunks:  res.Chunks(),
			Err:     res.Err(),
		}
	}
	return SyncReport{
		Total:          r.Total(),
		Succeeded:      r.Succeeded(),
		Failed:         r.Failed(),
		Skipped:        r.Skipped(),
		ChunksUpserted: r.ChunksUpserted(),
		OrphansDeleted: r.OrphansDeleted,
		Rebuilt:        r.Rebuilt,
		Duration:       r.Duration,
		Results:        results,
	}
}

// Stats reports stored chunk and promo counts.
type Stats struct {
	Chunks int
	Promos int
}

// HealthStatus is the aggregated component status.
type HealthStatus string

// Health status values.
const (
	StatusOK       HealthStatus = "ok"
	StatusDegraded HealthStatus = "degraded"
	StatusError    HealthStatus = "error"
)

// HealthReport maps each component to "ok" or "error". A failing store means
// Status error; a failing embedding provider alone means degraded.
type HealthReport struct {
	Status HealthStatus
	Checks map[string]string
}

func healthFromInternal(r healthuc.Report) HealthReport {
	checks := make(map[string]string, len(r.Checks))
	for name, res := range r.Checks {
		checks[name] = string(res)
	}
	return HealthReport{Status: HealthStatus(r.Status), Checks: checks}
}
