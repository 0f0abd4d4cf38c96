// Package feed acquires normalized promo records from the record normalizer's
// JSON output, either a file on disk or the service's category endpoints.
package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/promodex/internal/domain"
)

// Source yields the current promo set. The int reports records skipped as
// extraction failures.
type Source interface {
	Fetch(ctx context.Context) ([]domain.Promo, int, error)
}

// Record mirrors one object of the JSON feed contract. Every field except
// title/url is optional; a missing id is derived from the url.
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

// NewRecord exports a promo back to the feed wire format.
func NewRecord(p domain.Promo) Record {
	a := p.Attrs()
	return Record{
		ID:             a.ID,
		Title:          a.Title,
		URL:            a.URL,
		Period:         a.Period,
		Category:       a.Category,
		Bank:           a.Bank,
		PaymentMethods: a.PaymentMethods,
		Description:    a.Description,
		ScrapeDate:     a.ScrapeDate,
	}
}

// Promo converts the record to a validated domain promo.
func (r Record) Promo() (domain.Promo, error) {
	return domain.NewPromo(domain.PromoAttrs{
		ID:             r.ID,
		Title:          r.Title,
		URL:            r.URL,
		Period:         r.Period,
		Category:       r.Category,
		Bank:           r.Bank,
		PaymentMethods: r.PaymentMethods,
		Description:    r.Description,
		ScrapeDate:     r.ScrapeDate,
	})
}

// DecodeRecords parses a JSON feed. Malformed JSON is fatal; individual
// records failing validation are skipped and counted.
func DecodeRecords(data []byte) ([]domain.Promo, int, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, 0, fmt.Errorf("parse feed: %w", err)
	}
	promos, skipped := ConvertRecords(records)
	return promos, skipped, nil
}

// ConvertRecords maps wire records onto validated promos, counting the
// rejects. Shared by the sources and the HTTP sync handler.
func ConvertRecords(records []Record) ([]domain.Promo, int) {
	promos := make([]domain.Promo, 0, len(records))
	skipped := 0
	for _, r := range records {
		p, err := r.Promo()
		if err != nil {
			skipped++
			continue
		}
		promos = append(promos, p)
	}
	return promos, skipped
}

// EncodeRecords marshals promos in the feed wire format.
func EncodeRecords(promos []domain.Promo) ([]byte, error) {
	records := make([]Record, len(promos))
	for i, p := range promos {
		records[i] = NewRecord(p)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode feed: %w", err)
	}
	return data, nil
}

// DedupeByURL drops later occurrences of the same source URL (first wins).
// Promos with an empty URL are keyed by id instead.
func DedupeByURL(promos []domain.Promo) []domain.Promo {
	seen := make(map[string]struct{}, len(promos))
	out := make([]domain.Promo, 0, len(promos))
	for _, p := range promos {
		key := p.URL()
		if key == "" {
			key = p.ID()
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}
