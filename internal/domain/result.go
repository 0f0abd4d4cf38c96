package domain

import "math"

// Result is a single ranked search hit after collapse and re-ranking.
type Result struct {
	rank           int
	title          string
	period         string
	url            string
	category       string
	bank           string
	paymentMethods []string
	similarity     float64
	score          float64
	description    string
}

// NewResult builds a ranked result from the winning chunk of a promotion.
func NewResult(rank int, c Chunk, similarity, score float64) Result {
	return Result{
		rank:           rank,
		title:          c.Title(),
		period:         c.Period(),
		url:            c.URL(),
		category:       c.Category(),
		bank:           c.Bank(),
		paymentMethods: c.PaymentMethods(),
		similarity:     similarity,
		score:          score,
		description:    c.Text(),
	}
}

// Rank returns the 1-based position in the ranked list.
func (r *Result) Rank() int { return r.rank }

// Title returns the promotion title.
func (r *Result) Title() string { return r.title }

// Period returns the promotion validity period text.
func (r *Result) Period() string { return r.period }

// URL returns the promotion source URL.
func (r *Result) URL() string { return r.url }

// Category returns the promotion category.
func (r *Result) Category() string { return r.category }

// Bank returns the issuing bank.
func (r *Result) Bank() string { return r.bank }

// PaymentMethods returns the accepted payment methods.
func (r *Result) PaymentMethods() []string { return r.paymentMethods }

// Similarity returns raw cosine similarity in [−1, 1], typically [0, 1].
func (r *Result) Similarity() float64 { return r.similarity }

// SimilarityPercent returns similarity scaled to percent, rounded to 2 decimals.
func (r *Result) SimilarityPercent() float64 {
	return math.Round(r.similarity*10000) / 100
}

// Score returns the boosted ranking score.
func (r *Result) Score() float64 { return r.score }

// Description returns the winning chunk text.
func (r *Result) Description() string { return r.description }
