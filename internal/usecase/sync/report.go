package sync

import "time"

// Status is the reconciliation outcome of a single promo.
type Status string

// Per-promo status values.
const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// PromoResult is the outcome of reconciling one promo.
type PromoResult struct {
	promoID string
	url     string
	status  Status
	chunks  int
	err     error
}

// NewOK creates a successful result with the number of chunks written.
func NewOK(promoID, url string, chunks int) PromoResult {
	return PromoResult{promoID: promoID, url: url, status: StatusOK, chunks: chunks}
}

// NewFailed creates a failed result.
func NewFailed(promoID, url string, err error) PromoResult {
	return PromoResult{promoID: promoID, url: url, status: StatusFailed, err: err}
}

// NewSkipped creates a result for a promo that was never attempted.
func NewSkipped(promoID, url string, err error) PromoResult {
	return PromoResult{promoID: promoID, url: url, status: StatusSkipped, err: err}
}

// PromoID returns the promo identifier.
func (r PromoResult) PromoID() string { return r.promoID }

// URL returns the promo source URL.
func (r PromoResult) URL() string { return r.url }

// Status returns the reconciliation outcome.
func (r PromoResult) Status() Status { return r.status }

// Chunks returns how many chunks were written for the promo.
func (r PromoResult) Chunks() int { return r.chunks }

// Err returns the failure, if any.
func (r PromoResult) Err() error { return r.err }

// Report aggregates one reconciliation run.
type Report struct {
	Results        []PromoResult
	OrphansDeleted int // stored promos removed because they left the feed
	OrphansFailed  int
	Rebuilt        bool // fingerprint change forced a full index rebuild
	Duration       time.Duration
}

// Total returns the number of promos the run covered.
func (r Report) Total() int { return len(r.Results) }

// Succeeded counts promos fully reconciled.
func (r Report) Succeeded() int { return r.count(StatusOK) }

// Failed counts promos that errored.
func (r Report) Failed() int { return r.count(StatusFailed) }

// Skipped counts promos never attempted.
func (r Report) Skipped() int { return r.count(StatusSkipped) }

// ChunksUpserted sums the chunks written across successful promos.
func (r Report) ChunksUpserted() int {
	var n int
	for _, res := range r.Results {
		n += res.Chunks()
	}
	return n
}

func (r Report) count(s Status) int {
	var n int
	for _, res := range r.Results {
		if res.Status() == s {
			n++
		}
	}
	return n
}
