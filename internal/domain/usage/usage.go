// Package usage holds the embedding token usage report served by the
// usage endpoint.
package usage

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
	PeriodTotal Period = "total"
)

// ParsePeriod maps a raw query value to a Period. Unknown or empty values
// fall back to the monthly view.
func ParsePeriod(s string) Period {
	switch Period(s) {
	case PeriodDay:
		return PeriodDay
	case PeriodTotal:
		return PeriodTotal
	default:
		return PeriodMonth
	}
}

// Report is an embedding token usage report for one aggregation period.
// Timestamps are unix millis; zero start/end mean the report is not bound
// to a calendar window (total).
type Report struct {
	period          Period
	periodStart     int64
	periodEnd       int64
	tokensUsed      int64
	tokensLimit     int64
	tokensRemaining int64
	exhausted       bool
	resetsAt        int64
}

// NewReport creates a usage report.
func NewReport(
	period Period, start, end int64,
	used, limit, remaining int64,
	exhausted bool, resetsAt int64,
) Report {
	return Report{
		period:          period,
		periodStart:     start,
		periodEnd:       end,
		tokensUsed:      used,
		tokensLimit:     limit,
		tokensRemaining: remaining,
		exhausted:       exhausted,
		resetsAt:        resetsAt,
	}
}

// Period returns the aggregation granularity.
func (r *Report) Period() Period { return r.period }

// PeriodStart returns the period start timestamp (unix millis).
func (r *Report) PeriodStart() int64 { return r.periodStart }

// PeriodEnd returns the period end timestamp (unix millis).
func (r *Report) PeriodEnd() int64 { return r.periodEnd }

// TokensUsed returns the tokens consumed in the period.
func (r *Report) TokensUsed() int64 { return r.tokensUsed }

// TokensLimit returns the token cap (0 when unlimited).
func (r *Report) TokensLimit() int64 { return r.tokensLimit }

// TokensRemaining returns tokens left (-1 when unlimited).
func (r *Report) TokensRemaining() int64 { return r.tokensRemaining }

// Exhausted reports whether the budget for the period is spent.
func (r *Report) Exhausted() bool { return r.exhausted }

// ResetsAt returns the counter reset timestamp (unix millis, 0 for total).
func (r *Report) ResetsAt() int64 { return r.resetsAt }
