package model

// Reason identifies which policy rejected a request.
type Reason string

const (
	ReasonTooFast       Reason = "too_fast"
	ReasonRateLimited   Reason = "rate_limited"
	ReasonQuotaExceeded Reason = "quota_exceeded"
)

// Decision is the outcome of running a request through the admission stages.
// UsedToday/RemainingToday are only meaningful once the quota stage has run.
type Decision struct {
	Allowed        bool
	Reason         Reason
	UsedToday      int64
	RemainingToday int64
}
