package models

import "time"

// ProviderStatus classifies provider liveness.
type ProviderStatus string

const (
	StatusUnknown     ProviderStatus = "unknown"
	StatusHealthy     ProviderStatus = "healthy"
	StatusDegraded    ProviderStatus = "degraded"
	StatusFailed      ProviderStatus = "failed"
	StatusRateLimited ProviderStatus = "rate_limited"
)

// Gauge maps a status to a number for metrics export.
func (s ProviderStatus) Gauge() float64 {
	switch s {
	case StatusHealthy:
		return 1
	case StatusDegraded:
		return 2
	case StatusFailed:
		return 3
	case StatusRateLimited:
		return 4
	default:
		return 0
	}
}

// ProviderHealth is a point-in-time view of one provider.
type ProviderHealth struct {
	Name                string         `json:"name"`
	Status              ProviderStatus `json:"status"`
	LastSuccess         time.Time      `json:"last_success"`
	LastFailure         time.Time      `json:"last_failure"`
	ConsecutiveFailures int            `json:"consecutive_failures"`
	SuccessRate         float64        `json:"success_rate"`
	AvgResponseTime     time.Duration  `json:"avg_response_time"`
	Requests            int64          `json:"requests"`
	Successes           int64          `json:"successes"`
	Failures            int64          `json:"failures"`
	RateLimit           int            `json:"rate_limit"`
}

// Statistics holds aggregate request counters.
// TotalRequests counts logical requests and Attempts counts provider calls.
type Statistics struct {
	TotalRequests      int64            `json:"total_requests"`
	SuccessfulRequests int64            `json:"successful_requests"`
	FailedRequests     int64            `json:"failed_requests"`
	Attempts           int64            `json:"attempts"`
	ProviderUsage      map[string]int64 `json:"provider_usage"`
	ProviderFailures   map[string]int64 `json:"provider_failures"`
	Strategy           string           `json:"strategy"`
}

// Clone returns a deep copy.
func (s Statistics) Clone() Statistics {
	out := s
	out.ProviderUsage = make(map[string]int64, len(s.ProviderUsage))
	for k, v := range s.ProviderUsage {
		out.ProviderUsage[k] = v
	}
	out.ProviderFailures = make(map[string]int64, len(s.ProviderFailures))
	for k, v := range s.ProviderFailures {
		out.ProviderFailures[k] = v
	}
	return out
}
