package usecase

import (
	"sync"
	"time"

	"QuotePull/internal/domain/models"
)

const (
	outcomeWindow   = 100
	latencyAlpha    = 0.2
	rateLimitWindow = time.Minute
)

// HealthLedgerOption configures HealthLedger.
type HealthLedgerOption func(*HealthLedger)

// WithFailureThreshold sets how many consecutive failures mark a provider as failed.
func WithFailureThreshold(n int) HealthLedgerOption {
	return func(l *HealthLedger) {
		if n > 0 {
			l.failureThreshold = n
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) HealthLedgerOption {
	return func(l *HealthLedger) {
		l.now = now
	}
}

type providerState struct {
	health   models.ProviderHealth
	outcomes [outcomeWindow]bool
	filled   int
	next     int
	recent   []time.Time
}

func (s *providerState) push(ok bool) {
	s.outcomes[s.next] = ok
	s.next = (s.next + 1) % outcomeWindow
	if s.filled < outcomeWindow {
		s.filled++
	}
	var wins int
	for i := 0; i < s.filled; i++ {
		if s.outcomes[i] {
			wins++
		}
	}
	s.health.SuccessRate = float64(wins) / float64(s.filled)
}

func (s *providerState) observeLatency(d time.Duration) {
	if s.health.AvgResponseTime == 0 {
		s.health.AvgResponseTime = d
		return
	}
	avg := float64(s.health.AvgResponseTime)*(1-latencyAlpha) + float64(d)*latencyAlpha
	s.health.AvgResponseTime = time.Duration(avg)
}

// overLimit tracks calls in the trailing minute against the advisory ceiling.
func (s *providerState) overLimit(now time.Time) bool {
	cutoff := now.Add(-rateLimitWindow)
	keep := s.recent[:0]
	for _, t := range s.recent {
		if t.After(cutoff) {
			keep = append(keep, t)
		}
	}
	s.recent = append(keep, now)
	return s.health.RateLimit > 0 && len(s.recent) > s.health.RateLimit
}

// HealthLedger keeps per-provider health and the aggregate request counters.
type HealthLedger struct {
	mu               sync.RWMutex
	providers        map[string]*providerState
	stats            models.Statistics
	failureThreshold int
	now              func() time.Time
}

func NewHealthLedger(opts ...HealthLedgerOption) *HealthLedger {
	l := &HealthLedger{
		providers: make(map[string]*providerState),
		stats: models.Statistics{
			ProviderUsage:    make(map[string]int64),
			ProviderFailures: make(map[string]int64),
		},
		failureThreshold: 3,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Track creates an unknown-status entry for name unless one exists.
func (l *HealthLedger) Track(name string, rateLimit int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.providers[name]; ok {
		st.health.RateLimit = rateLimit
		return
	}
	l.providers[name] = &providerState{
		health: models.ProviderHealth{Name: name, Status: models.StatusUnknown, RateLimit: rateLimit},
	}
}

// Forget drops the health entry for name. Usage counters are kept.
func (l *HealthLedger) Forget(name string) {
	l.mu.Lock()
	delete(l.providers, name)
	l.mu.Unlock()
}


// BeginRequest counts one logical request.
func (l *HealthLedger) BeginRequest() {
	l.mu.Lock()
	l.stats.TotalRequests++
	l.mu.Unlock()
}

// RecordSuccess counts a successful attempt and the request it completes.
// Health is updated only while name is tracked; an untracked name reports Unknown.
func (l *HealthLedger) RecordSuccess(name string, latency time.Duration) models.ProviderStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.stats.Attempts++
	l.stats.SuccessfulRequests++
	l.stats.ProviderUsage[name]++

	st, ok := l.providers[name]
	if !ok {
		return models.StatusUnknown
	}
	st.health.Requests++
	st.health.Successes++
	st.health.LastSuccess = now
	st.health.ConsecutiveFailures = 0
	st.push(true)
	st.observeLatency(latency)
	st.health.Status = models.StatusHealthy
	if st.overLimit(now) {
		st.health.Status = models.StatusRateLimited
	}
	return st.health.Status
}

// RecordFailure counts a failed attempt. The request itself stays open.
func (l *HealthLedger) RecordFailure(name string, latency time.Duration) models.ProviderStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.stats.Attempts++
	l.stats.ProviderFailures[name]++

	st, ok := l.providers[name]
	if !ok {
		return models.StatusUnknown
	}
	st.health.Requests++
	st.health.Failures++
	l.markFailed(st, now)
	st.observeLatency(latency)
	if st.overLimit(now) {
		st.health.Status = models.StatusRateLimited
	}
	return st.health.Status
}

// RecordExhausted counts a request that no candidate could serve.
func (l *HealthLedger) RecordExhausted() {
	l.mu.Lock()
	l.stats.FailedRequests++
	l.mu.Unlock()
}

// RecordProbe applies a health-check result. Probes do not touch request counters.
func (l *HealthLedger) RecordProbe(name string, ok bool, latency time.Duration) models.ProviderStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	st, tracked := l.providers[name]
	if !tracked {
		return models.StatusUnknown
	}
	st.observeLatency(latency)
	if ok {
		st.health.ConsecutiveFailures = 0
		st.health.LastSuccess = now
		st.push(true)
		st.health.Status = models.StatusHealthy
		return st.health.Status
	}
	l.markFailed(st, now)
	return st.health.Status
}

func (l *HealthLedger) markFailed(st *providerState, now time.Time) {
	st.health.LastFailure = now
	st.health.ConsecutiveFailures++
	st.push(false)
	if st.health.ConsecutiveFailures >= l.failureThreshold {
		st.health.Status = models.StatusFailed
	} else {
		st.health.Status = models.StatusDegraded
	}
}

// SuccessRate returns the rolling success rate of name.
func (l *HealthLedger) SuccessRate(name string) (float64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	st, ok := l.providers[name]
	if !ok || st.filled == 0 {
		return 0, false
	}
	return st.health.SuccessRate, true
}

// Health returns a copy of the health of name.
func (l *HealthLedger) Health(name string) (models.ProviderHealth, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	st, ok := l.providers[name]
	if !ok {
		return models.ProviderHealth{}, false
	}
	return st.health, true
}

// Snapshot returns a copy of every tracked provider's health.
func (l *HealthLedger) Snapshot() map[string]models.ProviderHealth {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]models.ProviderHealth, len(l.providers))
	for name, st := range l.providers {
		out[name] = st.health
	}
	return out
}

// Statistics returns a copy of the aggregate counters.
func (l *HealthLedger) Statistics() models.Statistics {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stats.Clone()
}
