package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	providerRequests *prometheus.CounterVec
	exhausted        *prometheus.CounterVec
	providerStatus   *prometheus.GaugeVec
	latency          *prometheus.HistogramVec
}

var (
	defaultRecorder *Recorder
	defaultOnce     sync.Once
)

// New returns the process-wide recorder registered with the default registry.
func New() *Recorder {
	defaultOnce.Do(func() {
		defaultRecorder = NewWithRegisterer(prometheus.DefaultRegisterer)
	})
	return defaultRecorder
}

// NewWithRegisterer creates a recorder registered with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		providerRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quotepull_provider_requests_total",
				Help: "Provider attempts by outcome",
			},
			[]string{"provider", "category", "result"},
		),
		exhausted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quotepull_requests_exhausted_total",
				Help: "Requests no provider could serve",
			},
			[]string{"category"},
		),
		providerStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "quotepull_provider_status",
				Help: "Provider status: 0 unknown, 1 healthy, 2 degraded, 3 failed, 4 rate limited",
			},
			[]string{"provider"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quotepull_request_duration_seconds",
				Help:    "Duration of aggregated requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordProviderRequest counts one provider attempt.
func (r *Recorder) RecordProviderRequest(provider, category, result string) {
	r.providerRequests.WithLabelValues(provider, category, result).Inc()
}

// RecordExhausted counts a request that ended without data.
func (r *Recorder) RecordExhausted(category string) {
	r.exhausted.WithLabelValues(category).Inc()
}

// RecordProviderStatus sets the current status gauge of a provider.
func (r *Recorder) RecordProviderStatus(provider string, status float64) {
	r.providerStatus.WithLabelValues(provider).Set(status)
}

// RecordLatency records operation latency.
func (r *Recorder) RecordLatency(op string, d time.Duration) {
	r.latency.WithLabelValues(op).Observe(d.Seconds())
}
