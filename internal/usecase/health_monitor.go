package usecase

import (
	"context"
	"sync"
	"time"

	applogger "QuotePull/pkg/logger"
)

// HealthMonitor periodically probes the providers registered with an aggregator.
type HealthMonitor struct {
	agg      *DataAggregator
	interval time.Duration
	l        *applogger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHealthMonitor creates a monitor. A non-positive interval disables it.
func NewHealthMonitor(agg *DataAggregator, interval time.Duration, l *applogger.Logger) *HealthMonitor {
	if l == nil {
		l = applogger.Nop()
	}
	return &HealthMonitor{agg: agg, interval: interval, l: l}
}

// Start runs one probe round immediately, then one per interval until ctx ends or Shutdown is called.
func (m *HealthMonitor) Start(ctx context.Context) {
	if m.interval <= 0 {
		m.l.Info("health monitor disabled")
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.round(ctx)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.round(ctx)
			}
		}
	}()
	m.l.Info("health monitor started", applogger.Duration("interval_ms", m.interval))
}

func (m *HealthMonitor) round(ctx context.Context) {
	results := m.agg.UpdateProviderHealth(ctx)
	var down []string
	for name, ok := range results {
		if !ok {
			down = append(down, name)
		}
	}
	if len(down) > 0 {
		m.l.Warn("providers failed health check", applogger.Strings("providers", down))
	}
}

// Shutdown stops the probe loop and waits for the current round to finish.
func (m *HealthMonitor) Shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}
