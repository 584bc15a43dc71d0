package usecase

import (
	"context"
	"sync"
	"time"

	"QuotePull/internal/domain/models"
	"QuotePull/internal/domain/repository"
	"QuotePull/internal/service/strategy"
	applogger "QuotePull/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// AggregatorOption configures DataAggregator.
type AggregatorOption func(*DataAggregator)

// WithStrategy installs the initial selection strategy.
func WithStrategy(s strategy.Strategy) AggregatorOption {
	return func(a *DataAggregator) {
		a.strategy = s
	}
}

// WithLedger shares an existing ledger, e.g. one also used as a HealthSource.
func WithLedger(l *HealthLedger) AggregatorOption {
	return func(a *DataAggregator) {
		a.ledger = l
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m repository.Metrics) AggregatorOption {
	return func(a *DataAggregator) {
		a.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *applogger.Logger) AggregatorOption {
	return func(a *DataAggregator) {
		a.l = l
	}
}

// WithProbeTimeout bounds each health check run by UpdateProviderHealth.
func WithProbeTimeout(d time.Duration) AggregatorOption {
	return func(a *DataAggregator) {
		if d > 0 {
			a.probeTimeout = d
		}
	}
}

// DataAggregator serves quotes and candles from the first registered provider
// that can produce them, in the order chosen by the active strategy.
//
// mu guards the registry and the strategy pointer and is never held while a
// provider is called.
type DataAggregator struct {
	mu        sync.Mutex
	providers []repository.Provider
	strategy  strategy.Strategy

	ledger       *HealthLedger
	metrics      repository.Metrics
	l            *applogger.Logger
	probeTimeout time.Duration
}

func NewDataAggregator(opts ...AggregatorOption) *DataAggregator {
	a := &DataAggregator{
		probeTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.ledger == nil {
		a.ledger = NewHealthLedger()
	}
	if a.metrics == nil {
		a.metrics = noopMetrics{}
	}
	if a.l == nil {
		a.l = applogger.Nop()
	}
	return a
}

// Register appends p to the registry.
func (a *DataAggregator) Register(p repository.Provider) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.providers = append(a.providers, p)
	a.ledger.Track(p.Name(), p.RateLimit())
	a.l.Info("provider registered",
		applogger.String("provider", p.Name()),
		applogger.Int("priority", p.Priority()),
		applogger.Int("rate_limit", p.RateLimit()),
	)
}

// Unregister removes every provider named name and returns how many were removed.
func (a *DataAggregator) Unregister(name string) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	kept := make([]repository.Provider, 0, len(a.providers))
	for _, p := range a.providers {
		if p.Name() != name {
			kept = append(kept, p)
		}
	}
	removed := len(a.providers) - len(kept)
	a.providers = kept
	if removed > 0 {
		a.ledger.Forget(name)
		a.l.Info("provider unregistered", applogger.String("provider", name), applogger.Int("removed", removed))
	}
	return removed
}

// SetStrategy replaces the active strategy. A nil strategy disables selection.
func (a *DataAggregator) SetStrategy(s strategy.Strategy) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.strategy = s
	if s != nil {
		a.l.Info("strategy changed", applogger.String("strategy", s.Name()))
	}
}

// StrategyName returns the active strategy name, or "" when none is installed.
func (a *DataAggregator) StrategyName() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.strategy == nil {
		return ""
	}
	return a.strategy.Name()
}

// Providers returns a copy of the registry in registration order.
func (a *DataAggregator) Providers() []repository.Provider {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]repository.Provider, len(a.providers))
	copy(out, a.providers)
	return out
}

// Ledger exposes the health ledger, e.g. as a strategy.HealthSource.
func (a *DataAggregator) Ledger() *HealthLedger { return a.ledger }

// GetQuote returns the first quote any candidate produces.
func (a *DataAggregator) GetQuote(ctx context.Context, symbol models.Symbol) (models.MarketTick, bool) {
	var tick models.MarketTick
	ok := a.execute(models.CategoryRealtimeQuote, symbol, func(p repository.Provider) bool {
		t, ok := p.GetQuote(ctx, symbol)
		if ok {
			tick = t
		}
		return ok
	})
	if !ok {
		return models.MarketTick{}, false
	}
	return tick, true
}

// GetCandles returns the first non-empty candle set any candidate produces.
func (a *DataAggregator) GetCandles(ctx context.Context, symbol models.Symbol, period models.KlinePeriod, limit int) []models.OHLCV {
	var candles []models.OHLCV
	a.execute(models.CategoryKlineData, symbol, func(p repository.Provider) bool {
		c := p.GetCandles(ctx, symbol, period, limit)
		if len(c) == 0 {
			return false
		}
		candles = c
		return true
	})
	return candles
}

func (a *DataAggregator) selectCandidates(category models.Category) []repository.Provider {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.strategy == nil || len(a.providers) == 0 {
		return nil
	}
	registry := make([]repository.Provider, len(a.providers))
	copy(registry, a.providers)
	return a.strategy.Select(category, registry)
}

func (a *DataAggregator) execute(category models.Category, symbol models.Symbol, fetch func(repository.Provider) bool) bool {
	reqID := uuid.NewString()
	start := time.Now()
	defer func() { a.metrics.RecordLatency(string(category), time.Since(start)) }()

	candidates := a.selectCandidates(category)
	a.ledger.BeginRequest()

	if len(candidates) == 0 {
		a.ledger.RecordExhausted()
		a.metrics.RecordExhausted(string(category))
		a.l.Debug("no candidates for request",
			applogger.String("request_id", reqID),
			applogger.String("category", string(category)),
			applogger.String("symbol", symbol.String()),
		)
		return false
	}

	for _, p := range candidates {
		name := p.Name()
		ok, elapsed := a.attempt(reqID, name, p, fetch)
		if ok {
			status := a.ledger.RecordSuccess(name, elapsed)
			a.metrics.RecordProviderRequest(name, string(category), "success")
			a.metrics.RecordProviderStatus(name, status.Gauge())
			a.l.Debug("provider served request",
				applogger.String("request_id", reqID),
				applogger.String("provider", name),
				applogger.String("category", string(category)),
				applogger.String("symbol", symbol.String()),
				applogger.Duration("duration_ms", elapsed),
			)
			return true
		}
		status := a.ledger.RecordFailure(name, elapsed)
		a.metrics.RecordProviderRequest(name, string(category), "absent")
		a.metrics.RecordProviderStatus(name, status.Gauge())
		a.l.Debug("provider returned nothing",
			applogger.String("request_id", reqID),
			applogger.String("provider", name),
			applogger.String("category", string(category)),
			applogger.String("symbol", symbol.String()),
		)
	}

	a.ledger.RecordExhausted()
	a.metrics.RecordExhausted(string(category))
	a.l.Debug("all candidates exhausted",
		applogger.String("request_id", reqID),
		applogger.String("category", string(category)),
		applogger.String("symbol", symbol.String()),
		applogger.Int("candidates", len(candidates)),
	)
	return false
}

// attempt runs fetch against p. A panic counts as a failed attempt.
func (a *DataAggregator) attempt(reqID, name string, p repository.Provider, fetch func(repository.Provider) bool) (ok bool, elapsed time.Duration) {
	start := time.Now()
	defer func() {
		elapsed = time.Since(start)
		if r := recover(); r != nil {
			ok = false
			a.l.Warn("provider panicked",
				applogger.String("request_id", reqID),
				applogger.String("provider", name),
				applogger.Any("panic", r),
			)
		}
	}()
	return fetch(p), 0
}

// UpdateProviderHealth probes every registered provider concurrently and
// records the results. It returns the probe outcome per provider name.
func (a *DataAggregator) UpdateProviderHealth(ctx context.Context) map[string]bool {
	providers := a.Providers()
	results := make(map[string]bool, len(providers))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, p := range providers {
		g.Go(func() error {
			name := p.Name()
			pctx, cancel := context.WithTimeout(gctx, a.probeTimeout)
			defer cancel()

			start := time.Now()
			ok := a.probe(pctx, name, p)
			status := a.ledger.RecordProbe(name, ok, time.Since(start))
			a.metrics.RecordProviderStatus(name, status.Gauge())

			mu.Lock()
			results[name] = ok
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	a.l.Debug("provider health updated", applogger.Int("providers", len(results)))
	return results
}

func (a *DataAggregator) probe(ctx context.Context, name string, p repository.Provider) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			a.l.Warn("health check panicked", applogger.String("provider", name), applogger.Any("panic", r))
		}
	}()
	return p.HealthCheck(ctx)
}

// GetProviderHealth returns a snapshot of every provider's health.
func (a *DataAggregator) GetProviderHealth() map[string]models.ProviderHealth {
	return a.ledger.Snapshot()
}

// GetStatistics returns a snapshot of the request counters.
func (a *DataAggregator) GetStatistics() models.Statistics {
	stats := a.ledger.Statistics()
	stats.Strategy = a.StrategyName()
	return stats
}

type noopMetrics struct{}

func (noopMetrics) RecordProviderRequest(string, string, string) {}
func (noopMetrics) RecordExhausted(string)                       {}
func (noopMetrics) RecordProviderStatus(string, float64)         {}
func (noopMetrics) RecordLatency(string, time.Duration)          {}
