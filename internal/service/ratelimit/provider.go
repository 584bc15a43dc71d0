package ratelimit

import (
	"context"

	"QuotePull/internal/domain/models"
	"QuotePull/internal/domain/repository"
	applogger "QuotePull/pkg/logger"
)

// Provider enforces the wrapped provider's RateLimit with a token bucket of
// capacity RPM refilled at RPM/60 per second. A throttled call is absence.
// Health probes are not throttled.
type Provider struct {
	repository.Provider

	limiter *Limiter
	logger  *applogger.Logger
}

// Wrap returns p throttled by limiter. Providers reporting no limit are
// returned unwrapped.
func Wrap(p repository.Provider, limiter *Limiter, logger *applogger.Logger) repository.Provider {
	if p.RateLimit() <= 0 {
		return p
	}
	if logger == nil {
		logger = applogger.Nop()
	}
	return &Provider{Provider: p, limiter: limiter, logger: logger}
}

func (r *Provider) allow() bool {
	if r.limiter.Allow(r.Name(), r.RateLimit()) {
		return true
	}
	r.logger.Debug("provider throttled", applogger.String("provider", r.Name()))
	return false
}

func (r *Provider) GetQuote(ctx context.Context, symbol models.Symbol) (models.MarketTick, bool) {
	if !r.allow() {
		return models.MarketTick{}, false
	}
	return r.Provider.GetQuote(ctx, symbol)
}

func (r *Provider) GetCandles(ctx context.Context, symbol models.Symbol, period models.KlinePeriod, limit int) []models.OHLCV {
	if !r.allow() {
		return nil
	}
	return r.Provider.GetCandles(ctx, symbol, period, limit)
}
