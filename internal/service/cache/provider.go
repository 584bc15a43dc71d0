package cache

import (
	"context"
	"errors"
	"time"

	"QuotePull/internal/domain/models"
	"QuotePull/internal/domain/repository"
	pkgcache "QuotePull/pkg/cache"
	applogger "QuotePull/pkg/logger"
)

// Provider caches the results of a wrapped provider. Only data is cached;
// absence always goes to the upstream again.
type Provider struct {
	repository.Provider

	store     pkgcache.Service
	quoteTTL  time.Duration
	candleTTL time.Duration
	logger    *applogger.Logger
}

// Wrap returns p with quote and candle caching in store.
func Wrap(p repository.Provider, store pkgcache.Service, quoteTTL, candleTTL time.Duration, logger *applogger.Logger) *Provider {
	if logger == nil {
		logger = applogger.Nop()
	}
	return &Provider{
		Provider:  p,
		store:     store,
		quoteTTL:  quoteTTL,
		candleTTL: candleTTL,
		logger:    logger,
	}
}

func (c *Provider) GetQuote(ctx context.Context, symbol models.Symbol) (models.MarketTick, bool) {
	key := pkgcache.Key("quote", c.Name(), symbol)
	var tick models.MarketTick
	if c.load(ctx, key, &tick) {
		return tick, true
	}

	tick, ok := c.Provider.GetQuote(ctx, symbol)
	if ok {
		c.save(ctx, key, tick, c.quoteTTL)
	}
	return tick, ok
}

func (c *Provider) GetCandles(ctx context.Context, symbol models.Symbol, period models.KlinePeriod, limit int) []models.OHLCV {
	key := pkgcache.Key("candles", c.Name(), symbol, period, limit)
	var candles []models.OHLCV
	if c.load(ctx, key, &candles) && len(candles) > 0 {
		return candles
	}

	candles = c.Provider.GetCandles(ctx, symbol, period, limit)
	if len(candles) > 0 {
		c.save(ctx, key, candles, c.candleTTL)
	}
	return candles
}

func (c *Provider) load(ctx context.Context, key string, dest interface{}) bool {
	err := c.store.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, pkgcache.ErrCacheMiss) {
		c.logger.Warn("cache read failed", applogger.String("key", key), applogger.Error(err))
	}
	return false
}

func (c *Provider) save(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := c.store.Set(ctx, key, value, ttl); err != nil {
		c.logger.Warn("cache write failed", applogger.String("key", key), applogger.Error(err))
	}
}
