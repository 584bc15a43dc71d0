package repository

//go:generate mockgen -source=provider.go -destination=mocks/mock_provider.go -package=mocks

import (
	"context"

	"QuotePull/internal/domain/models"
)

// Provider fetches market data from one upstream.
// Failures of any kind resolve to absence: (zero, false), an empty slice or false.
// Implementations must be safe for concurrent use.
type Provider interface {
	Name() string
	Priority() int
	// RateLimit is an advisory requests-per-minute ceiling.
	RateLimit() int
	GetQuote(ctx context.Context, symbol models.Symbol) (models.MarketTick, bool)
	GetCandles(ctx context.Context, symbol models.Symbol, period models.KlinePeriod, limit int) []models.OHLCV
	HealthCheck(ctx context.Context) bool
}
