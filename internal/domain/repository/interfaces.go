package repository

import (
	"context"
	"time"

	"QuotePull/internal/domain/models"
)

// Metrics receives aggregator observations.
type Metrics interface {
	RecordProviderRequest(provider, category, result string)
	RecordExhausted(category string)
	RecordProviderStatus(provider string, status float64)
	RecordLatency(op string, d time.Duration)
}

// QuoteSink receives the quote snapshots collected for the watchlist.
type QuoteSink interface {
	PublishQuotes(ctx context.Context, ticks []models.MarketTick) error
}
