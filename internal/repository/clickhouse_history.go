package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"QuotePull/internal/domain/models"
	applogger "QuotePull/pkg/logger"

	"github.com/shopspring/decimal"
)

const (
	HistoryName     = "ClickHouseHistory"
	historyPriority = 50
)

// HistorySchema returns the DDL for the candle archive read by ClickHouseHistory.
func HistorySchema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			symbol LowCardinality(String),
			period LowCardinality(String),
			ts     DateTime64(3),
			open   Float64,
			high   Float64,
			low    Float64,
			close  Float64,
			volume Int64,
			amount Float64
		) ENGINE = ReplacingMergeTree
		ORDER BY (symbol, period, ts)`, database, table),
	}
}

// ClickHouseHistory serves candles from an archive table. It is the provider
// of last resort: it never has realtime quotes.
type ClickHouseHistory struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

// NewClickHouseHistory creates a history provider reading database.table.
func NewClickHouseHistory(db *sql.DB, database, table string, l *applogger.Logger) *ClickHouseHistory {
	if l == nil {
		l = applogger.Nop()
	}
	return &ClickHouseHistory{
		db:    db,
		table: database + "." + table,
		l:     l.With(applogger.String("provider", HistoryName)),
	}
}

func (s *ClickHouseHistory) Name() string   { return HistoryName }
func (s *ClickHouseHistory) Priority() int  { return historyPriority }
func (s *ClickHouseHistory) RateLimit() int { return 0 }

func (s *ClickHouseHistory) GetQuote(context.Context, models.Symbol) (models.MarketTick, bool) {
	return models.MarketTick{}, false
}

// GetCandles returns the newest limit candles in ascending time order.
func (s *ClickHouseHistory) GetCandles(ctx context.Context, symbol models.Symbol, period models.KlinePeriod, limit int) []models.OHLCV {
	start := time.Now()
	limit = models.ClampCandleLimit(limit)
	q := fmt.Sprintf(`
        SELECT ts, open, high, low, close, volume, amount
        FROM %s
        WHERE symbol = ? AND period = ?
        ORDER BY ts DESC
        LIMIT ?
    `, s.table)

	rows, err := s.db.QueryContext(ctx, q, symbol.String(), string(period), limit)
	if err != nil {
		s.l.Error("clickhouse history query error",
			applogger.String("symbol", symbol.String()),
			applogger.String("period", string(period)),
			applogger.Error(err),
		)
		return nil
	}
	defer rows.Close()

	var out []models.OHLCV
	for rows.Next() {
		var (
			ts                            time.Time
			open, high, low, close, amount float64
			volume                        int64
		)
		if err := rows.Scan(&ts, &open, &high, &low, &close, &volume, &amount); err != nil {
			s.l.Error("clickhouse history scan error", applogger.String("symbol", symbol.String()), applogger.Error(err))
			return nil
		}
		c := models.OHLCV{
			Symbol:    symbol,
			Timestamp: ts,
			Open:      decimal.NewFromFloat(open),
			High:      decimal.NewFromFloat(high),
			Low:       decimal.NewFromFloat(low),
			Close:     decimal.NewFromFloat(close),
			Volume:    volume,
			Amount:    decimal.NewFromFloat(amount),
		}
		if c.Valid() {
			out = append(out, c)
		}
	}
	if err := rows.Err(); err != nil {
		s.l.Error("clickhouse history rows error", applogger.String("symbol", symbol.String()), applogger.Error(err))
		return nil
	}

	// newest first from the query
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	s.l.Debug("clickhouse history ok",
		applogger.String("symbol", symbol.String()),
		applogger.String("period", string(period)),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration", time.Since(start)),
	)
	return out
}

func (s *ClickHouseHistory) HealthCheck(ctx context.Context) bool {
	return s.db.PingContext(ctx) == nil
}
