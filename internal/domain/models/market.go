package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is the kind of data a request asks for. The aggregator passes it
// to strategies untouched.
type Category string

const (
	CategoryRealtimeQuote  Category = "REALTIME_QUOTE"
	CategoryKlineData      Category = "KLINE_DATA"
	CategoryHistoricalData Category = "HISTORICAL_DATA"
	CategoryMarketDepth    Category = "MARKET_DEPTH"
	CategoryTradeDetail    Category = "TRADE_DETAIL"
)

// KlinePeriod is a candle width.
type KlinePeriod string

const (
	Period1m  KlinePeriod = "1m"
	Period5m  KlinePeriod = "5m"
	Period15m KlinePeriod = "15m"
	Period30m KlinePeriod = "30m"
	Period1h  KlinePeriod = "1h"
	Period4h  KlinePeriod = "4h"
	Period1d  KlinePeriod = "1d"
	Period1w  KlinePeriod = "1w"
	Period1mo KlinePeriod = "1mo"
)

// AllPeriods lists every supported period from narrowest to widest.
var AllPeriods = []KlinePeriod{Period1m, Period5m, Period15m, Period30m, Period1h, Period4h, Period1d, Period1w, Period1mo}

// IsValid reports whether p is a supported period.
func (p KlinePeriod) IsValid() bool {
	for _, v := range AllPeriods {
		if v == p {
			return true
		}
	}
	return false
}

// ParseKlinePeriod returns the period for s, or false when unsupported.
func ParseKlinePeriod(s string) (KlinePeriod, bool) {
	p := KlinePeriod(s)
	return p, p.IsValid()
}

const (
	DefaultCandleLimit = 100
	MaxCandleLimit     = 1000
)

// ClampCandleLimit maps a requested candle count into [1, MaxCandleLimit].
// Non-positive requests get DefaultCandleLimit.
func ClampCandleLimit(limit int) int {
	if limit <= 0 {
		return DefaultCandleLimit
	}
	return min(limit, MaxCandleLimit)
}

// MarketTick is a point-in-time quote snapshot.
type MarketTick struct {
	Symbol       Symbol          `json:"symbol"`
	Price        decimal.Decimal `json:"price"`
	Volume       int64           `json:"volume"`
	BidPrice     decimal.Decimal `json:"bid_price"`
	BidVolume    int64           `json:"bid_volume"`
	AskPrice     decimal.Decimal `json:"ask_price"`
	AskVolume    int64           `json:"ask_volume"`
	ChangeRate   decimal.Decimal `json:"change_rate"`
	ChangeAmount decimal.Decimal `json:"change_amount"`
	Timestamp    time.Time       `json:"timestamp"`
}

// OHLCV is one candle.
type OHLCV struct {
	Symbol    Symbol          `json:"symbol"`
	Timestamp time.Time       `json:"timestamp"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    int64           `json:"volume"`
	Amount    decimal.Decimal `json:"amount"`
}

// Valid reports whether all prices are positive and high is not below low.
func (c OHLCV) Valid() bool {
	if !c.Open.IsPositive() || !c.High.IsPositive() || !c.Low.IsPositive() || !c.Close.IsPositive() {
		return false
	}
	return c.High.GreaterThanOrEqual(c.Low)
}
