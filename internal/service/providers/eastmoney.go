package providers

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"QuotePull/internal/domain/models"
	"QuotePull/pkg/util"

	"github.com/shopspring/decimal"
)

const (
	EastMoneyName     = "EastMoney"
	eastMoneyPriority = 1
	eastMoneyRPM      = 100
)

var eastMoneyKlt = map[models.KlinePeriod]string{
	models.Period1m:  "1",
	models.Period5m:  "5",
	models.Period15m: "15",
	models.Period30m: "30",
	models.Period1h:  "60",
	models.Period4h:  "240",
	models.Period1d:  "101",
	models.Period1w:  "102",
	models.Period1mo: "103",
}

// EastMoney reads quotes and candles from the push2 JSON API.
type EastMoney struct {
	base
}

func NewEastMoney(opts ...Option) *EastMoney {
	return &EastMoney{
		base: newBase(EastMoneyName, eastMoneyPriority, eastMoneyRPM,
			"https://push2.eastmoney.com", "https://push2his.eastmoney.com", opts),
	}
}

type eastMoneyEnvelope struct {
	RC   int             `json:"rc"`
	Data json.RawMessage `json:"data"`
}

func (p *EastMoney) GetQuote(ctx context.Context, symbol models.Symbol) (models.MarketTick, bool) {
	body, ok := p.fetch(ctx, p.quoteURL+"/api/qt/stock/get", map[string][]string{
		"secid":  {symbol.EastMoneySecID()},
		"fields": {"f2,f3,f4,f5,f6,f31,f32,f86"},
		"fltt":   {"2"},
	}, nil)
	if !ok {
		return models.MarketTick{}, false
	}

	var env eastMoneyEnvelope
	if err := json.Unmarshal(body, &env); err != nil || isJSONNull(env.Data) {
		return models.MarketTick{}, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(env.Data, &fields); err != nil {
		return models.MarketTick{}, false
	}

	price, ok := rawDecimal(fields["f2"])
	if !ok || !price.IsPositive() {
		return models.MarketTick{}, false
	}
	tick := models.MarketTick{
		Symbol:    symbol,
		Price:     price,
		Timestamp: time.Now(),
	}
	tick.ChangeRate, _ = rawDecimal(fields["f3"])
	tick.ChangeAmount, _ = rawDecimal(fields["f4"])
	if v, ok := rawDecimal(fields["f5"]); ok {
		tick.Volume = v.IntPart()
	}
	tick.BidPrice, _ = rawDecimal(fields["f31"])
	tick.AskPrice, _ = rawDecimal(fields["f32"])
	if ts, ok := rawDecimal(fields["f86"]); ok && ts.IsPositive() {
		tick.Timestamp = time.Unix(ts.IntPart(), 0)
	}
	return tick, true
}

func (p *EastMoney) GetCandles(ctx context.Context, symbol models.Symbol, period models.KlinePeriod, limit int) []models.OHLCV {
	klt, ok := eastMoneyKlt[period]
	if !ok {
		return nil
	}
	body, ok := p.fetch(ctx, p.klineURL+"/api/qt/stock/kline/get", map[string][]string{
		"secid":   {symbol.EastMoneySecID()},
		"fields1": {"f1,f2,f3"},
		"fields2": {"f51,f52,f53,f54,f55,f56,f57,f58"},
		"klt":     {klt},
		"fqt":     {"1"},
		"beg":     {"19900101"},
		"end":     {"20500101"},
		"lmt":     {strconv.Itoa(models.ClampCandleLimit(limit))},
	}, nil)
	if !ok {
		return nil
	}

	var env struct {
		Data *struct {
			Klines []string `json:"klines"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil || env.Data == nil {
		return nil
	}

	out := make([]models.OHLCV, 0, len(env.Data.Klines))
	for _, row := range env.Data.Klines {
		// date,open,close,high,low,volume,amount[,amplitude]
		f := strings.Split(row, ",")
		if len(f) < 7 {
			continue
		}
		ts, ok := util.ParseMarketTime(f[0], util.ChinaTZ)
		if !ok {
			continue
		}
		c := models.OHLCV{Symbol: symbol, Timestamp: ts}
		c.Open, _ = util.ParseDecimal(f[1])
		c.Close, _ = util.ParseDecimal(f[2])
		c.High, _ = util.ParseDecimal(f[3])
		c.Low, _ = util.ParseDecimal(f[4])
		c.Volume, _ = util.ParseInt64(f[5])
		c.Amount, _ = util.ParseDecimal(f[6])
		if c.Valid() {
			out = append(out, c)
		}
	}
	return trimTail(out, limit)
}

func (p *EastMoney) HealthCheck(ctx context.Context) bool {
	body, ok := p.fetch(ctx, p.quoteURL+"/api/qt/stock/get", map[string][]string{
		"secid":  {"1.000001"},
		"fields": {"f2"},
	}, nil)
	if !ok {
		return false
	}
	var env eastMoneyEnvelope
	return json.Unmarshal(body, &env) == nil && !isJSONNull(env.Data)
}

func isJSONNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

// rawDecimal accepts a JSON number or a quoted number; "-" placeholders fail.
func rawDecimal(raw json.RawMessage) (decimal.Decimal, bool) {
	if isJSONNull(raw) {
		return decimal.Zero, false
	}
	return util.ParseDecimal(strings.Trim(string(raw), `"`))
}

// trimTail keeps the newest limit candles.
func trimTail(c []models.OHLCV, limit int) []models.OHLCV {
	if limit > 0 && len(c) > limit {
		return c[len(c)-limit:]
	}
	return c
}
