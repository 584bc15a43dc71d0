package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"QuotePull/internal/domain/models"
	"QuotePull/pkg/util"
)

const (
	TencentName     = "TencentFinance"
	tencentPriority = 15
	tencentRPM      = 60
)

var tencentKtype = map[models.KlinePeriod]string{
	models.Period1d:  "day",
	models.Period1w:  "week",
	models.Period1mo: "month",
}

// Tencent reads the qt.gtimg.cn "~" quote format and the fqkline API.
type Tencent struct {
	base
}

func NewTencent(opts ...Option) *Tencent {
	return &Tencent{
		base: newBase(TencentName, tencentPriority, tencentRPM,
			"https://qt.gtimg.cn", "https://web.ifzq.gtimg.cn", opts),
	}
}

func (p *Tencent) GetQuote(ctx context.Context, symbol models.Symbol) (models.MarketTick, bool) {
	f, ok := p.quoteFields(ctx, symbol.TencentCode())
	if !ok || len(f) < 33 {
		return models.MarketTick{}, false
	}

	price, ok := util.ParseDecimal(f[3])
	if !ok || !price.IsPositive() {
		return models.MarketTick{}, false
	}
	tick := models.MarketTick{Symbol: symbol, Price: price, Timestamp: time.Now()}
	tick.Volume, _ = util.ParseInt64(f[6])
	tick.BidPrice, _ = util.ParseDecimal(f[9])
	tick.BidVolume, _ = util.ParseInt64(f[10])
	tick.AskPrice, _ = util.ParseDecimal(f[19])
	tick.AskVolume, _ = util.ParseInt64(f[20])
	tick.ChangeAmount, _ = util.ParseDecimal(f[31])
	tick.ChangeRate, _ = util.ParseDecimal(f[32])
	if ts, ok := util.ParseMarketTime(f[30], util.ChinaTZ); ok {
		tick.Timestamp = ts
	}
	return tick, true
}

func (p *Tencent) quoteFields(ctx context.Context, code string) ([]string, bool) {
	body, ok := p.fetch(ctx, p.quoteURL+"/q="+code, nil, nil)
	if !ok {
		return nil, false
	}
	s := string(body)
	start := strings.IndexByte(s, '"')
	end := strings.LastIndexByte(s, '"')
	if start < 0 || end <= start+1 {
		return nil, false
	}
	return strings.Split(s[start+1:end], "~"), true
}

func (p *Tencent) GetCandles(ctx context.Context, symbol models.Symbol, period models.KlinePeriod, limit int) []models.OHLCV {
	ktype, ok := tencentKtype[period]
	if !ok {
		return nil
	}
	code := symbol.TencentCode()
	body, ok := p.fetch(ctx, p.klineURL+"/appstock/app/fqkline/get", map[string][]string{
		"param": {fmt.Sprintf("%s,%s,,,%d,qfq", code, ktype, models.ClampCandleLimit(limit))},
	}, nil)
	if !ok {
		return nil
	}

	var env struct {
		Data map[string]map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil
	}
	series, ok := env.Data[code]
	if !ok {
		return nil
	}
	raw, ok := series["qfq"+ktype]
	if !ok {
		raw = series[ktype]
	}
	// Rows are [date, open, close, high, low, volume, ...]; trailing entries
	// may be objects so each cell is decoded loosely.
	var rows [][]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil
	}

	out := make([]models.OHLCV, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		ts, ok := util.ParseMarketTime(strings.Trim(string(row[0]), `"`), util.ChinaTZ)
		if !ok {
			continue
		}
		c := models.OHLCV{Symbol: symbol, Timestamp: ts}
		c.Open, _ = rawDecimal(row[1])
		c.Close, _ = rawDecimal(row[2])
		c.High, _ = rawDecimal(row[3])
		c.Low, _ = rawDecimal(row[4])
		if v, ok := rawDecimal(row[5]); ok {
			c.Volume = v.IntPart()
		}
		if c.Valid() {
			out = append(out, c)
		}
	}
	return trimTail(out, limit)
}

func (p *Tencent) HealthCheck(ctx context.Context) bool {
	f, ok := p.quoteFields(ctx, "sh000001")
	return ok && len(f) > 3
}
