package providers

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"QuotePull/internal/domain/models"
	"QuotePull/pkg/util"
)

const (
	SinaName     = "SinaFinance"
	sinaPriority = 10
	sinaRPM      = 100
)

var sinaHeaders = map[string]string{"Referer": "https://finance.sina.com.cn"}

var sinaScale = map[models.KlinePeriod]string{
	models.Period5m:  "5",
	models.Period15m: "15",
	models.Period30m: "30",
	models.Period1h:  "60",
	models.Period1d:  "240",
}

// Sina reads the hq.sinajs.cn quote script and the market-center candle API.
type Sina struct {
	base
}

func NewSina(opts ...Option) *Sina {
	return &Sina{
		base: newBase(SinaName, sinaPriority, sinaRPM,
			"https://hq.sinajs.cn", "https://money.finance.sina.com.cn", opts),
	}
}

func (p *Sina) GetQuote(ctx context.Context, symbol models.Symbol) (models.MarketTick, bool) {
	fields, ok := p.quoteFields(ctx, symbol.SinaCode())
	if !ok || len(fields) < 32 {
		return models.MarketTick{}, false
	}

	price, ok := util.ParseDecimal(fields[3])
	if !ok || !price.IsPositive() {
		return models.MarketTick{}, false
	}
	tick := models.MarketTick{Symbol: symbol, Price: price, Timestamp: time.Now()}
	tick.Volume, _ = util.ParseInt64(fields[8])
	tick.BidVolume, _ = util.ParseInt64(fields[10])
	tick.BidPrice, _ = util.ParseDecimal(fields[11])
	tick.AskVolume, _ = util.ParseInt64(fields[20])
	tick.AskPrice, _ = util.ParseDecimal(fields[21])
	if prev, ok := util.ParseDecimal(fields[2]); ok && prev.IsPositive() {
		tick.ChangeAmount = price.Sub(prev)
		tick.ChangeRate = tick.ChangeAmount.Div(prev).Shift(2).Round(2)
	}
	if ts, ok := util.ParseMarketTime(fields[30]+" "+fields[31], util.ChinaTZ); ok {
		tick.Timestamp = ts
	}
	return tick, true
}

// quoteFields returns the comma separated payload of hq_str_<code>.
func (p *Sina) quoteFields(ctx context.Context, code string) ([]string, bool) {
	body, ok := p.fetch(ctx, p.quoteURL+"/list="+code, nil, sinaHeaders)
	if !ok {
		return nil, false
	}
	s := string(body)
	start := strings.IndexByte(s, '"')
	end := strings.LastIndexByte(s, '"')
	if start < 0 || end <= start+1 {
		return nil, false
	}
	return strings.Split(s[start+1:end], ","), true
}

type sinaCandle struct {
	Day    string `json:"day"`
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume string `json:"volume"`
}

func (p *Sina) GetCandles(ctx context.Context, symbol models.Symbol, period models.KlinePeriod, limit int) []models.OHLCV {
	scale, ok := sinaScale[period]
	if !ok {
		return nil
	}
	body, ok := p.fetch(ctx, p.klineURL+"/quotes_service/api/json_v2.php/CN_MarketData.getKLineData", map[string][]string{
		"symbol":  {symbol.SinaCode()},
		"scale":   {scale},
		"ma":      {"no"},
		"datalen": {strconv.Itoa(models.ClampCandleLimit(limit))},
	}, sinaHeaders)
	if !ok {
		return nil
	}

	var rows []sinaCandle
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil
	}
	out := make([]models.OHLCV, 0, len(rows))
	for _, r := range rows {
		ts, ok := util.ParseMarketTime(r.Day, util.ChinaTZ)
		if !ok {
			continue
		}
		c := models.OHLCV{Symbol: symbol, Timestamp: ts}
		c.Open, _ = util.ParseDecimal(r.Open)
		c.High, _ = util.ParseDecimal(r.High)
		c.Low, _ = util.ParseDecimal(r.Low)
		c.Close, _ = util.ParseDecimal(r.Close)
		c.Volume, _ = util.ParseInt64(r.Volume)
		if c.Valid() {
			out = append(out, c)
		}
	}
	return trimTail(out, limit)
}

func (p *Sina) HealthCheck(ctx context.Context) bool {
	fields, ok := p.quoteFields(ctx, "sh000001")
	return ok && len(fields) > 3
}
