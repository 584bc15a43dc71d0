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
	NeteaseName     = "NeteaseFinance"
	neteasePriority = 5
	neteaseRPM      = 120
)

// Netease reads the api.money.126.net JSONP feed and the yearly daily-candle files.
type Netease struct {
	base
}

func NewNetease(opts ...Option) *Netease {
	return &Netease{
		base: newBase(NeteaseName, neteasePriority, neteaseRPM,
			"https://api.money.126.net", "https://img1.money.126.net", opts),
	}
}

type neteaseQuote struct {
	Price     json.Number `json:"price"`
	YestClose json.Number `json:"yestclose"`
	Volume    json.Number `json:"volume"`
	Bid1      json.Number `json:"bid1"`
	Ask1      json.Number `json:"ask1"`
	BidVol1   json.Number `json:"bidvol1"`
	AskVol1   json.Number `json:"askvol1"`
	Percent   json.Number `json:"percent"`
	UpDown    json.Number `json:"updown"`
	Time      string      `json:"time"`
}

func (p *Netease) GetQuote(ctx context.Context, symbol models.Symbol) (models.MarketTick, bool) {
	code := symbol.NeteaseCode()
	quotes, ok := p.feed(ctx, code)
	if !ok {
		return models.MarketTick{}, false
	}
	q, ok := quotes[code]
	if !ok {
		return models.MarketTick{}, false
	}

	price, ok := util.ParseDecimal(q.Price.String())
	if !ok || !price.IsPositive() {
		return models.MarketTick{}, false
	}
	tick := models.MarketTick{Symbol: symbol, Price: price, Timestamp: time.Now()}
	tick.Volume, _ = util.ParseInt64(q.Volume.String())
	tick.BidPrice, _ = util.ParseDecimal(q.Bid1.String())
	tick.AskPrice, _ = util.ParseDecimal(q.Ask1.String())
	tick.BidVolume, _ = util.ParseInt64(q.BidVol1.String())
	tick.AskVolume, _ = util.ParseInt64(q.AskVol1.String())
	tick.ChangeAmount, _ = util.ParseDecimal(q.UpDown.String())
	if pct, ok := util.ParseDecimal(q.Percent.String()); ok {
		// The feed reports a fraction.
		tick.ChangeRate = pct.Shift(2).Round(2)
	}
	if ts, ok := util.ParseMarketTime(q.Time, util.ChinaTZ); ok {
		tick.Timestamp = ts
	}
	return tick, true
}

// feed strips the _ntes_quote_callback(...) wrapper and decodes the payload.
func (p *Netease) feed(ctx context.Context, codes string) (map[string]neteaseQuote, bool) {
	body, ok := p.fetch(ctx, p.quoteURL+"/data/feed/"+codes, nil, nil)
	if !ok {
		return nil, false
	}
	s := string(body)
	start := strings.IndexByte(s, '(')
	end := strings.LastIndexByte(s, ')')
	if start < 0 || end <= start {
		return nil, false
	}
	var out map[string]neteaseQuote
	if err := json.Unmarshal([]byte(s[start+1:end]), &out); err != nil {
		return nil, false
	}
	return out, true
}

func (p *Netease) GetCandles(ctx context.Context, symbol models.Symbol, period models.KlinePeriod, limit int) []models.OHLCV {
	if period != models.Period1d {
		return nil
	}
	limit = models.ClampCandleLimit(limit)
	year := time.Now().In(util.ChinaTZ).Year()

	out := p.yearCandles(ctx, symbol, year)
	if len(out) < limit {
		// Early in the year the current file is short.
		out = append(p.yearCandles(ctx, symbol, year-1), out...)
	}
	return trimTail(out, limit)
}

func (p *Netease) yearCandles(ctx context.Context, symbol models.Symbol, year int) []models.OHLCV {
	url := fmt.Sprintf("%s/data/hs/kline/day/history/%d/%s.json", p.klineURL, year, symbol.NeteaseCode())
	body, ok := p.fetch(ctx, url, nil, nil)
	if !ok {
		return nil
	}
	var env struct {
		Data [][]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil
	}

	out := make([]models.OHLCV, 0, len(env.Data))
	for _, row := range env.Data {
		// [date, open, close, high, low, volume, change%]
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
	return out
}

func (p *Netease) HealthCheck(ctx context.Context) bool {
	quotes, ok := p.feed(ctx, "0000001")
	return ok && len(quotes) > 0
}
