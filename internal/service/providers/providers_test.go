package providers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"QuotePull/internal/domain/models"
	"QuotePull/internal/domain/repository"
	"QuotePull/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ repository.Provider = (*EastMoney)(nil)
	_ repository.Provider = (*Sina)(nil)
	_ repository.Provider = (*Tencent)(nil)
	_ repository.Provider = (*Netease)(nil)
)

var pufa = models.NewSymbol("600000", models.MarketSH, models.SecurityStock)

func serve(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestProviderIdentity(t *testing.T) {
	t.Parallel()

	cases := []struct {
		p        repository.Provider
		name     string
		priority int
		rpm      int
	}{
		{NewEastMoney(), "EastMoney", 1, 100},
		{NewNetease(), "NeteaseFinance", 5, 120},
		{NewSina(), "SinaFinance", 10, 100},
		{NewTencent(), "TencentFinance", 15, 60},
	}
	for _, tc := range cases {
		require.Equal(t, tc.name, tc.p.Name())
		require.Equal(t, tc.priority, tc.p.Priority())
		require.Equal(t, tc.rpm, tc.p.RateLimit())
	}
}

func TestEastMoneyQuote(t *testing.T) {
	t.Parallel()

	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/qt/stock/get", r.URL.Path)
		assert.Equal(t, "1.600000", r.URL.Query().Get("secid"))
		fmt.Fprint(w, `{"rc":0,"data":{"f2":10.5,"f3":1.25,"f4":0.13,"f5":123456,"f6":1.2e8,"f31":10.49,"f32":"-","f86":1704180000}}`)
	})

	tick, ok := NewEastMoney(WithQuoteURL(srv.URL)).GetQuote(t.Context(), pufa)
	require.True(t, ok)
	require.Equal(t, "10.5", tick.Price.String())
	require.Equal(t, "1.25", tick.ChangeRate.String())
	require.Equal(t, int64(123456), tick.Volume)
	require.Equal(t, "10.49", tick.BidPrice.String())
	require.True(t, tick.AskPrice.IsZero())
	require.Equal(t, int64(1704180000), tick.Timestamp.Unix())
	require.Equal(t, pufa, tick.Symbol)
}

func TestEastMoneyQuoteAbsent(t *testing.T) {
	t.Parallel()

	cases := map[string]http.HandlerFunc{
		"null data": func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, `{"rc":0,"data":null}`) },
		"no price":  func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, `{"rc":0,"data":{"f2":"-"}}`) },
		"garbage":   func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, `<html>`) },
		"status":    func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadGateway) },
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := serve(t, h)
			_, ok := NewEastMoney(WithQuoteURL(srv.URL)).GetQuote(t.Context(), pufa)
			require.False(t, ok)
		})
	}
}

func TestEastMoneyCandles(t *testing.T) {
	t.Parallel()

	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "101", r.URL.Query().Get("klt"))
		fmt.Fprint(w, `{"rc":0,"data":{"code":"600000","klines":[
			"2024-01-02,10.00,10.20,10.30,9.90,1000,10200.5,3.9",
			"2024-01-03,10.20,0,10.40,10.10,900,9000,2.0",
			"2024-01-04,10.20,10.35,10.40,10.10,1100,11300,2.9"]}}`)
	})

	candles := NewEastMoney(WithKlineURL(srv.URL)).GetCandles(t.Context(), pufa, models.Period1d, 10)
	require.Len(t, candles, 2)
	require.Equal(t, "10.2", candles[0].Close.String())
	require.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, util.ChinaTZ), candles[0].Timestamp)
	require.Equal(t, int64(1100), candles[1].Volume)
}

func TestSinaQuote(t *testing.T) {
	t.Parallel()

	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/list=sh600000", r.URL.Path)
		assert.Equal(t, "https://finance.sina.com.cn", r.Header.Get("Referer"))
		fmt.Fprint(w, `var hq_str_sh600000="PF,10.00,10.00,10.50,10.60,9.90,10.49,10.51,123456,1296000.00,`+
			`100,10.49,200,10.48,300,10.47,400,10.46,500,10.45,`+
			`150,10.51,250,10.52,350,10.53,450,10.54,550,10.55,2024-01-02,14:35:00,00";`)
	})

	tick, ok := NewSina(WithQuoteURL(srv.URL)).GetQuote(t.Context(), pufa)
	require.True(t, ok)
	require.Equal(t, "10.5", tick.Price.String())
	require.Equal(t, "0.5", tick.ChangeAmount.String())
	require.Equal(t, "5", tick.ChangeRate.String())
	require.Equal(t, int64(100), tick.BidVolume)
	require.Equal(t, "10.51", tick.AskPrice.String())
	require.Equal(t, int64(150), tick.AskVolume)
	require.Equal(t, time.Date(2024, 1, 2, 14, 35, 0, 0, util.ChinaTZ), tick.Timestamp)
}

func TestSinaEmptyQuote(t *testing.T) {
	t.Parallel()

	srv := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `var hq_str_sh999999="";`)
	})
	_, ok := NewSina(WithQuoteURL(srv.URL)).GetQuote(t.Context(), pufa)
	require.False(t, ok)
}

func TestSinaCandles(t *testing.T) {
	t.Parallel()

	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "240", r.URL.Query().Get("scale"))
		assert.Equal(t, "2", r.URL.Query().Get("datalen"))
		fmt.Fprint(w, `[{"day":"2024-01-02","open":"10.0","high":"10.3","low":"9.9","close":"10.2","volume":"1000"},
			{"day":"2024-01-03","open":"10.2","high":"10.4","low":"10.1","close":"10.3","volume":"900"}]`)
	})

	p := NewSina(WithKlineURL(srv.URL))
	candles := p.GetCandles(t.Context(), pufa, models.Period1d, 2)
	require.Len(t, candles, 2)
	require.Equal(t, "10.3", candles[1].Close.String())

	require.Empty(t, p.GetCandles(t.Context(), pufa, models.Period1w, 2))
}

func TestTencentQuote(t *testing.T) {
	t.Parallel()

	fields := make([]string, 40)
	fields[1], fields[2] = "PF", "600000"
	fields[3], fields[4], fields[5], fields[6] = "10.50", "10.00", "10.01", "123456"
	fields[9], fields[10] = "10.49", "100"
	fields[19], fields[20] = "10.51", "150"
	fields[30], fields[31], fields[32] = "20240102143500", "0.50", "5.00"
	payload := "1"
	for _, f := range fields[1:] {
		payload += "~" + f
	}

	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/q=sh600000", r.URL.Path)
		fmt.Fprintf(w, `v_sh600000="%s";`, payload)
	})

	tick, ok := NewTencent(WithQuoteURL(srv.URL)).GetQuote(t.Context(), pufa)
	require.True(t, ok)
	require.Equal(t, "10.5", tick.Price.String())
	require.Equal(t, "5", tick.ChangeRate.String())
	require.Equal(t, int64(150), tick.AskVolume)
	require.Equal(t, time.Date(2024, 1, 2, 14, 35, 0, 0, util.ChinaTZ), tick.Timestamp)
}

func TestTencentCandles(t *testing.T) {
	t.Parallel()

	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sh600000,day,,,100,qfq", r.URL.Query().Get("param"))
		fmt.Fprint(w, `{"code":0,"data":{"sh600000":{"qfqday":[
			["2024-01-02","10.00","10.20","10.30","9.90","1000.000"],
			["2024-01-03","10.20","10.30","10.40","10.10","900.000",{"nd":"x"}]]}}}`)
	})

	candles := NewTencent(WithKlineURL(srv.URL)).GetCandles(t.Context(), pufa, models.Period1d, 0)
	require.Len(t, candles, 2)
	require.Equal(t, int64(900), candles[1].Volume)
	require.Equal(t, "10.4", candles[1].High.String())
}

func TestNeteaseQuote(t *testing.T) {
	t.Parallel()

	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/feed/0600000", r.URL.Path)
		fmt.Fprint(w, `_ntes_quote_callback({"0600000":{"code":"0600000","price":10.5,"yestclose":10.0,`+
			`"volume":123456,"bid1":10.49,"ask1":10.51,"bidvol1":100,"askvol1":150,"percent":0.05,"updown":0.5,`+
			`"time":"2024/01/02 14:35:00"}});`)
	})

	tick, ok := NewNetease(WithQuoteURL(srv.URL)).GetQuote(t.Context(), pufa)
	require.True(t, ok)
	require.Equal(t, "10.5", tick.Price.String())
	require.Equal(t, "5", tick.ChangeRate.String())
	require.Equal(t, int64(100), tick.BidVolume)
	require.Equal(t, time.Date(2024, 1, 2, 14, 35, 0, 0, util.ChinaTZ), tick.Timestamp)
}

func TestNeteaseCandlesDailyOnly(t *testing.T) {
	t.Parallel()

	year := time.Now().In(util.ChinaTZ).Year()
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case fmt.Sprintf("/data/hs/kline/day/history/%d/0600000.json", year):
			fmt.Fprint(w, `{"symbol":"600000","data":[["20240103",10.2,10.3,10.4,10.1,900,0.98]]}`)
		case fmt.Sprintf("/data/hs/kline/day/history/%d/0600000.json", year-1):
			fmt.Fprint(w, `{"symbol":"600000","data":[["20240102",10.0,10.2,10.3,9.9,1000,2.0]]}`)
		default:
			http.NotFound(w, r)
		}
	})

	p := NewNetease(WithKlineURL(srv.URL))
	candles := p.GetCandles(t.Context(), pufa, models.Period1d, 5)
	require.Len(t, candles, 2)
	require.True(t, candles[0].Timestamp.Before(candles[1].Timestamp))

	require.Empty(t, p.GetCandles(t.Context(), pufa, models.Period1h, 5))
}

func TestHealthChecks(t *testing.T) {
	t.Parallel()

	down := serve(t, func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) })
	for _, p := range []repository.Provider{
		NewEastMoney(WithQuoteURL(down.URL)),
		NewSina(WithQuoteURL(down.URL)),
		NewTencent(WithQuoteURL(down.URL)),
		NewNetease(WithQuoteURL(down.URL)),
	} {
		require.False(t, p.HealthCheck(t.Context()), p.Name())
	}

	up := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"rc":0,"data":{"f2":3000.12}}`)
	})
	require.True(t, NewEastMoney(WithQuoteURL(up.URL)).HealthCheck(t.Context()))
}
