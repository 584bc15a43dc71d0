package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSymbol(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want Symbol
	}{
		{"600000.SH.STOCK", Symbol{"600000", MarketSH, SecurityStock}},
		{"000001.SZ.INDEX", Symbol{"000001", MarketSZ, SecurityIndex}},
		{"AAPL.US.OPTION", Symbol{"AAPL", MarketUS, SecurityOption}},
		{"00700.XX.ETF", Symbol{"00700", MarketSH, SecurityETF}},
		{"00700.HK.WARRANT", Symbol{"00700", MarketHK, SecurityStock}},
		{"600000.SH", Symbol{"600000.SH", MarketSH, SecurityStock}},
		{"600000", Symbol{"600000", MarketSH, SecurityStock}},
		{"600000.SH.", Symbol{"600000.SH.", MarketSH, SecurityStock}},
		{"1.SZ.BOND.X", Symbol{"1", MarketSZ, SecurityStock}},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			require.Equal(t, tc.want, ParseSymbol(tc.in))
		})
	}
}

func TestSymbolRoundTrip(t *testing.T) {
	t.Parallel()

	for m := MarketSH; m <= MarketUS; m++ {
		for typ := SecurityStock; typ <= SecurityOption; typ++ {
			s := NewSymbol("123456", m, typ)
			require.Equal(t, s, ParseSymbol(s.String()))
		}
	}
	require.Equal(t, "510300.SH.ETF", NewSymbol("510300", MarketSH, SecurityETF).String())
}

func TestSymbolUpstreamCodes(t *testing.T) {
	t.Parallel()

	sh := NewSymbol("600000", MarketSH, SecurityStock)
	sz := NewSymbol("000001", MarketSZ, SecurityStock)
	us := NewSymbol("AAPL", MarketUS, SecurityStock)

	require.Equal(t, "sh600000", sh.SinaCode())
	require.Equal(t, "sz000001", sz.TencentCode())
	require.Equal(t, "usAAPL", us.SinaCode())
	require.Equal(t, "0600000", sh.NeteaseCode())
	require.Equal(t, "1000001", sz.NeteaseCode())
	require.Equal(t, "1.600000", sh.EastMoneySecID())
	require.Equal(t, "0.000001", sz.EastMoneySecID())
	require.Equal(t, "1.AAPL", us.EastMoneySecID())
}

func TestSymbolJSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(map[string]Symbol{"s": NewSymbol("000001", MarketSZ, SecurityIndex)})
	require.NoError(t, err)
	require.JSONEq(t, `{"s":"000001.SZ.INDEX"}`, string(b))

	var out map[string]Symbol
	require.NoError(t, json.Unmarshal(b, &out))
	require.Equal(t, NewSymbol("000001", MarketSZ, SecurityIndex), out["s"])
}

func TestKlinePeriod(t *testing.T) {
	t.Parallel()

	p, ok := ParseKlinePeriod("1mo")
	require.True(t, ok)
	require.Equal(t, Period1mo, p)

	_, ok = ParseKlinePeriod("2h")
	require.False(t, ok)
}

func TestClampCandleLimit(t *testing.T) {
	t.Parallel()

	require.Equal(t, DefaultCandleLimit, ClampCandleLimit(0))
	require.Equal(t, DefaultCandleLimit, ClampCandleLimit(-5))
	require.Equal(t, 42, ClampCandleLimit(42))
	require.Equal(t, MaxCandleLimit, ClampCandleLimit(1<<36))
}
