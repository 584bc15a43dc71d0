package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseMarketTime(t *testing.T) {
	cases := map[string]time.Time{
		"2024-01-02":          time.Date(2024, 1, 2, 0, 0, 0, 0, ChinaTZ),
		"2024-01-02 14:35":    time.Date(2024, 1, 2, 14, 35, 0, 0, ChinaTZ),
		"2024-01-02 14:35:09": time.Date(2024, 1, 2, 14, 35, 9, 0, ChinaTZ),
		"2024/01/02 15:00:03": time.Date(2024, 1, 2, 15, 0, 3, 0, ChinaTZ),
		"20240102150003":      time.Date(2024, 1, 2, 15, 0, 3, 0, ChinaTZ),
		"20240102":            time.Date(2024, 1, 2, 0, 0, 0, 0, ChinaTZ),
	}
	for in, want := range cases {
		got, ok := ParseMarketTime(in, ChinaTZ)
		require.True(t, ok, in)
		require.True(t, got.Equal(want), "%s: got %v", in, got)
	}

	_, ok := ParseMarketTime("yesterday", ChinaTZ)
	require.False(t, ok)
	_, ok = ParseMarketTime("", ChinaTZ)
	require.False(t, ok)
}

func TestParseNumbers(t *testing.T) {
	v, ok := ParseInt64("1200.00")
	require.True(t, ok)
	require.Equal(t, int64(1200), v)

	_, ok = ParseInt64("")
	require.False(t, ok)

	_, ok = ParseDecimal("-")
	require.False(t, ok)

	d, ok := ParseDecimal(" 10.50 ")
	require.True(t, ok)
	require.Equal(t, "10.5", d.String())
}
