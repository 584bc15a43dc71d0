package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "environment: test\n")

	c, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "test", c.Environment)
	require.Equal(t, 8080, c.Server.Port)
	require.Equal(t, "Failover", c.Aggregator.Strategy)
	require.Equal(t, 30*time.Second, c.Aggregator.ProbeInterval)
	require.True(t, c.Providers.EastMoney.Enabled)
	require.Equal(t, "https://push2.eastmoney.com", c.Providers.EastMoney.QuoteURL)
	require.Equal(t, -1, c.Kafka.RequiredAcks)
	require.Equal(t, 3*time.Second, c.Cache.QuoteTTL)
}

func TestLoadKeepsExplicitFalse(t *testing.T) {
	path := writeConfig(t, `
environment: test
providers:
  sina:
    enabled: false
  rate_limit: false
`)

	c, err := Load(path)
	require.NoError(t, err)
	require.False(t, c.Providers.Sina.Enabled)
	require.False(t, c.Providers.RateLimit)
	require.True(t, c.Providers.Tencent.Enabled)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown strategy":  "aggregator:\n  strategy: Fastest\n",
		"bad cache backend": "cache:\n  backend: disk\n",
		"collector without brokers": `
logger:
  collector:
    enabled: true
`,
		"watchlist without brokers": "watchlist:\n  symbols: [600000.SH.STOCK]\n",
		"finnhub without key": `
providers:
  finnhub:
    enabled: true
    symbols: [AAPL]
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorContains(t, err, "read config")
}

func TestApplyEnv(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	env := map[string]string{
		"AGGREGATOR_STRATEGY": "RoundRobin",
		"KAFKA_BROKERS":       "k1:9092,k2:9092",
		"REDIS_PORT":          "6380",
		"PORT":                "not-a-number",
	}
	c.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	require.Equal(t, "RoundRobin", c.Aggregator.Strategy)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	require.Equal(t, 6380, c.Redis.Port)
	require.Equal(t, 8080, c.Server.Port)
	require.NoError(t, c.Validate())
}

func TestSampleConfigLoads(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)
	require.Equal(t, "development", c.Environment)
}
