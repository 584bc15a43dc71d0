package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Logger struct {
		Level      string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format     string `yaml:"format" default:"console" validate:"oneof=json console"`
		Output     string `yaml:"output" default:"stdout" validate:"required"`
		TimeFormat string `yaml:"time_format"`
		MaxSizeMB  int    `yaml:"max_size_mb" default:"10"`
		MaxBackups int    `yaml:"max_backups" default:"3"`
		MaxAgeDays int    `yaml:"max_age_days" default:"28"`
		Compress   bool   `yaml:"compress"`
		Collector  struct {
			Enabled   bool          `yaml:"enabled"`
			Topic     string        `yaml:"topic" default:"quotepull.logs"`
			Interval  time.Duration `yaml:"interval" default:"30s"`
			Threshold int           `yaml:"threshold" default:"100" validate:"gt=0"`
		} `yaml:"collector"`
	} `yaml:"logger"`
	Aggregator struct {
		Strategy         string        `yaml:"strategy" default:"Failover" validate:"oneof=Failover RoundRobin WeightedRandom"`
		FailureThreshold int           `yaml:"failure_threshold" default:"3" validate:"gt=0"`
		ProbeInterval    time.Duration `yaml:"probe_interval" default:"30s"`
		ProbeTimeout     time.Duration `yaml:"probe_timeout" default:"5s"`
	} `yaml:"aggregator"`
	Providers struct {
		Timeout   time.Duration `yaml:"timeout" default:"10s"`
		RateLimit bool          `yaml:"rate_limit" default:"true"`
		EastMoney struct {
			Enabled  bool   `yaml:"enabled" default:"true"`
			QuoteURL string `yaml:"quote_url" default:"https://push2.eastmoney.com"`
			KlineURL string `yaml:"kline_url" default:"https://push2his.eastmoney.com"`
		} `yaml:"eastmoney"`
		Netease struct {
			Enabled  bool   `yaml:"enabled" default:"true"`
			QuoteURL string `yaml:"quote_url" default:"https://api.money.126.net"`
			KlineURL string `yaml:"kline_url" default:"https://img1.money.126.net"`
		} `yaml:"netease"`
		Sina struct {
			Enabled  bool   `yaml:"enabled" default:"true"`
			QuoteURL string `yaml:"quote_url" default:"https://hq.sinajs.cn"`
			KlineURL string `yaml:"kline_url" default:"https://money.finance.sina.com.cn"`
		} `yaml:"sina"`
		Tencent struct {
			Enabled  bool   `yaml:"enabled" default:"true"`
			QuoteURL string `yaml:"quote_url" default:"https://qt.gtimg.cn"`
			KlineURL string `yaml:"kline_url" default:"https://web.ifzq.gtimg.cn"`
		} `yaml:"tencent"`
		Finnhub struct {
			Enabled        bool          `yaml:"enabled"`
			APIKey         string        `yaml:"api_key"`
			WebSocketURL   string        `yaml:"websocket_url" default:"wss://ws.finnhub.io"`
			Symbols        []string      `yaml:"symbols"`
			ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
			PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
			StaleAfter     time.Duration `yaml:"stale_after" default:"1m"`
		} `yaml:"finnhub"`
		History struct {
			Enabled bool   `yaml:"enabled"`
			Table   string `yaml:"table" default:"candles"`
		} `yaml:"history"`
	} `yaml:"providers"`
	Watchlist struct {
		Symbols  []string      `yaml:"symbols"`
		Interval time.Duration `yaml:"interval" default:"5s"`
		Topic    string        `yaml:"topic" default:"quotepull.quotes"`
	} `yaml:"watchlist"`
	Cache struct {
		Enabled       bool          `yaml:"enabled"`
		Backend       string        `yaml:"backend" default:"memory" validate:"oneof=memory redis layered"`
		QuoteTTL      time.Duration `yaml:"quote_ttl" default:"3s"`
		CandleTTL     time.Duration `yaml:"candle_ttl" default:"1m"`
		MemoryMaxSize int           `yaml:"memory_max_size" default:"1000" validate:"gt=0"`
	} `yaml:"cache"`
	Redis struct {
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size" default:"10"`
		Prefix   string `yaml:"prefix" default:"quotepull"`
	} `yaml:"redis"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"1s"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"quotepull"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
}

var validate = validator.New()

// Default returns a configuration populated from struct defaults only.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file.
// Struct defaults are applied first, so keys absent from the file keep them.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides it with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.LookupEnv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = strings.Split(v, ",")
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str("APP_ENV", &c.Environment)
	num("PORT", &c.Server.Port)
	str("LOG_LEVEL", &c.Logger.Level)
	str("AGGREGATOR_STRATEGY", &c.Aggregator.Strategy)
	str("CACHE_BACKEND", &c.Cache.Backend)
	str("REDIS_HOST", &c.Redis.Host)
	num("REDIS_PORT", &c.Redis.Port)
	str("REDIS_PASSWORD", &c.Redis.Password)
	list("KAFKA_BROKERS", &c.Kafka.Brokers)
	str("CLICKHOUSE_HOST", &c.ClickHouse.Host)
	str("CLICKHOUSE_PASSWORD", &c.ClickHouse.Password)
	str("FINNHUB_API_KEY", &c.Providers.Finnhub.APIKey)
	list("FINNHUB_SYMBOLS", &c.Providers.Finnhub.Symbols)
	list("WATCHLIST_SYMBOLS", &c.Watchlist.Symbols)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Logger.Collector.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when logger.collector is enabled")
	}
	if c.Providers.Finnhub.Enabled {
		if c.Providers.Finnhub.APIKey == "" {
			return fmt.Errorf("providers.finnhub.api_key is required")
		}
		if len(c.Providers.Finnhub.Symbols) == 0 {
			return fmt.Errorf("providers.finnhub.symbols cannot be empty")
		}
	}
	if len(c.Watchlist.Symbols) > 0 && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when watchlist.symbols is set")
	}
	if c.Cache.Enabled && c.Cache.Backend != "memory" && c.Redis.Host == "" {
		return fmt.Errorf("redis.host is required for cache backend %q", c.Cache.Backend)
	}
	return nil
}
