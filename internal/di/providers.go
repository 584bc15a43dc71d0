package di

import (
	"context"
	"fmt"
	"time"

	"QuotePull/internal/domain/models"
	"QuotePull/internal/domain/repository"
	"QuotePull/internal/handler/api"
	internalrepo "QuotePull/internal/repository"
	icache "QuotePull/internal/service/cache"
	"QuotePull/internal/service/finnhub"
	"QuotePull/internal/service/providers"
	"QuotePull/internal/service/ratelimit"
	"QuotePull/internal/service/strategy"
	"QuotePull/internal/usecase"
	pkgcache "QuotePull/pkg/cache"
	pkgch "QuotePull/pkg/clickhouse"
	"QuotePull/pkg/config"
	xhttp "QuotePull/pkg/http"
	pkgkafka "QuotePull/pkg/kafka"
	applogger "QuotePull/pkg/logger"
	"QuotePull/pkg/metrics"
	"QuotePull/pkg/server"
)

// ProvideKafkaProducer creates a Kafka producer, or nil when no brokers are configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideLogger builds the application logger and attaches the Kafka error
// collector when it is enabled.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		TimeFormat: cfg.Logger.TimeFormat,
		MaxSizeMB:  cfg.Logger.MaxSizeMB,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAgeDays: cfg.Logger.MaxAgeDays,
		Compress:   cfg.Logger.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Logger.Collector.Enabled && producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Logger.Collector.Interval,
			CountThreshold: cfg.Logger.Collector.Threshold,
			Topic:          cfg.Logger.Collector.Topic,
			Publisher:      producer,
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCacheStore creates the quote/candle cache backend, or nil when caching is off.
func ProvideCacheStore(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	if cfg.Cache.Backend == "memory" {
		return pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize)), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rc, err := pkgcache.NewRedisCache(ctx,
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.PoolSize/2, 3*time.Second),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	if cfg.Cache.Backend == "layered" {
		return pkgcache.NewLayeredCache(rc,
			pkgcache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize),
			pkgcache.WithLayeredMemoryTTL(cfg.Cache.QuoteTTL),
		), nil
	}
	return rc, nil
}

// ProvideClickHouseClient connects to ClickHouse and prepares the history
// table, or returns nil when the history provider is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.Providers.History.Enabled {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if err := client.InitSchema(ctx, internalrepo.HistorySchema(cfg.ClickHouse.Database, cfg.Providers.History.Table)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideFinnhubStream creates the Finnhub stream provider, or nil when disabled.
func ProvideFinnhubStream(cfg *config.Config, l *applogger.Logger) *finnhub.Client {
	fc := cfg.Providers.Finnhub
	if !fc.Enabled {
		return nil
	}
	return finnhub.New(finnhub.Config{
		APIKey:         fc.APIKey,
		WebSocketURL:   fc.WebSocketURL,
		Symbols:        fc.Symbols,
		ReconnectDelay: fc.ReconnectDelay,
		PingInterval:   fc.PingInterval,
		StaleAfter:     fc.StaleAfter,
	}, l)
}

// ProvideAggregator builds the aggregator and registers every enabled provider.
// HTTP providers are wrapped with the rate limiter and then the cache.
func ProvideAggregator(
	cfg *config.Config,
	l *applogger.Logger,
	m repository.Metrics,
	store pkgcache.Service,
	ch *pkgch.Client,
	stream *finnhub.Client,
) (*usecase.DataAggregator, error) {
	ledger := usecase.NewHealthLedger(usecase.WithFailureThreshold(cfg.Aggregator.FailureThreshold))
	s, err := strategy.New(cfg.Aggregator.Strategy, ledger)
	if err != nil {
		return nil, fmt.Errorf("aggregator strategy: %w", err)
	}

	agg := usecase.NewDataAggregator(
		usecase.WithStrategy(s),
		usecase.WithLedger(ledger),
		usecase.WithMetrics(m),
		usecase.WithLogger(l),
		usecase.WithProbeTimeout(cfg.Aggregator.ProbeTimeout),
	)

	limiter := ratelimit.New()
	decorate := func(p repository.Provider) repository.Provider {
		if cfg.Providers.RateLimit {
			p = ratelimit.Wrap(p, limiter, l)
		}
		if store != nil {
			p = icache.Wrap(p, store, cfg.Cache.QuoteTTL, cfg.Cache.CandleTTL, l)
		}
		return p
	}

	pc := cfg.Providers
	common := []providers.Option{providers.WithTimeout(pc.Timeout), providers.WithLogger(l)}
	with := func(quoteURL, klineURL string) []providers.Option {
		return append([]providers.Option{providers.WithQuoteURL(quoteURL), providers.WithKlineURL(klineURL)}, common...)
	}

	if pc.EastMoney.Enabled {
		agg.Register(decorate(providers.NewEastMoney(with(pc.EastMoney.QuoteURL, pc.EastMoney.KlineURL)...)))
	}
	if pc.Netease.Enabled {
		agg.Register(decorate(providers.NewNetease(with(pc.Netease.QuoteURL, pc.Netease.KlineURL)...)))
	}
	if pc.Sina.Enabled {
		agg.Register(decorate(providers.NewSina(with(pc.Sina.QuoteURL, pc.Sina.KlineURL)...)))
	}
	if pc.Tencent.Enabled {
		agg.Register(decorate(providers.NewTencent(with(pc.Tencent.QuoteURL, pc.Tencent.KlineURL)...)))
	}
	if stream != nil {
		agg.Register(stream)
	}
	if ch != nil {
		agg.Register(internalrepo.NewClickHouseHistory(ch.DB(), cfg.ClickHouse.Database, pc.History.Table, l))
	}

	if len(agg.Providers()) == 0 {
		l.Warn("no providers enabled, every request will be exhausted")
	}
	return agg, nil
}

// ProvideHealthMonitor creates the periodic health prober.
func ProvideHealthMonitor(cfg *config.Config, agg *usecase.DataAggregator, l *applogger.Logger) *usecase.HealthMonitor {
	return usecase.NewHealthMonitor(agg, cfg.Aggregator.ProbeInterval, l)
}

// ProvideQuotePoller creates the watchlist poller publishing to Kafka.
func ProvideQuotePoller(cfg *config.Config, agg *usecase.DataAggregator, producer *pkgkafka.Producer, l *applogger.Logger) *usecase.QuotePoller {
	symbols := make([]models.Symbol, 0, len(cfg.Watchlist.Symbols))
	for _, s := range cfg.Watchlist.Symbols {
		symbols = append(symbols, models.ParseSymbol(s))
	}

	var sink repository.QuoteSink
	if producer != nil {
		sink = internalrepo.NewKafkaQuoteSink(producer, cfg.Watchlist.Topic)
	}
	return usecase.NewQuotePoller(agg, sink, symbols, cfg.Watchlist.Interval, l)
}

// ProvideMonitorHandler creates the monitoring API handler.
func ProvideMonitorHandler(l *applogger.Logger, agg *usecase.DataAggregator) *api.MonitorEchoHandler {
	return api.NewMonitorEchoHandler(l, agg)
}

// ProvideHTTPServer creates the Echo server hosting the monitoring API and /metrics.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.MonitorEchoHandler) *xhttp.Server {
	return xhttp.NewServer(h,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application with all dependencies.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	agg *usecase.DataAggregator,
	monitor *usecase.HealthMonitor,
	poller *usecase.QuotePoller,
	stream *finnhub.Client,
	httpServer *xhttp.Server,
	producer *pkgkafka.Producer,
	ch *pkgch.Client,
	store pkgcache.Service,
) *server.App {
	var closers []server.Closer
	if producer != nil {
		closers = append(closers, server.Closer{Name: "kafka", Closer: producer})
	}
	if ch != nil {
		closers = append(closers, server.Closer{Name: "clickhouse", Closer: ch})
	}
	if store != nil {
		closers = append(closers, server.Closer{Name: "cache", Closer: store})
	}
	return server.New(cfg, l, agg, monitor, poller, stream, httpServer, closers...)
}
