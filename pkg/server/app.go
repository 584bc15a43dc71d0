package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"QuotePull/internal/service/finnhub"
	"QuotePull/internal/usecase"
	"QuotePull/pkg/config"
	xhttp "QuotePull/pkg/http"
	applogger "QuotePull/pkg/logger"
)

// Closer is an infrastructure client released on shutdown.
type Closer struct {
	Name string
	io.Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	agg        *usecase.DataAggregator
	monitor    *usecase.HealthMonitor
	poller     *usecase.QuotePoller
	stream     *finnhub.Client
	httpServer *xhttp.Server
	closers    []Closer

	wg sync.WaitGroup
}

// New creates a new App instance with all dependencies.
// stream may be nil when the Finnhub feed is disabled.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	agg *usecase.DataAggregator,
	monitor *usecase.HealthMonitor,
	poller *usecase.QuotePoller,
	stream *finnhub.Client,
	httpServer *xhttp.Server,
	closers ...Closer,
) *App {
	return &App{
		cfg:        cfg,
		l:          l,
		agg:        agg,
		monitor:    monitor,
		poller:     poller,
		stream:     stream,
		httpServer: httpServer,
		closers:    closers,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts background workers and the monitoring server and blocks until ctx ends.
func (a *App) RunContext(ctx context.Context) error {
	workCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.stream != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.stream.Run(workCtx)
		}()
		a.l.Info("finnhub stream started", applogger.Strings("symbols", a.cfg.Providers.Finnhub.Symbols))
	}

	a.monitor.Start(workCtx)
	a.poller.Start(workCtx)

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		cancel()
		a.shutdown()
		return err
	}
	a.l.Info("quotepull started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("strategy", a.agg.StrategyName()),
		applogger.Int("providers", len(a.agg.Providers())),
	)

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	cancel()
	a.shutdown()
	return nil
}

// shutdown gracefully stops all services.
func (a *App) shutdown() {
	a.l.Info("shutting down...")

	if err := a.httpServer.Stop(context.Background()); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	a.poller.Shutdown()
	a.monitor.Shutdown()
	if a.stream != nil {
		if err := a.stream.Close(); err != nil {
			a.l.Warn("finnhub close error", applogger.Error(err))
		}
	}
	a.wg.Wait()

	// Flush aggregated error logs before the Kafka producer goes away.
	a.l.RemoveCollector()

	for _, c := range a.closers {
		if c.Closer == nil {
			continue
		}
		if err := c.Close(); err != nil {
			a.l.Warn("close error", applogger.String("client", c.Name), applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
}
