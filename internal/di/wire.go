//go:build wireinject
// +build wireinject

package di

import (
	"QuotePull/pkg/config"
	"QuotePull/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideCacheStore,
		ProvideClickHouseClient,
		ProvideFinnhubStream,

		// Use cases
		ProvideAggregator,
		ProvideHealthMonitor,
		ProvideQuotePoller,

		// Transport
		ProvideMonitorHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
