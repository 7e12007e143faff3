//go:build wireinject
// +build wireinject

package di

import (
	"ETFScraper/pkg/config"
	"ETFScraper/pkg/server"

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
		ProvideUpstreamHTTPClient,

		// Repositories
		ProvideEventPublisher,
		ProvideFundDetailsSource,

		// Use cases
		ProvideNormalizer,
		ProvideHoldingsService,

		// Transport
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
