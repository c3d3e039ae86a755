//go:build wireinject
// +build wireinject

package di

import (
	"QuantPulse/pkg/config"
	"QuantPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Logging and metrics
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisClient,
		ProvideBytesCache,

		// Repositories
		ProvideBarStorage,
		ProvideBarPublisher,
		ProvideSignalPublisher,
		ProvideBarStore,
		ProvideBinanceStream,
		ProvideSentimentSource,

		// Strategy
		ProvideScoringBuilder,
		ProvideStrategyEngine,

		// Use cases
		ProvideBarProcessor,
		ProvideBarCollector,
		ProvideKafkaBarsHandler,
		ProvideLiveSignalUseCase,
		ProvideBarsUseCase,
		ProvideTradeLog,
		ProvideBacktestUseCase,
		ProvideBacktestWorker,

		// HTTP handlers
		ProvideSignalsHandler,
		ProvideBacktestsHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
