//go:build wireinject
// +build wireinject

package di

import (
	"github.com/aayeshatech/SYMBOLASTRO/pkg/config"
	"github.com/aayeshatech/SYMBOLASTRO/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application
// together with a cleanup that closes infrastructure clients.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCache,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories and outbound services
		ProvideAnalysisCache,
		ProvideResultPublisher,
		ProvideNotifier,
		ProvideRateLimiter,

		// Domain and use cases
		ProvideAnalyzer,
		ProvideAnalysisUseCase,
		ProvideAnalysisRequestHandler,

		// Transport
		ProvideAnalysisHandler,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
