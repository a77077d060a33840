//go:build wireinject
// +build wireinject

package di

import (
	"SignalFusion/internal/usecase"
	"SignalFusion/pkg/config"
	"SignalFusion/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		engineSet,
		ProvideKafkaConsumer,
		ProvideOutcomeHandler,

		// Transport
		ProvideRateLimiter,
		ProvideFusionHandler,
		ProvideHTTPServer,

		ProvideApp,
	)
	return nil, nil, nil
}

var engineSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideLedgerStorage,
	ProvidePublisher,
	ProvidePatternStore,
	ProvideDetector,
	ProvideValidator,
	ProvideEdgeCalculator,
	ProvideCouncil,
	ProvideMessenger,
	ProvideLedger,
	ProvideDecayTracker,
	ProvideFusionUseCase,
)

// InitializeEngine wires the analysis pipeline alone, for command-line use.
func InitializeEngine(cfg *config.Config) (*usecase.FusionUseCase, func(), error) {
	wire.Build(engineSet)
	return nil, nil, nil
}
