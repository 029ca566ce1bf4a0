//go:build wireinject
// +build wireinject

package di

import (
	"IntelliMarket/internal/usecase"
	"IntelliMarket/pkg/config"
	"IntelliMarket/pkg/server"

	"github.com/google/wire"
)

var controllerSet = wire.NewSet(
	// Infrastructure
	ProvideKafkaProducer,
	ProvideLogger,
	ProvideMetrics,
	ProvideHistoryCache,

	// Repositories
	ProvideHistory,
	ProvideEventPublisher,

	// Backend client and use cases
	ProvideAnalyzer,
	ProvideTracker,
	usecase.NewController,
)

// InitializeController wires the analysis controller used by CLI commands.
func InitializeController(cfg *config.Config) (*usecase.Controller, func(), error) {
	wire.Build(controllerSet)
	return nil, nil, nil
}

// InitializeApp wires up all dependencies and returns the display server.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		controllerSet,

		// HTTP
		ProvideLimiter,
		ProvideHandler,
		ProvideHTTPServer,

		// Application server
		server.New,
	)
	return nil, nil, nil
}
