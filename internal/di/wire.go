//go:build wireinject
// +build wireinject

package di

import (
	"DepthView/pkg/config"
	"DepthView/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideErrorCollector,
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCache,
		ProvideLimiter,
		ProvideHTTPClient,
		ProvideHistory,
		ProvideStream,

		// State engine
		ProvideCoordinator,

		// Use cases
		ProvideBackfill,
		ProvideCollector,
		ProvideChart,
		ProvideTickers,

		// HTTP surface
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
