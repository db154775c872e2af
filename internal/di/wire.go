//go:build wireinject
// +build wireinject

package di

import (
	"PaperDesk/pkg/config"
	"PaperDesk/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideAccountCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Repositories
		ProvideAccountStore,
		ProvideTickArchive,
		ProvideEventPublisher,

		// Presentation
		ProvideHub,

		// Use cases
		ProvideSessionConfig,
		ProvideDesk,
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
