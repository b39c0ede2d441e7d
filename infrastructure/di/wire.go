//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"labeltree/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogLevel,
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideNodeStore,
	ProvideHealthChecker,
	ProvideEventPublisher,
	ProvideMetrics,
	ProvideTracerProvider,
	ProvideTreeService,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideConfigWatcher,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The returned cleanup
// releases resources in reverse order of construction.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
