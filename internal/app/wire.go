//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"
)

var coreSet = wire.NewSet(
	provideLoader,
	provideConfig,
	provideLogger,
	provideGatherer,
	provideMetrics,
	provideAPIKeys,
	provideCatalog,
	provideStore,
	provideRegistry,
	provideStandardizer,
	provideDiscovery,
	wire.Struct(new(Core), "*"),
)

// InitializeCore builds the registry, standardizer and discovery service
// from the configuration at path.
func InitializeCore(ctx context.Context, path ConfigPath) (*Core, func(), error) {
	wire.Build(coreSet)
	return nil, nil, nil
}

// InitializeIngestion builds Core plus the vector sink and the embedding
// orchestrator.
func InitializeIngestion(ctx context.Context, path ConfigPath) (*Ingestion, func(), error) {
	wire.Build(
		coreSet,
		provideSink,
		provideOrchestrator,
		wire.Struct(new(Ingestion), "*"),
	)
	return nil, nil, nil
}

// InitializeAPIServer builds Core plus the HTTP API, the discovery
// scheduler and the vector index behind the search routes.
func InitializeAPIServer(ctx context.Context, path ConfigPath) (*APIServer, func(), error) {
	wire.Build(
		coreSet,
		provideScheduler,
		provideSink,
		provideOrchestrator,
		provideServiceContainer,
		provideHealth,
		provideServerConfig,
		provideServer,
		wire.Struct(new(APIServer), "*"),
	)
	return nil, nil, nil
}
