package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"embedding-harmonizer/internal/api/server"
	"embedding-harmonizer/internal/api/v1/routes"
	"embedding-harmonizer/internal/api/v1/services"
	"embedding-harmonizer/internal/app/discovery"
	"embedding-harmonizer/internal/app/embedding/orchestrator"
	"embedding-harmonizer/internal/app/embedding/provider"
	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/logging"
	"embedding-harmonizer/internal/app/metrics"
	"embedding-harmonizer/internal/app/persistence"
	"embedding-harmonizer/internal/app/registry"
	"embedding-harmonizer/internal/app/standardizer"
	"embedding-harmonizer/internal/app/storage/vector"
	"embedding-harmonizer/internal/config"
)

// ConfigPath is the config file given on the command line; empty searches
// the default locations.
type ConfigPath string

// Core is the harmonization core every command starts from.
type Core struct {
	Loader       *config.Loader
	Config       *config.Config
	Logger       logging.Logger
	Gatherer     *prometheus.Registry
	Metrics      *metrics.Metrics
	Catalog      *provider.MultiCatalog
	Store        persistence.Store
	Registry     *registry.Registry
	Standardizer *standardizer.Standardizer
	Discovery    *discovery.Service
}

// Ingestion adds the vector sink and the embedding pipeline to Core.
type Ingestion struct {
	*Core
	Sink         vector.Sink
	Orchestrator *orchestrator.EmbeddingOrchestrator
}

// APIServer adds the HTTP API, the discovery schedule and the vector index
// to Core.
type APIServer struct {
	*Core
	// Scheduler is nil when discovery only runs on demand.
	Scheduler    *discovery.Scheduler
	Sink         vector.Sink
	Orchestrator *orchestrator.EmbeddingOrchestrator
	Server       *server.Server
}

// offlineMockModels back the "mock" provider so discovery can run without
// network access.
var offlineMockModels = []provider.MockModel{
	{Name: "mini", Dimension: 384, Declared: true},
	{Name: "base", Dimension: 768},
	{Name: "wide", Dimension: 1536, Declared: true},
}

func provideLoader(path ConfigPath) (*config.Loader, error) {
	return config.NewLoader(string(path), nil)
}

func provideConfig(loader *config.Loader) *config.Config {
	return loader.Config()
}

func provideLogger(cfg *config.Config) (logging.Logger, func(), error) {
	zl, err := logging.NewLogger(cfg.Log.Development)
	if err != nil {
		return nil, nil, err
	}
	return zl.Sugar(), func() { _ = zl.Sync() }, nil
}

func provideGatherer() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func provideMetrics(reg *prometheus.Registry) *metrics.Metrics {
	return metrics.New(reg)
}

func provideAPIKeys(logger logging.Logger) (*config.APIKeys, error) {
	keys, envFile, err := config.InitializeEnv()
	if err != nil {
		return nil, err
	}
	if envFile != "" {
		logger.Debugw("Loaded environment file", "path", envFile)
	}
	return keys, nil
}

// provideCatalog builds one catalog per enabled provider. A hosted provider
// without a key is skipped with a warning; none usable at all is an error.
func provideCatalog(ctx context.Context, cfg *config.Config, keys *config.APIKeys, logger logging.Logger) (*provider.MultiCatalog, error) {
	var catalogs []provider.Catalog
	for _, name := range cfg.Discovery.Providers {
		if err := keys.RequireFor([]string{name}); err != nil {
			logger.Warnw("Skipping provider", "provider", name, "error", err)
			continue
		}

		switch name {
		case string(registry.ProviderOpenAI):
			p, err := provider.NewOpenAIProvider(provider.OpenAIConfig{
				APIKey:  keys.OpenAI,
				BaseURL: cfg.Endpoints.OpenAIBaseURL,
			})
			if err != nil {
				return nil, err
			}
			catalogs = append(catalogs, p)
		case string(registry.ProviderGemini):
			p, err := provider.NewGeminiProvider(ctx, provider.GeminiConfig{
				APIKey:  keys.Gemini,
				BaseURL: cfg.Endpoints.GeminiBaseURL,
			})
			if err != nil {
				return nil, err
			}
			catalogs = append(catalogs, p)
		case string(registry.ProviderOllama):
			url := cfg.Endpoints.OllamaURL
			if url == "" {
				url = keys.OllamaURL
			}
			client := &http.Client{Timeout: config.GetProviderDefaults(name).Timeout}
			catalogs = append(catalogs, provider.NewOllamaProvider(url, client))
		case string(registry.ProviderMock):
			catalogs = append(catalogs, provider.NewMockProvider(offlineMockModels...))
		}
	}

	if len(catalogs) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidConfig, "no usable embedding provider: set API keys or enable ollama or mock")
	}
	return provider.NewMultiCatalog(logger, catalogs...), nil
}

func provideStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (persistence.Store, func(), error) {
	store, err := persistence.New(ctx, cfg.Store(), logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warnw("Failed to close snapshot store", "backend", store.Name(), "error", err)
		}
	}
	return store, cleanup, nil
}

func provideRegistry(ctx context.Context, store persistence.Store, m *metrics.Metrics, logger logging.Logger) (*registry.Registry, error) {
	snap, persisted, err := persistence.Bootstrap(ctx, store)
	if err != nil {
		return nil, err
	}
	if persisted {
		logger.Infow("Loaded active snapshot",
			"backend", store.Name(),
			"version", snap.Version(),
			"models", snap.Len(),
		)
	} else {
		logger.Infow("No active snapshot, starting from built-in defaults",
			"backend", store.Name(),
			"models", snap.Len(),
		)
	}

	m.ObserveSnapshot(snap)
	reg := registry.New(snap)
	reg.OnReplace(m.ObserveSnapshot)
	return reg, nil
}

func provideStandardizer(cfg *config.Config, reg *registry.Registry, logger logging.Logger, m *metrics.Metrics) (*standardizer.Standardizer, error) {
	policy, err := cfg.StandardizerPolicy()
	if err != nil {
		return nil, err
	}
	return standardizer.New(reg, policy, logger, m)
}

func provideDiscovery(
	catalog *provider.MultiCatalog,
	reg *registry.Registry,
	store persistence.Store,
	cfg *config.Config,
	logger logging.Logger,
	m *metrics.Metrics,
) *discovery.Service {
	return discovery.NewService(catalog, reg, store, cfg.DiscoveryService(), logger, m)
}

func provideSink(ctx context.Context, cfg *config.Config, std *standardizer.Standardizer, logger logging.Logger) (vector.Sink, func(), error) {
	sink, err := vector.NewSink(ctx, cfg.VectorSink(), std.Policy().TargetDimension, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := sink.Close(); err != nil {
			logger.Warnw("Failed to close vector sink", "error", err)
		}
	}
	return sink, cleanup, nil
}

func provideOrchestrator(
	catalog *provider.MultiCatalog,
	reg *registry.Registry,
	std *standardizer.Standardizer,
	sink vector.Sink,
	logger logging.Logger,
) *orchestrator.EmbeddingOrchestrator {
	return orchestrator.NewEmbeddingOrchestrator(catalog, reg, std, sink, logger)
}

func provideScheduler(svc *discovery.Service, cfg *config.Config, logger logging.Logger) (*discovery.Scheduler, error) {
	return discovery.NewScheduler(svc, cfg.Discovery.Interval, logger)
}

func provideServiceContainer(
	reg *registry.Registry,
	std *standardizer.Standardizer,
	svc *discovery.Service,
	scheduler *discovery.Scheduler,
	store persistence.Store,
	orch *orchestrator.EmbeddingOrchestrator,
) *routes.ServiceContainer {
	var schedule services.Schedule
	if scheduler != nil {
		schedule = scheduler
	}
	container := &routes.ServiceContainer{
		RegistryService:    services.NewRegistryService(reg, std),
		DiscoveryService:   services.NewDiscoveryService(svc, schedule),
		StandardizeService: services.NewStandardizeService(std, reg),
		BackupService:      services.NewBackupService(store, svc),
	}
	if orch != nil {
		container.VectorService = services.NewVectorService(orch)
	}
	return container
}

// healthTimeout bounds the persistence check behind /health.
const healthTimeout = 3 * time.Second

func provideHealth(reg *registry.Registry, svc *discovery.Service, store persistence.Store) server.HealthFunc {
	return func(ctx context.Context) (map[string]interface{}, error) {
		snap := reg.Current()
		details := map[string]interface{}{
			"registry_version": snap.Version(),
			"models":           snap.Len(),
			"discovery_state":  svc.Status().State,
			"persistence":      store.Name(),
		}

		ctx, cancel := context.WithTimeout(ctx, healthTimeout)
		defer cancel()
		if _, err := store.Active(ctx); err != nil && !errors.Is(err, apperrors.ErrNoActiveSnapshot) {
			return details, err
		}
		return details, nil
	}
}

func provideServerConfig(cfg *config.Config) server.Config {
	return server.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		Environment: cfg.Server.Environment,
	}
}

func provideServer(
	sc server.Config,
	container *routes.ServiceContainer,
	gatherer *prometheus.Registry,
	health server.HealthFunc,
	logger logging.Logger,
) *server.Server {
	return server.NewServer(sc, container, gatherer, health, logger)
}

// NewAPIServer builds the HTTP server for an already wired core, for callers
// that change core.Config.Server after initialization. A nil orch leaves the
// vector routes unmounted.
func NewAPIServer(core *Core, scheduler *discovery.Scheduler, orch *orchestrator.EmbeddingOrchestrator) *server.Server {
	container := provideServiceContainer(core.Registry, core.Standardizer, core.Discovery, scheduler, core.Store, orch)
	health := provideHealth(core.Registry, core.Discovery, core.Store)
	return provideServer(provideServerConfig(core.Config), container, core.Gatherer, health, core.Logger)
}
