package config

import "time"

// Configuration defaults
const (
	// File lookup
	DefaultConfigName = "harmonizer"
	EnvPrefix         = "HARMONIZER"

	// Policy defaults
	DefaultTargetDimension = 1024
	DefaultPaddingStrategy = "zeros"

	// Discovery defaults
	DefaultDiscoveryInterval   = "daily"
	DefaultProbeTimeout        = 15 * time.Second
	DefaultCycleTimeout        = 5 * time.Minute
	DefaultMaxConcurrentProbes = 4
	DefaultSampleText          = "dimension probe"

	// Persistence defaults
	DefaultPersistenceBackend = "file"
	DefaultPersistenceDir     = "./data/registry"
	DefaultSQLitePath         = "./data/registry.db"
	DefaultMinioBucket        = "harmonizer"

	// Sink defaults
	DefaultSinkBackend = "memory"

	// Network defaults
	DefaultHost        = "0.0.0.0"
	DefaultHTTPPort    = 8080
	DefaultEnvironment = "development"

	// Timeout defaults
	DefaultOpenAITimeout = 60 * time.Second
	DefaultGeminiTimeout = 60 * time.Second
	DefaultOllamaTimeout = 120 * time.Second
	DefaultMockTimeout   = 5 * time.Second

	// Concurrency defaults
	DefaultOpenAIConcurrency = 5
	DefaultGeminiConcurrency = 5
	DefaultOllamaConcurrency = 2
	DefaultMockConcurrency   = 10
)

// ProviderDefaults holds the default limits for one embedding provider
type ProviderDefaults struct {
	Timeout     time.Duration
	Concurrency int
}

// GetProviderDefaults returns default configuration for a given provider type
func GetProviderDefaults(providerType string) ProviderDefaults {
	switch providerType {
	case "openai":
		return ProviderDefaults{Timeout: DefaultOpenAITimeout, Concurrency: DefaultOpenAIConcurrency}
	case "gemini":
		return ProviderDefaults{Timeout: DefaultGeminiTimeout, Concurrency: DefaultGeminiConcurrency}
	case "ollama":
		// Local models load on first use
		return ProviderDefaults{Timeout: DefaultOllamaTimeout, Concurrency: DefaultOllamaConcurrency}
	case "mock":
		return ProviderDefaults{Timeout: DefaultMockTimeout, Concurrency: DefaultMockConcurrency}
	default:
		return ProviderDefaults{Timeout: 60 * time.Second, Concurrency: 1}
	}
}
