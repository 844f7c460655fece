package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/persistence"
	"embedding-harmonizer/internal/app/standardizer"
	"embedding-harmonizer/internal/app/storage/vector"
)

const sampleConfig = `
policy:
  target_dimension: 768
  padding_strategy: Repeat
discovery:
  interval: 6h
  probe_timeout: 5s
  cycle_timeout: 2m
  max_concurrent_probes: 8
  providers: [ollama, mock]
persistence:
  backend: sqlite
  retention: 4
  sqlite_path: /var/lib/harmonizer/registry.db
sink:
  backend: qdrant
  qdrant:
    addr: qdrant:6334
    collection: chunks
server:
  port: 9090
  environment: production
log:
  development: true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "harmonizer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultTargetDimension, cfg.Policy.TargetDimension)
	assert.Equal(t, "zeros", cfg.Policy.PaddingStrategy)
	assert.Equal(t, DefaultProbeTimeout, cfg.Discovery.ProbeTimeout)
	assert.Equal(t, []string{"openai", "gemini", "ollama"}, cfg.Discovery.Providers)
	assert.Equal(t, persistence.BackendFile, cfg.Persistence.Backend)
	assert.Equal(t, persistence.DefaultRetention, cfg.Persistence.Retention)
	assert.Equal(t, vector.BackendMemory, cfg.Sink.Backend)
	assert.Equal(t, vector.MetricCosine, cfg.VectorSink().Metric)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	// Arrange
	path := writeConfig(t, sampleConfig)

	// Act
	cfg, err := Load(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 768, cfg.Policy.TargetDimension)
	assert.Equal(t, "repeat", cfg.Policy.PaddingStrategy)
	assert.Equal(t, 5*time.Second, cfg.Discovery.ProbeTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Discovery.CycleTimeout)
	assert.Equal(t, []string{"ollama", "mock"}, cfg.Discovery.Providers)
	assert.Equal(t, "qdrant:6334", cfg.Sink.Qdrant.Addr)
	assert.True(t, cfg.Server.IsProduction())
	assert.True(t, cfg.Log.Development)

	policy, err := cfg.StandardizerPolicy()
	require.NoError(t, err)
	assert.Equal(t, standardizer.Policy{TargetDimension: 768, PaddingStrategy: standardizer.PaddingRepeat}, policy)

	ds := cfg.DiscoveryService()
	assert.Equal(t, 8, ds.MaxConcurrentProbes)
	assert.Equal(t, DefaultSampleText, ds.SampleText)

	store := cfg.Store()
	assert.Equal(t, "sqlite", store.Backend)
	assert.Equal(t, 4, store.Retention)
	assert.Equal(t, "/var/lib/harmonizer/registry.db", store.SQLitePath)
	assert.Equal(t, persistence.DefaultRedisPrefix, store.Redis.KeyPrefix)

	sink := cfg.VectorSink()
	assert.Equal(t, vector.QdrantConfig{Addr: "qdrant:6334", Collection: "chunks"}, sink.Qdrant)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	t.Setenv("HARMONIZER_POLICY_TARGET_DIMENSION", "1536")
	t.Setenv("HARMONIZER_DISCOVERY_PROVIDERS", "mock")
	t.Setenv("HARMONIZER_PERSISTENCE_BACKEND", "redis")
	t.Setenv("HARMONIZER_PERSISTENCE_REDIS_ADDR", "redis:6379")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 1536, cfg.Policy.TargetDimension)
	assert.Equal(t, []string{"mock"}, cfg.Discovery.Providers)
	assert.Equal(t, "redis", cfg.Persistence.Backend)
	assert.Equal(t, "redis:6379", cfg.Store().Redis.Addr)
}

func TestLoadErrors(t *testing.T) {
	testCases := []struct {
		name          string
		content       string
		errorContains string
	}{
		{
			name:          "zero target dimension",
			content:       "policy:\n  target_dimension: 0\n",
			errorContains: "policy.targetdimension is out of range",
		},
		{
			name:          "unknown padding strategy",
			content:       "policy:\n  padding_strategy: mirror\n",
			errorContains: "policy.paddingstrategy must be one of",
		},
		{
			name:          "unknown provider",
			content:       "discovery:\n  providers: [cohere]\n",
			errorContains: "must be one of",
		},
		{
			name:          "postgres backend without dsn",
			content:       "persistence:\n  backend: postgres\n",
			errorContains: "persistence.postgresdsn is required",
		},
		{
			name:          "minio backend without endpoint",
			content:       "persistence:\n  backend: minio\n",
			errorContains: "persistence.minio.endpoint is required",
		},
		{
			name:          "probe timeout above cycle timeout",
			content:       "discovery:\n  probe_timeout: 10m\n  cycle_timeout: 1m\n",
			errorContains: "exceeds",
		},
		{
			name:          "sub-minute interval",
			content:       "discovery:\n  interval: 30s\n",
			errorContains: "discovery.interval",
		},
		{
			name:          "negative retention",
			content:       "persistence:\n  retention: -1\n",
			errorContains: "retention must be positive",
		},
		{
			name:          "unknown sink metric",
			content:       "sink:\n  metric: manhattan\n",
			errorContains: "sink.metric must be one of",
		},
		{
			name:          "euclidean metric on pgvector",
			content:       "sink:\n  backend: pgvector\n  postgres_dsn: postgres://localhost/vectors\n  metric: euclidean\n",
			errorContains: "only supported by the memory sink",
		},
		{
			name:          "malformed yaml",
			content:       "policy: [",
			errorContains: "read config",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tc.errorContains)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	assert.ErrorIs(t, err, apperrors.ErrInvalidConfig)
}

type recordingSetter struct {
	mu       sync.Mutex
	policies []standardizer.Policy
	err      error
}

func (r *recordingSetter) SetPolicy(p standardizer.Policy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.policies = append(r.policies, p)
	return nil
}

func TestReloadPolicy(t *testing.T) {
	prev := Default()
	next := Default()
	next.Policy.PaddingStrategy = "random"

	setter := &recordingSetter{}
	reload := ReloadPolicy(setter, nil)

	reload(prev, prev)
	assert.Empty(t, setter.policies)

	reload(prev, next)
	require.Len(t, setter.policies, 1)
	assert.Equal(t, standardizer.PaddingRandom, setter.policies[0].PaddingStrategy)

	setter.err = apperrors.ErrInvalidPolicy
	resized := Default()
	resized.Policy.TargetDimension = 512
	reload(prev, resized)
	assert.Len(t, setter.policies, 1)
}

func TestLoaderWatch(t *testing.T) {
	// Arrange
	path := writeConfig(t, "policy:\n  padding_strategy: zeros\n")
	loader, err := NewLoader(path, nil)
	require.NoError(t, err)
	assert.Equal(t, path, loader.File())

	changed := make(chan *Config, 4)
	loader.Watch(func(_, next *Config) { changed <- next })

	// Act
	require.NoError(t, os.WriteFile(path, []byte("policy:\n  padding_strategy: repeat\n"), 0o600))

	// Assert: a truncating write may surface as several events
	deadline := time.After(5 * time.Second)
	for {
		select {
		case next := <-changed:
			if next.Policy.PaddingStrategy != "repeat" {
				continue
			}
			assert.Equal(t, "repeat", loader.Config().Policy.PaddingStrategy)
			return
		case <-deadline:
			t.Fatal("config change not observed")
		}
	}
}
