package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"embedding-harmonizer/internal/app/embedding/orchestrator"
	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/logging"
	"embedding-harmonizer/internal/app/registry"
	"embedding-harmonizer/internal/app/standardizer"
	"embedding-harmonizer/internal/config"
)

func writeTestConfig(t *testing.T) ConfigPath {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OLLAMA_HOST", "")

	dir := t.TempDir()
	content := "policy:\n" +
		"  target_dimension: 1024\n" +
		"discovery:\n" +
		"  interval: manual\n" +
		"  providers: [openai, mock]\n" +
		"persistence:\n" +
		"  backend: file\n" +
		"  dir: " + filepath.Join(dir, "registry") + "\n" +
		"server:\n" +
		"  environment: test\n"
	path := filepath.Join(dir, "harmonizer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return ConfigPath(path)
}

func TestProvideCatalog(t *testing.T) {
	cfg := config.Default()
	logger := logging.Nop()

	t.Run("skips hosted providers without keys", func(t *testing.T) {
		cfg.Discovery.Providers = []string{"openai", "gemini", "mock"}

		catalog, err := provideCatalog(context.Background(), cfg, &config.APIKeys{}, logger)

		require.NoError(t, err)
		assert.Equal(t, []registry.Provider{registry.ProviderMock}, catalog.Providers())
	})

	t.Run("openai with key", func(t *testing.T) {
		cfg.Discovery.Providers = []string{"openai", "ollama"}

		catalog, err := provideCatalog(context.Background(), cfg, &config.APIKeys{OpenAI: "sk-test-key-1234567890"}, logger)

		require.NoError(t, err)
		assert.Equal(t, []registry.Provider{registry.ProviderOpenAI, registry.ProviderOllama}, catalog.Providers())
	})

	t.Run("nothing usable", func(t *testing.T) {
		cfg.Discovery.Providers = []string{"gemini"}

		_, err := provideCatalog(context.Background(), cfg, &config.APIKeys{}, logger)

		assert.ErrorIs(t, err, apperrors.ErrInvalidConfig)
	})
}

func TestInitializeCore(t *testing.T) {
	// Arrange
	path := writeTestConfig(t)
	ctx := context.Background()

	core, cleanup, err := InitializeCore(ctx, path)
	require.NoError(t, err)
	defer cleanup()

	startVersion := core.Registry.Current().Version()
	assert.Equal(t, registry.DefaultSnapshot().Len(), core.Registry.Current().Len())
	assert.Equal(t, standardizer.PaddingZeros, core.Standardizer.Policy().PaddingStrategy)

	// Act
	report, err := core.Discovery.RunCycle(ctx)

	// Assert
	require.NoError(t, err)
	assert.True(t, report.Published)
	assert.Greater(t, core.Registry.Current().Version(), startVersion)

	d, ok := core.Registry.Lookup("mock/base")
	require.True(t, ok)
	assert.Equal(t, registry.StatusNew, d.Status)
	assert.Equal(t, 768, *d.NativeDimension)

	active, err := core.Store.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.Registry.Current().Version(), active.Version())

	// A second process bootstraps from the published snapshot
	again, cleanup2, err := InitializeCore(ctx, path)
	require.NoError(t, err)
	defer cleanup2()
	assert.Equal(t, active.Version(), again.Registry.Current().Version())
}

func TestInitializeIngestion(t *testing.T) {
	ctx := context.Background()
	ing, cleanup, err := InitializeIngestion(ctx, writeTestConfig(t))
	require.NoError(t, err)
	defer cleanup()

	_, err = ing.Discovery.RunCycle(ctx)
	require.NoError(t, err)

	result, err := ing.Orchestrator.ProcessChunk(ctx, orchestrator.Chunk{SourceID: "doc-1", Text: "hello"}, []string{"mock/mini", "mock/wide"})

	require.NoError(t, err)
	assert.Zero(t, result.Failed())
	assert.Equal(t, 1024, ing.Sink.Dimension())
}

func TestInitializeAPIServer(t *testing.T) {
	api, cleanup, err := InitializeAPIServer(context.Background(), writeTestConfig(t))
	require.NoError(t, err)
	defer cleanup()

	assert.Nil(t, api.Scheduler)

	rec := httptest.NewRecorder()
	api.Server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"persistence":"file"`)

	rec = httptest.NewRecorder()
	api.Server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/discovery/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"idle"`)
}

func TestAPIServerIndexesAndSearches(t *testing.T) {
	// Arrange
	ctx := context.Background()
	api, cleanup, err := InitializeAPIServer(ctx, writeTestConfig(t))
	require.NoError(t, err)
	defer cleanup()
	_, err = api.Discovery.RunCycle(ctx)
	require.NoError(t, err)

	post := func(path string, body any) *httptest.ResponseRecorder {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		api.Server.Router().ServeHTTP(rec, req)
		return rec
	}
	mini := make([]float32, 384)
	mini[0] = 1
	query := make([]float32, 1536)
	query[0] = 1

	// Act
	stored := post("/api/v1/vectors", map[string]any{"model_key": "mock/mini", "vector": mini, "source_id": "doc-1"})
	found := post("/api/v1/search", map[string]any{"model_key": "mock/wide", "vector": query, "limit": 3})

	// Assert
	require.Equal(t, http.StatusCreated, stored.Code, stored.Body.String())
	require.Equal(t, http.StatusOK, found.Code, found.Body.String())
	assert.Equal(t, 1, api.Sink.(interface{ Len() int }).Len())

	var resp struct {
		Action  string `json:"action"`
		Matches []struct {
			ModelKey string `json:"model_key"`
		} `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(found.Body.Bytes(), &resp))
	assert.Equal(t, "truncate", resp.Action)
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "mock/mini", resp.Matches[0].ModelKey)
}
