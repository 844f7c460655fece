package discovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"embedding-harmonizer/internal/app/embedding/provider"
	"embedding-harmonizer/internal/app/registry"
)

func catalogEntry(name string) provider.CatalogModel {
	return provider.CatalogModel{
		ModelKey:    registry.ModelKey(registry.ProviderMock, name),
		DisplayName: name,
		Provider:    registry.ProviderMock,
	}
}

func TestDiffStatusRules(t *testing.T) {
	prev, err := registry.NewSnapshot(4, time.Now(), []registry.ModelDescriptor{
		available("mock/kept", 384),
		available("mock/gone", 768),
		{ModelKey: "mock/ghost", Provider: registry.ProviderMock, Status: registry.StatusUnavailable},
		{ModelKey: "mock/retired", Provider: registry.ProviderMock, NativeDimension: registry.Dim(64), Status: registry.StatusDeprecated},
	})
	require.NoError(t, err)

	configurable := catalogEntry("large")
	configurable.Configurable = true
	configurable.SupportedDimensions = []int{256, 1024, 3072}

	results := []probed{
		{model: catalogEntry("kept"), dimension: registry.Dim(384)},
		{model: catalogEntry("fresh"), dimension: registry.Dim(1024)},
		{model: configurable, dimension: registry.Dim(3072)},
		{model: catalogEntry("flaky"), failure: &ProbeFailure{ModelKey: "mock/flaky", Reason: ReasonTimeout}},
	}

	models, report := diff(prev, results, nil)

	byKey := make(map[string]registry.ModelDescriptor, len(models))
	for _, m := range models {
		require.NoError(t, m.Validate(), m.ModelKey)
		byKey[m.ModelKey] = m
	}

	assert.Equal(t, registry.StatusAvailable, byKey["mock/kept"].Status)
	assert.Equal(t, registry.StatusNew, byKey["mock/fresh"].Status)
	assert.Equal(t, registry.StatusUnavailable, byKey["mock/flaky"].Status)
	assert.Equal(t, registry.StatusDeprecated, byKey["mock/gone"].Status)
	assert.Equal(t, registry.StatusDeprecated, byKey["mock/retired"].Status)
	assert.True(t, byKey["mock/large"].ConfigurableDimensions)
	assert.Equal(t, []int{256, 1024, 3072}, byKey["mock/large"].SupportedDimensions)
	assert.NotContains(t, byKey, "mock/ghost")

	assert.Equal(t, uint64(4), report.FromVersion)
	assert.Equal(t, 4, report.CatalogModels)
	assert.Equal(t, []string{"mock/flaky", "mock/fresh", "mock/large"}, report.NewModels)
	assert.Equal(t, []string{"mock/gone"}, report.DeprecatedModels)
	assert.Equal(t, []string{"mock/flaky"}, report.UnavailableModels)
	assert.Equal(t, []string{"mock/ghost"}, report.RemovedModels)
	assert.Empty(t, report.DimensionChanges)
	assert.True(t, report.HasChanges())
}

func TestDiffNoChanges(t *testing.T) {
	prev, err := registry.NewSnapshot(1, time.Now(), []registry.ModelDescriptor{available("mock/a", 384)})
	require.NoError(t, err)

	models, report := diff(prev, []probed{{model: catalogEntry("a"), dimension: registry.Dim(384)}}, nil)

	assert.False(t, report.HasChanges())
	next, err := registry.NewSnapshot(2, time.Now(), models)
	require.NoError(t, err)
	assert.True(t, next.SameModels(prev))
}

func TestDiffKeepsModelsOfUnreachableProviders(t *testing.T) {
	gemini := registry.ModelDescriptor{
		ModelKey: "gemini/text-embedding-004", Provider: registry.ProviderGemini,
		NativeDimension: registry.Dim(768), Status: registry.StatusAvailable,
	}
	prev, err := registry.NewSnapshot(2, time.Now(), []registry.ModelDescriptor{available("mock/a", 384), available("mock/gone", 64), gemini})
	require.NoError(t, err)

	models, report := diff(prev, []probed{{model: catalogEntry("a"), dimension: registry.Dim(384)}}, []registry.Provider{registry.ProviderGemini})

	byKey := make(map[string]registry.ModelDescriptor, len(models))
	for _, m := range models {
		byKey[m.ModelKey] = m
	}
	kept, ok := byKey["gemini/text-embedding-004"]
	require.True(t, ok)
	assert.Equal(t, registry.StatusAvailable, kept.Status)
	assert.Equal(t, 768, *kept.NativeDimension)
	assert.Equal(t, registry.StatusDeprecated, byKey["mock/gone"].Status)
	assert.Equal(t, []string{"mock/gone"}, report.DeprecatedModels)
	assert.Equal(t, []string{"gemini"}, report.UnreachableProviders)
}
