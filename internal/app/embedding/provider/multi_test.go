package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/registry"
)

func TestMockProviderDeterministic(t *testing.T) {
	// Arrange
	p := NewMockProvider(MockModel{Name: "m", Dimension: 40})

	// Act
	a, err := p.Embed(context.Background(), "m", "same text")
	require.NoError(t, err)
	b, err := p.Embed(context.Background(), "m", "same text")
	require.NoError(t, err)
	c, err := p.Embed(context.Background(), "m", "other text")
	require.NoError(t, err)

	// Assert
	assert.Len(t, a, 40)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	for _, v := range a {
		assert.True(t, v >= -1 && v <= 1)
	}
	assert.Equal(t, 3, p.EmbedCalls())
}

func TestMockProviderFailures(t *testing.T) {
	boom := errors.New("boom")
	p := NewMockProvider(
		MockModel{Name: "broken", Dimension: 8, EmbedErr: boom},
		MockModel{Name: "slow", Dimension: 8, Delay: time.Second},
	)

	_, err := p.Embed(context.Background(), "broken", "x")
	assert.ErrorIs(t, err, boom)

	_, err = p.Embed(context.Background(), "absent", "x")
	assert.Error(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = p.Embed(ctx, "slow", "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	p.SetListError(boom)
	_, err = p.ListModels(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestMultiCatalogListModels(t *testing.T) {
	openai := NewMockProvider(MockModel{Name: "small", Dimension: 4, Declared: true}).WithName(registry.ProviderOpenAI)
	ollama := NewMockProvider(MockModel{Name: "mini", Dimension: 3}).WithName(registry.ProviderOllama)
	multi := NewMultiCatalog(nil, openai, ollama)

	t.Run("merges all providers", func(t *testing.T) {
		models, err := multi.ListModels(context.Background())
		require.NoError(t, err)
		require.Len(t, models, 2)
		assert.Equal(t, "ollama/mini", models[0].ModelKey)
		assert.Equal(t, "openai/small", models[1].ModelKey)
	})

	t.Run("one failing provider is tolerated", func(t *testing.T) {
		ollama.SetListError(errors.New("connection refused"))
		defer ollama.SetListError(nil)

		models, err := multi.ListModels(context.Background())

		var partial *PartialListingError
		require.ErrorAs(t, err, &partial)
		assert.Equal(t, []registry.Provider{registry.ProviderOllama}, partial.Providers)
		assert.NotErrorIs(t, err, apperrors.ErrCatalogUnreachable)
		require.Len(t, models, 1)
		assert.Equal(t, "openai/small", models[0].ModelKey)
	})

	t.Run("all failing is catalog unreachable", func(t *testing.T) {
		openai.SetListError(errors.New("401"))
		ollama.SetListError(errors.New("connection refused"))
		defer openai.SetListError(nil)
		defer ollama.SetListError(nil)

		_, err := multi.ListModels(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrCatalogUnreachable)
		assert.Contains(t, err.Error(), "provider ollama")
	})

	t.Run("no providers", func(t *testing.T) {
		_, err := NewMultiCatalog(nil).ListModels(context.Background())
		assert.ErrorIs(t, err, apperrors.ErrCatalogUnreachable)
	})
}

func TestMultiCatalogRouting(t *testing.T) {
	ollama := NewMockProvider(MockModel{Name: "mini", Dimension: 3}).WithName(registry.ProviderOllama)
	multi := NewMultiCatalog(nil, ollama)
	assert.Equal(t, []registry.Provider{registry.ProviderOllama}, multi.Providers())

	vec, err := multi.ProbeEmbed(context.Background(), "ollama/mini", "probe")
	require.NoError(t, err)
	assert.Len(t, vec, 3)

	_, err = multi.ProbeEmbed(context.Background(), "gemini/text-embedding-004", "probe")
	assert.ErrorIs(t, err, apperrors.ErrUnknownModel)

	_, err = multi.ProbeEmbed(context.Background(), "no-slash", "probe")
	assert.True(t, apperrors.IsValidationError(err))

	e, err := multi.Embedder("ollama/mini")
	require.NoError(t, err)
	assert.Equal(t, "ollama/mini", e.GetProviderInfo().ModelKey())
}

func TestGeminiCatalogModels(t *testing.T) {
	listed := []*genai.Model{
		{Name: "models/gemini-2.0-flash", SupportedActions: []string{"generateContent"}},
		{Name: "models/text-embedding-004", DisplayName: "Text Embedding 004", SupportedActions: []string{"embedContent"}},
		{Name: "models/embedding-experimental", DisplayName: "Experimental", SupportedActions: []string{"embedContent", "countTokens"}},
		nil,
	}

	models := geminiCatalogModels(listed)

	require.Len(t, models, 2)
	assert.Equal(t, "gemini/embedding-experimental", models[0].ModelKey)
	assert.Equal(t, "Experimental", models[0].DisplayName)
	assert.Nil(t, models[0].DeclaredDimension)

	assert.Equal(t, "gemini/text-embedding-004", models[1].ModelKey)
	require.NotNil(t, models[1].DeclaredDimension)
	assert.Equal(t, 768, *models[1].DeclaredDimension)
}

func TestNewGeminiProviderRequiresKey(t *testing.T) {
	_, err := NewGeminiProvider(context.Background(), GeminiConfig{})
	assert.ErrorIs(t, err, apperrors.ErrMissingAPIKey)
}
