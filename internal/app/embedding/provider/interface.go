package provider

import (
	"context"
	"strings"

	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/registry"
)

// EmbeddingProvider defines the interface for an embedding model bound to
// one provider model.
// Following Interface Segregation Principle - keep it focused
type EmbeddingProvider interface {
	// GenerateEmbedding generates an embedding vector for the given text
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)

	// GetProviderInfo returns metadata about the provider
	GetProviderInfo() ProviderInfo
}

// ProviderInfo contains metadata about an embedding provider
type ProviderInfo struct {
	Name  registry.Provider // Provider name (e.g., "openai", "gemini")
	Model string            // Model identifier (e.g., "text-embedding-3-small")
}

// ModelKey is the registry key of the bound model.
func (i ProviderInfo) ModelKey() string {
	return registry.ModelKey(i.Name, i.Model)
}

// Catalog is a provider's model listing plus the ability to embed with any
// of the listed models. Discovery probes through it.
type Catalog interface {
	Name() registry.Provider
	ListModels(ctx context.Context) ([]CatalogModel, error)
	Embed(ctx context.Context, model string, text string) ([]float32, error)
}

// CatalogModel is one entry of a provider catalog. DeclaredDimension is set
// only when the provider publishes the model's output size.
type CatalogModel struct {
	ModelKey            string
	DisplayName         string
	Provider            registry.Provider
	DeclaredDimension   *int
	Configurable        bool
	SupportedDimensions []int
}

// catalogModel builds a catalog entry, filling declared dimensions from the
// known-model table when the provider itself does not report them.
func catalogModel(p registry.Provider, name string) CatalogModel {
	m := CatalogModel{
		ModelKey:    registry.ModelKey(p, name),
		DisplayName: name,
		Provider:    p,
	}
	if k, ok := registry.FindKnown(p, name); ok {
		m.DisplayName = k.DisplayName
		m.DeclaredDimension = registry.Dim(k.Dimension)
		m.Configurable = len(k.SupportedDimensions) > 1
		m.SupportedDimensions = append([]int(nil), k.SupportedDimensions...)
	}
	return m
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return apperrors.New("empty text provided")
	}
	return nil
}

// Bind returns an EmbeddingProvider that embeds with one model of c.
func Bind(c Catalog, model string) EmbeddingProvider {
	return &boundModel{catalog: c, model: model}
}

type boundModel struct {
	catalog Catalog
	model   string
}

func (b *boundModel) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return b.catalog.Embed(ctx, b.model, text)
}

func (b *boundModel) GetProviderInfo() ProviderInfo {
	return ProviderInfo{Name: b.catalog.Name(), Model: b.model}
}
