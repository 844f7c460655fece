package provider

import (
	"context"
	"slices"
	"strings"

	"google.golang.org/genai"

	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/registry"
)

// GeminiConfig configures the Gemini provider.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
}

// GeminiProvider implements Catalog using the Google Gemini API
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a new Gemini catalog
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperrors.Wrap(apperrors.ErrMissingAPIKey, "gemini")
	}
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, apperrors.Wrap(err, "gemini: create client")
	}
	return &GeminiProvider{client: client}, nil
}

// Name returns the provider name
func (g *GeminiProvider) Name() registry.Provider {
	return registry.ProviderGemini
}

// ListModels pages through the model list and keeps embedding models
func (g *GeminiProvider) ListModels(ctx context.Context) ([]CatalogModel, error) {
	var listed []*genai.Model
	for m, err := range g.client.Models.All(ctx) {
		if err != nil {
			return nil, apperrors.Wrap(err, "gemini: list models")
		}
		listed = append(listed, m)
	}
	return geminiCatalogModels(listed), nil
}

// geminiCatalogModels keeps models that support embedContent and strips the
// "models/" resource prefix from their names.
func geminiCatalogModels(listed []*genai.Model) []CatalogModel {
	models := make([]CatalogModel, 0, len(listed))
	for _, m := range listed {
		if m == nil || !slices.Contains(m.SupportedActions, "embedContent") {
			continue
		}
		name := strings.TrimPrefix(m.Name, "models/")
		cm := catalogModel(registry.ProviderGemini, name)
		if cm.DeclaredDimension == nil && m.DisplayName != "" {
			cm.DisplayName = m.DisplayName
		}
		models = append(models, cm)
	}
	slices.SortFunc(models, func(a, b CatalogModel) int { return strings.Compare(a.ModelKey, b.ModelKey) })
	return models
}

// Embed generates an embedding using the Gemini API
func (g *GeminiProvider) Embed(ctx context.Context, model string, text string) ([]float32, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}

	resp, err := g.client.Models.EmbedContent(ctx, model, genai.Text(text), nil)
	if err != nil {
		return nil, apperrors.Wrapf(err, "gemini: embed with %s", model)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, apperrors.New("no embedding data returned from Gemini")
	}
	return resp.Embeddings[0].Values, nil
}
