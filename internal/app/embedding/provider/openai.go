package provider

import (
	"context"
	"slices"
	"strings"

	"github.com/sashabaranov/go-openai"

	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/registry"
)

// OpenAIConfig configures the OpenAI provider. BaseURL is optional and
// points the client at a compatible endpoint.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
}

// OpenAIProvider implements Catalog using the OpenAI API
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates a new OpenAI catalog
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperrors.Wrap(apperrors.ErrMissingAPIKey, "openai")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIProvider{client: openai.NewClientWithConfig(clientCfg)}, nil
}

// Name returns the provider name
func (o *OpenAIProvider) Name() registry.Provider {
	return registry.ProviderOpenAI
}

// ListModels returns the embedding models the account can use
func (o *OpenAIProvider) ListModels(ctx context.Context) ([]CatalogModel, error) {
	list, err := o.client.ListModels(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "openai: list models")
	}

	models := make([]CatalogModel, 0, len(list.Models))
	for _, m := range list.Models {
		if !strings.Contains(m.ID, "embedding") {
			continue
		}
		models = append(models, catalogModel(registry.ProviderOpenAI, m.ID))
	}
	slices.SortFunc(models, func(a, b CatalogModel) int { return strings.Compare(a.ModelKey, b.ModelKey) })
	return models, nil
}

// Embed generates an embedding with the given model at its native size
func (o *OpenAIProvider) Embed(ctx context.Context, model string, text string) ([]float32, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}

	request := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(model),
		Input: []string{text},
	}

	response, err := o.client.CreateEmbeddings(ctx, request)
	if err != nil {
		return nil, apperrors.Wrapf(err, "openai: embed with %s", model)
	}

	if len(response.Data) == 0 {
		return nil, apperrors.New("no embedding data returned from OpenAI")
	}

	return response.Data[0].Embedding, nil
}
