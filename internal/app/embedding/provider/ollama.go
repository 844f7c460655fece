package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"slices"
	"strings"
	"unicode/utf8"

	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/registry"
)

// DefaultOllamaURL is where a local Ollama daemon listens.
const DefaultOllamaURL = "http://localhost:11434"

// maxOllamaPrompt caps the prompt length sent to the daemon.
const maxOllamaPrompt = 30000

// OllamaProvider implements Catalog against a local Ollama daemon
type OllamaProvider struct {
	baseURL string
	client  *http.Client
}

// NewOllamaProvider creates a new Ollama catalog
// baseURL: Usually "http://localhost:11434"
func NewOllamaProvider(baseURL string, client *http.Client) *OllamaProvider {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if client == nil {
		client = &http.Client{}
	}
	return &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Name returns the provider name
func (p *OllamaProvider) Name() registry.Provider {
	return registry.ProviderOllama
}

// ListModels lists locally pulled models that look like embedding models
func (p *OllamaProvider) ListModels(ctx context.Context) ([]CatalogModel, error) {
	var tags ollamaTagsResponse
	if err := p.do(ctx, http.MethodGet, "/api/tags", nil, &tags); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(tags.Models))
	models := make([]CatalogModel, 0, len(tags.Models))
	for _, m := range tags.Models {
		name := strings.TrimSuffix(m.Name, ":latest")
		if seen[name] || !isOllamaEmbeddingModel(name) {
			continue
		}
		seen[name] = true
		models = append(models, catalogModel(registry.ProviderOllama, name))
	}
	slices.SortFunc(models, func(a, b CatalogModel) int { return strings.Compare(a.ModelKey, b.ModelKey) })
	return models, nil
}

// isOllamaEmbeddingModel reports whether a pulled model is an embedding
// model. Ollama tags carry no capability flag, so known names and the usual
// naming convention decide.
func isOllamaEmbeddingModel(name string) bool {
	if _, ok := registry.FindKnown(registry.ProviderOllama, name); ok {
		return true
	}
	base, _, _ := strings.Cut(name, ":")
	return strings.Contains(base, "embed") || strings.Contains(base, "minilm")
}

// Embed generates an embedding vector with the given model
func (p *OllamaProvider) Embed(ctx context.Context, model string, text string) ([]float32, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}
	text = truncateUTF8(text, maxOllamaPrompt)

	var resp ollamaEmbeddingResponse
	if err := p.do(ctx, http.MethodPost, "/api/embeddings", ollamaEmbeddingRequest{Model: model, Prompt: text}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, apperrors.Newf("no embedding data returned from Ollama for %s", model)
	}

	embedding := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		embedding[i] = float32(v)
	}
	return embedding, nil
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func (p *OllamaProvider) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal request")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return apperrors.Wrap(err, "failed to build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return apperrors.Wrap(err, "Ollama API request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apperrors.Newf("Ollama API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(err, "failed to decode response")
	}
	return nil
}
