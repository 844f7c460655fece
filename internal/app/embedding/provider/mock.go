package provider

import (
	"context"
	"crypto/sha256"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/registry"
)

// MockModel describes one model served by MockProvider.
type MockModel struct {
	Name      string
	Dimension int
	// Declared publishes Dimension in the catalog so discovery skips probing.
	Declared bool
	// Delay is how long Embed takes; it honours context cancellation.
	Delay    time.Duration
	EmbedErr error
}

// MockProvider is a deterministic in-memory Catalog for tests and offline runs
type MockProvider struct {
	name registry.Provider

	mu      sync.RWMutex
	models  []MockModel
	listErr error

	listCalls  atomic.Int64
	embedCalls atomic.Int64
}

// NewMockProvider creates a mock catalog serving models
func NewMockProvider(models ...MockModel) *MockProvider {
	return &MockProvider{name: registry.ProviderMock, models: models}
}

// WithName makes the mock answer as another provider.
func (m *MockProvider) WithName(p registry.Provider) *MockProvider {
	m.name = p
	return m
}

// SetModels replaces the served models.
func (m *MockProvider) SetModels(models ...MockModel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.models = models
}

// SetListError makes ListModels fail with err until reset with nil.
func (m *MockProvider) SetListError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
}

// ListCalls returns how many times ListModels ran.
func (m *MockProvider) ListCalls() int { return int(m.listCalls.Load()) }

// EmbedCalls returns how many times Embed ran.
func (m *MockProvider) EmbedCalls() int { return int(m.embedCalls.Load()) }

// Name returns the provider name
func (m *MockProvider) Name() registry.Provider {
	return m.name
}

// ListModels returns the configured models
func (m *MockProvider) ListModels(ctx context.Context) ([]CatalogModel, error) {
	m.listCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.listErr != nil {
		return nil, m.listErr
	}

	out := make([]CatalogModel, 0, len(m.models))
	for _, mm := range m.models {
		cm := CatalogModel{
			ModelKey:    registry.ModelKey(m.name, mm.Name),
			DisplayName: mm.Name,
			Provider:    m.name,
		}
		if mm.Declared {
			cm.DeclaredDimension = registry.Dim(mm.Dimension)
		}
		out = append(out, cm)
	}
	slices.SortFunc(out, func(a, b CatalogModel) int { return strings.Compare(a.ModelKey, b.ModelKey) })
	return out, nil
}

// Embed generates deterministic embeddings based on SHA256 hash
func (m *MockProvider) Embed(ctx context.Context, model string, text string) ([]float32, error) {
	m.embedCalls.Add(1)
	if err := validateText(text); err != nil {
		return nil, err
	}

	m.mu.RLock()
	idx := slices.IndexFunc(m.models, func(mm MockModel) bool { return mm.Name == model })
	var mm MockModel
	if idx >= 0 {
		mm = m.models[idx]
	}
	m.mu.RUnlock()
	if idx < 0 {
		return nil, apperrors.NotFound("model", model)
	}

	if mm.Delay > 0 {
		timer := time.NewTimer(mm.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if mm.EmbedErr != nil {
		return nil, mm.EmbedErr
	}

	return hashEmbedding(text, mm.Dimension), nil
}

// hashEmbedding converts the SHA256 of text into values in [-1, 1].
func hashEmbedding(text string, dimension int) []float32 {
	hash := sha256.Sum256([]byte(text))
	embedding := make([]float32, dimension)
	for i := range embedding {
		byteIndex := i % len(hash)
		embedding[i] = (float32(hash[byteIndex])/255.0)*2 - 1
	}
	return embedding
}
