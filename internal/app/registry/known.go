package registry

import (
	"strings"
	"time"
)

// KnownModel is a provider model whose output shape is published by the
// provider, so discovery can skip probing it.
type KnownModel struct {
	Provider            Provider
	Name                string
	DisplayName         string
	Dimension           int
	SupportedDimensions []int
}

// Key is the registry key for the model: "<provider>/<name>".
func (k KnownModel) Key() string {
	return ModelKey(k.Provider, k.Name)
}

// Descriptor converts the known model into an available descriptor.
func (k KnownModel) Descriptor(status Status) ModelDescriptor {
	return ModelDescriptor{
		ModelKey:               k.Key(),
		DisplayName:            k.DisplayName,
		Provider:               k.Provider,
		NativeDimension:        Dim(k.Dimension),
		ConfigurableDimensions: len(k.SupportedDimensions) > 1,
		SupportedDimensions:    k.SupportedDimensions,
		Status:                 status,
	}
}

// ModelKey builds the registry key for a provider model name.
func ModelKey(provider Provider, name string) string {
	return string(provider) + "/" + name
}

// SplitModelKey splits "<provider>/<name>". The name may itself contain
// slashes.
func SplitModelKey(key string) (Provider, string, bool) {
	provider, name, ok := strings.Cut(key, "/")
	if !ok || provider == "" || name == "" {
		return "", "", false
	}
	return Provider(provider), name, true
}

// KnownModels lists the published embedding shapes of common models.
var KnownModels = []KnownModel{
	{Provider: ProviderOpenAI, Name: "text-embedding-3-small", DisplayName: "OpenAI text-embedding-3-small", Dimension: 1536, SupportedDimensions: []int{512, 1536}},
	{Provider: ProviderOpenAI, Name: "text-embedding-3-large", DisplayName: "OpenAI text-embedding-3-large", Dimension: 3072, SupportedDimensions: []int{256, 1024, 3072}},
	{Provider: ProviderOpenAI, Name: "text-embedding-ada-002", DisplayName: "OpenAI text-embedding-ada-002", Dimension: 1536},
	{Provider: ProviderGemini, Name: "text-embedding-004", DisplayName: "Gemini text-embedding-004", Dimension: 768},
	{Provider: ProviderGemini, Name: "gemini-embedding-001", DisplayName: "Gemini embedding 001", Dimension: 3072, SupportedDimensions: []int{768, 1536, 3072}},
	{Provider: ProviderOllama, Name: "nomic-embed-text", DisplayName: "Ollama nomic-embed-text", Dimension: 768},
	{Provider: ProviderOllama, Name: "mxbai-embed-large", DisplayName: "Ollama mxbai-embed-large", Dimension: 1024},
	{Provider: ProviderOllama, Name: "all-minilm", DisplayName: "Ollama all-minilm", Dimension: 384},
}

// FindKnown looks up a provider model in the KnownModels table.
func FindKnown(provider Provider, name string) (KnownModel, bool) {
	for _, k := range KnownModels {
		if k.Provider == provider && k.Name == name {
			return k, true
		}
	}
	return KnownModel{}, false
}

// defaultsGeneratedAt pins the defaults so restoring them is reproducible.
var defaultsGeneratedAt = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// DefaultSnapshot is the built-in fallback registry. It never touches the
// network and always contains available models.
func DefaultSnapshot() *Snapshot {
	models := []ModelDescriptor{
		mustKnown(ProviderOpenAI, "text-embedding-3-small").Descriptor(StatusAvailable),
		mustKnown(ProviderOpenAI, "text-embedding-ada-002").Descriptor(StatusAvailable),
		mustKnown(ProviderGemini, "text-embedding-004").Descriptor(StatusAvailable),
		mustKnown(ProviderOllama, "nomic-embed-text").Descriptor(StatusAvailable),
		mustKnown(ProviderOllama, "all-minilm").Descriptor(StatusAvailable),
	}
	s, err := NewSnapshot(0, defaultsGeneratedAt, models)
	if err != nil {
		panic("registry: invalid default snapshot: " + err.Error())
	}
	return s
}

func mustKnown(p Provider, name string) KnownModel {
	k, ok := FindKnown(p, name)
	if !ok {
		panic("registry: default model missing from known table: " + name)
	}
	return k
}
