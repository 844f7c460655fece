package orchestrator

import (
	"context"
	"errors"
	"sync"

	"embedding-harmonizer/internal/app/embedding/provider"
	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/logging"
	"embedding-harmonizer/internal/app/registry"
	"embedding-harmonizer/internal/app/standardizer"
	"embedding-harmonizer/internal/app/storage/vector"
)

// EmbedderSource resolves a model key to a provider that embeds with it.
type EmbedderSource interface {
	Embedder(modelKey string) (provider.EmbeddingProvider, error)
}

// Standardizer standardizes against an explicit registry snapshot.
type Standardizer interface {
	StandardizeWith(snap *registry.Snapshot, vector []float32, modelKey string) (standardizer.Result, error)
}

// Chunk is one piece of text to embed.
type Chunk = vector.ChunkMetadata

// ModelResult is the outcome of one model for one chunk.
type ModelResult struct {
	ModelKey        string                  `json:"model_key"`
	RecordID        string                  `json:"record_id,omitempty"`
	NativeDimension int                     `json:"native_dimension,omitempty"`
	Action          standardizer.Action     `json:"action,omitempty"`
	Validation      standardizer.Validation `json:"validation,omitempty"`
	Err             error                   `json:"-"`
}

// ChunkResult collects the per-model outcomes of a chunk.
type ChunkResult struct {
	Chunk   Chunk
	Version uint64
	Results []ModelResult
}

// Failed counts models that did not store a record
func (r *ChunkResult) Failed() int {
	n := 0
	for _, m := range r.Results {
		if m.Err != nil {
			n++
		}
	}
	return n
}

// Err joins every per-model error
func (r *ChunkResult) Err() error {
	var errs []error
	for _, m := range r.Results {
		if m.Err != nil {
			errs = append(errs, apperrors.Wrap(m.Err, m.ModelKey))
		}
	}
	return errors.Join(errs...)
}

// EmbeddingOrchestrator embeds text with one or more models, standardizes
// every vector to the index dimension and stores it in the sink. All models
// for a chunk are checked against the same registry snapshot.
type EmbeddingOrchestrator struct {
	embedders    EmbedderSource
	registry     registry.Reader
	standardizer Standardizer
	sink         vector.Sink
	logger       logging.Logger
}

// NewEmbeddingOrchestrator creates a new embedding orchestrator
func NewEmbeddingOrchestrator(
	embedders EmbedderSource,
	reg registry.Reader,
	std Standardizer,
	sink vector.Sink,
	logger logging.Logger,
) *EmbeddingOrchestrator {
	return &EmbeddingOrchestrator{
		embedders:    embedders,
		registry:     reg,
		standardizer: std,
		sink:         sink,
		logger:       logging.OrNop(logger),
	}
}

// ProcessChunk embeds chunk with every model concurrently. Per-model failures
// are reported in the result; the returned error is non-nil only when every
// model failed or ctx ended.
func (o *EmbeddingOrchestrator) ProcessChunk(ctx context.Context, chunk Chunk, modelKeys []string) (*ChunkResult, error) {
	if len(modelKeys) == 0 {
		return nil, apperrors.RequiredField("model keys")
	}
	if chunk.Text == "" {
		return nil, apperrors.RequiredField("chunk text")
	}

	snap := o.registry.Current()
	result := &ChunkResult{Chunk: chunk, Version: snap.Version(), Results: make([]ModelResult, len(modelKeys))}

	var wg sync.WaitGroup
	for i, key := range modelKeys {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			result.Results[i] = o.embedAndStore(ctx, snap, chunk, key)
		}(i, key)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return result, err
	}
	if result.Failed() == len(modelKeys) {
		return result, apperrors.Wrap(result.Err(), "embedding failed for every model")
	}
	return result, nil
}

func (o *EmbeddingOrchestrator) embedAndStore(ctx context.Context, snap *registry.Snapshot, chunk Chunk, modelKey string) ModelResult {
	res := ModelResult{ModelKey: modelKey}

	embedder, err := o.embedders.Embedder(modelKey)
	if err != nil {
		res.Err = err
		return res
	}
	raw, err := embedder.GenerateEmbedding(ctx, chunk.Text)
	if err != nil {
		o.logger.Errorw("Failed to generate embedding",
			"model_key", modelKey, "source_id", chunk.SourceID, "chunk_index", chunk.ChunkIndex, "error", err)
		res.Err = err
		return res
	}

	return o.store(ctx, snap, raw, modelKey, chunk)
}

// SearchResult is a standardized query and the records nearest to it.
type SearchResult struct {
	Query   standardizer.Result
	Version uint64
	Matches []vector.Match
}

// CanSearch reports whether the sink supports nearest-neighbour search.
func (o *EmbeddingOrchestrator) CanSearch() bool {
	_, ok := o.sink.(vector.Searcher)
	return ok
}

// Search standardizes a query vector produced by modelKey exactly like a
// stored vector and returns the nearest records across every model.
func (o *EmbeddingOrchestrator) Search(ctx context.Context, raw []float32, modelKey string, limit int) (*SearchResult, error) {
	searcher, ok := o.sink.(vector.Searcher)
	if !ok {
		return nil, apperrors.Wrap(apperrors.ErrUnsupported, "vector sink cannot search")
	}

	snap := o.registry.Current()
	query, err := o.standardizer.StandardizeWith(snap, raw, modelKey)
	if err != nil {
		return nil, err
	}
	matches, err := searcher.Nearest(ctx, query.Vector, limit)
	if err != nil {
		o.logger.Errorw("Vector search failed", "model_key", modelKey, "limit", limit, "error", err)
		return nil, err
	}

	o.logger.Debugw("Searched standardized vectors",
		"model_key", modelKey, "action", query.Action, "matches", len(matches))
	return &SearchResult{Query: query, Version: snap.Version(), Matches: matches}, nil
}

// Ingest standardizes a vector computed elsewhere and stores it.
func (o *EmbeddingOrchestrator) Ingest(ctx context.Context, raw []float32, modelKey string, chunk Chunk) ModelResult {
	return o.store(ctx, o.registry.Current(), raw, modelKey, chunk)
}

func (o *EmbeddingOrchestrator) store(ctx context.Context, snap *registry.Snapshot, raw []float32, modelKey string, chunk Chunk) ModelResult {
	res := ModelResult{ModelKey: modelKey, NativeDimension: len(raw)}

	std, err := o.standardizer.StandardizeWith(snap, raw, modelKey)
	if err != nil {
		res.Err = err
		return res
	}
	res.Action = std.Action
	res.Validation = std.Validation

	id, err := o.sink.Store(ctx, vector.Record{
		Vector:          std.Vector,
		ModelKey:        modelKey,
		NativeDimension: len(raw),
		Chunk:           chunk,
	})
	if err != nil {
		o.logger.Errorw("Failed to store embedding",
			"model_key", modelKey, "source_id", chunk.SourceID, "chunk_index", chunk.ChunkIndex, "error", err)
		res.Err = err
		return res
	}
	res.RecordID = id

	o.logger.Debugw("Stored standardized embedding",
		"model_key", modelKey, "record_id", id, "native_dimension", len(raw), "action", std.Action)
	return res
}
