package services

import (
	"context"

	"embedding-harmonizer/internal/api/v1/dto"
	"embedding-harmonizer/internal/app/embedding/orchestrator"
	"embedding-harmonizer/internal/app/storage/vector"
)

// VectorIndex stores standardized vectors and searches them
type VectorIndex interface {
	Ingest(ctx context.Context, raw []float32, modelKey string, chunk orchestrator.Chunk) orchestrator.ModelResult
	Search(ctx context.Context, raw []float32, modelKey string, limit int) (*orchestrator.SearchResult, error)
}

type vectorService struct {
	index VectorIndex
}

// NewVectorService creates a VectorService
func NewVectorService(index VectorIndex) VectorService {
	return &vectorService{index: index}
}

func (s *vectorService) Store(ctx context.Context, req dto.StoreVectorRequest) (*dto.StoreVectorResponse, error) {
	res := s.index.Ingest(ctx, req.Vector, req.ModelKey, orchestrator.Chunk{
		SourceID:   req.SourceID,
		ChunkIndex: req.ChunkIndex,
		Text:       req.Text,
		Attributes: req.Attributes,
	})
	if res.Err != nil {
		return nil, res.Err
	}

	return &dto.StoreVectorResponse{
		ID:              res.RecordID,
		ModelKey:        res.ModelKey,
		NativeDimension: res.NativeDimension,
		Action:          string(res.Action),
		Validation:      string(res.Validation),
	}, nil
}

func (s *vectorService) Search(ctx context.Context, req dto.SearchRequest) (*dto.SearchResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = vector.DefaultSearchLimit
	}
	limit = min(limit, dto.MaxSearchLimit)

	res, err := s.index.Search(ctx, req.Vector, req.ModelKey, limit)
	if err != nil {
		return nil, err
	}

	matches := res.Matches
	if matches == nil {
		matches = []vector.Match{}
	}
	return &dto.SearchResponse{
		ModelKey:        req.ModelKey,
		Action:          string(res.Query.Action),
		Validation:      string(res.Query.Validation),
		PaddingStrategy: string(res.Query.PaddingStrategy),
		TargetDimension: res.Query.TargetDimension,
		RegistryVersion: res.Version,
		Matches:         matches,
	}, nil
}
