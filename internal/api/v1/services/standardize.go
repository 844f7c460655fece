package services

import (
	"context"

	"embedding-harmonizer/internal/api/v1/dto"
	"embedding-harmonizer/internal/app/registry"
	"embedding-harmonizer/internal/app/standardizer"
)

// Standardizer standardizes against an explicit snapshot
type Standardizer interface {
	StandardizeWith(snap *registry.Snapshot, vector []float32, modelKey string) (standardizer.Result, error)
}

type standardizeService struct {
	standardizer Standardizer
	registry     registry.Reader
}

// NewStandardizeService creates a StandardizeService
func NewStandardizeService(std Standardizer, reg registry.Reader) StandardizeService {
	return &standardizeService{standardizer: std, registry: reg}
}

func (s *standardizeService) Standardize(ctx context.Context, req dto.StandardizeRequest) (*dto.StandardizeResponse, error) {
	snap := s.registry.Current()
	res, err := s.standardizer.StandardizeWith(snap, req.Vector, req.ModelKey)
	if err != nil {
		return nil, err
	}

	return &dto.StandardizeResponse{
		ModelKey:        req.ModelKey,
		Vector:          res.Vector,
		Action:          string(res.Action),
		Validation:      string(res.Validation),
		InputDimension:  res.InputDimension,
		TargetDimension: res.TargetDimension,
		PaddingStrategy: string(res.PaddingStrategy),
		RegistryVersion: snap.Version(),
	}, nil
}
