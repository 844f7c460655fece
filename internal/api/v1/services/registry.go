package services

import (
	"context"
	"strings"

	"embedding-harmonizer/internal/api/v1/dto"
	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/registry"
	"embedding-harmonizer/internal/app/standardizer"
)

// PolicySource exposes the active standardization policy
type PolicySource interface {
	Policy() standardizer.Policy
}

type registryService struct {
	registry registry.Reader
	policy   PolicySource
}

// NewRegistryService creates a RegistryService over the live registry
func NewRegistryService(reg registry.Reader, policy PolicySource) RegistryService {
	return &registryService{registry: reg, policy: policy}
}

func (s *registryService) ListModels(ctx context.Context, query dto.ListModelsQuery) (*dto.ModelListResponse, error) {
	snap := s.registry.Current()
	target := s.policy.Policy().TargetDimension

	models := make([]dto.ModelResponse, 0, snap.Len())
	for _, d := range snap.All() {
		if query.Provider != "" && !strings.EqualFold(string(d.Provider), query.Provider) {
			continue
		}
		if query.Status != "" && string(d.Status) != query.Status {
			continue
		}
		models = append(models, dto.NewModelResponse(d, target))
	}

	return &dto.ModelListResponse{
		Version:         snap.Version(),
		TargetDimension: target,
		Total:           len(models),
		Models:          models,
	}, nil
}

func (s *registryService) GetModel(ctx context.Context, modelKey string) (*dto.ModelResponse, error) {
	modelKey = strings.Trim(modelKey, "/")
	if modelKey == "" {
		return nil, apperrors.RequiredField("model_key")
	}
	d, ok := s.registry.Lookup(modelKey)
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrUnknownModel, "model %s", modelKey)
	}
	resp := dto.NewModelResponse(d, s.policy.Policy().TargetDimension)
	return &resp, nil
}

func (s *registryService) Compatibility(ctx context.Context) (*registry.CompatibilityReport, error) {
	report := s.registry.CompatibilityReport()
	return &report, nil
}
