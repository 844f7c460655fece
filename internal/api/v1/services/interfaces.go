package services

import (
	"context"

	"embedding-harmonizer/internal/api/v1/dto"
	"embedding-harmonizer/internal/app/registry"
)

// RegistryService defines the read side of the model registry
type RegistryService interface {
	ListModels(ctx context.Context, query dto.ListModelsQuery) (*dto.ModelListResponse, error)
	GetModel(ctx context.Context, modelKey string) (*dto.ModelResponse, error)
	Compatibility(ctx context.Context) (*registry.CompatibilityReport, error)
}

// DiscoveryService defines the interface for discovery operations
type DiscoveryService interface {
	Status(ctx context.Context) (*dto.DiscoveryStatusResponse, error)
	Run(ctx context.Context) (*dto.DiscoveryRunResponse, error)
}

// StandardizeService defines the interface for standardization
type StandardizeService interface {
	Standardize(ctx context.Context, req dto.StandardizeRequest) (*dto.StandardizeResponse, error)
}

// VectorService defines the interface for indexing and searching standardized vectors
type VectorService interface {
	Store(ctx context.Context, req dto.StoreVectorRequest) (*dto.StoreVectorResponse, error)
	Search(ctx context.Context, req dto.SearchRequest) (*dto.SearchResponse, error)
}

// BackupService defines the interface for snapshot history operations
type BackupService interface {
	ListBackups(ctx context.Context) (*dto.BackupListResponse, error)
	Restore(ctx context.Context, backupID string) (*dto.RestoreResponse, error)
}
