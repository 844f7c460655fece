package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"embedding-harmonizer/internal/api/v1/dto"
	"embedding-harmonizer/internal/app/registry"
)

// MockRegistryService for testing
type MockRegistryService struct {
	mock.Mock
}

func (m *MockRegistryService) ListModels(ctx context.Context, query dto.ListModelsQuery) (*dto.ModelListResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ModelListResponse), args.Error(1)
}

func (m *MockRegistryService) GetModel(ctx context.Context, modelKey string) (*dto.ModelResponse, error) {
	args := m.Called(ctx, modelKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ModelResponse), args.Error(1)
}

func (m *MockRegistryService) Compatibility(ctx context.Context) (*registry.CompatibilityReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registry.CompatibilityReport), args.Error(1)
}

// MockDiscoveryService for testing
type MockDiscoveryService struct {
	mock.Mock
}

func (m *MockDiscoveryService) Status(ctx context.Context) (*dto.DiscoveryStatusResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.DiscoveryStatusResponse), args.Error(1)
}

func (m *MockDiscoveryService) Run(ctx context.Context) (*dto.DiscoveryRunResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.DiscoveryRunResponse), args.Error(1)
}

// MockStandardizeService for testing
type MockStandardizeService struct {
	mock.Mock
}

func (m *MockStandardizeService) Standardize(ctx context.Context, req dto.StandardizeRequest) (*dto.StandardizeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.StandardizeResponse), args.Error(1)
}

// MockVectorService for testing
type MockVectorService struct {
	mock.Mock
}

func (m *MockVectorService) Store(ctx context.Context, req dto.StoreVectorRequest) (*dto.StoreVectorResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.StoreVectorResponse), args.Error(1)
}

func (m *MockVectorService) Search(ctx context.Context, req dto.SearchRequest) (*dto.SearchResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SearchResponse), args.Error(1)
}

// MockBackupService for testing
type MockBackupService struct {
	mock.Mock
}

func (m *MockBackupService) ListBackups(ctx context.Context) (*dto.BackupListResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.BackupListResponse), args.Error(1)
}

func (m *MockBackupService) Restore(ctx context.Context, backupID string) (*dto.RestoreResponse, error) {
	args := m.Called(ctx, backupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RestoreResponse), args.Error(1)
}
