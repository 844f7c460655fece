package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"embedding-harmonizer/internal/app/embedding/provider"
	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/registry"
	"embedding-harmonizer/internal/app/standardizer"
	"embedding-harmonizer/internal/app/storage/vector"
)

const target = 1024

// MockSink for testing sink failures
type MockSink struct {
	mock.Mock
}

func (m *MockSink) Store(ctx context.Context, rec vector.Record) (string, error) {
	args := m.Called(ctx, rec)
	return args.String(0), args.Error(1)
}

func (m *MockSink) Dimension() int { return target }

func (m *MockSink) Close() error { return nil }

type fixture struct {
	orchestrator *EmbeddingOrchestrator
	sink         *vector.MemorySink
	provider     *provider.MockProvider
}

func newFixture(t *testing.T, sink vector.Sink) *fixture {
	t.Helper()

	snap, err := registry.NewSnapshot(1, time.Now(), []registry.ModelDescriptor{
		{ModelKey: "mock/small", Provider: registry.ProviderMock, NativeDimension: registry.Dim(384), Status: registry.StatusAvailable},
		{ModelKey: "mock/large", Provider: registry.ProviderMock, NativeDimension: registry.Dim(1536), Status: registry.StatusAvailable},
		{ModelKey: "mock/liar", Provider: registry.ProviderMock, NativeDimension: registry.Dim(384), Status: registry.StatusAvailable},
		{ModelKey: "mock/broken", Provider: registry.ProviderMock, NativeDimension: registry.Dim(384), Status: registry.StatusAvailable},
	})
	require.NoError(t, err)
	reg := registry.New(snap)

	policy, err := standardizer.NewPolicy(target, standardizer.PaddingZeros)
	require.NoError(t, err)
	std, err := standardizer.New(reg, policy, nil, nil)
	require.NoError(t, err)

	mp := provider.NewMockProvider(
		provider.MockModel{Name: "small", Dimension: 384},
		provider.MockModel{Name: "large", Dimension: 1536},
		provider.MockModel{Name: "liar", Dimension: 10},
		provider.MockModel{Name: "broken", Dimension: 384, EmbedErr: errors.New("model overloaded")},
	)
	catalog := provider.NewMultiCatalog(nil, mp)

	f := &fixture{provider: mp}
	if sink == nil {
		f.sink = vector.NewMemorySink(target)
		sink = f.sink
	}
	f.orchestrator = NewEmbeddingOrchestrator(catalog, reg, std, sink, nil)
	return f
}

func chunk(i int) Chunk {
	return Chunk{SourceID: "doc", ChunkIndex: i, Text: fmt.Sprintf("chunk number %d", i)}
}

func TestProcessChunkFansOutAcrossModels(t *testing.T) {
	// Arrange
	f := newFixture(t, nil)

	// Act
	result, err := f.orchestrator.ProcessChunk(context.Background(), chunk(0), []string{"mock/small", "mock/large"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result.Version)
	assert.Equal(t, 0, result.Failed())
	require.Len(t, result.Results, 2)

	small, large := result.Results[0], result.Results[1]
	assert.Equal(t, standardizer.ActionPad, small.Action)
	assert.Equal(t, 384, small.NativeDimension)
	assert.Equal(t, standardizer.ActionTruncate, large.Action)
	assert.Equal(t, 1536, large.NativeDimension)

	require.Equal(t, 2, f.sink.Len())
	for _, rec := range f.sink.Records() {
		assert.Len(t, rec.Vector, target)
		assert.Equal(t, "doc", rec.Chunk.SourceID)
	}

	stored, err := f.sink.Get(small.RecordID)
	require.NoError(t, err)
	assert.Equal(t, float32(0), stored.Vector[target-1])
}

func TestProcessChunkPartialFailure(t *testing.T) {
	f := newFixture(t, nil)

	result, err := f.orchestrator.ProcessChunk(context.Background(), chunk(0), []string{"mock/small", "mock/broken", "mock/liar"})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Failed())
	assert.NoError(t, result.Results[0].Err)
	assert.ErrorContains(t, result.Results[1].Err, "model overloaded")
	assert.ErrorIs(t, result.Results[2].Err, apperrors.ErrDimensionMismatch)
	assert.Equal(t, 1, f.sink.Len())
}

func TestProcessChunkAllModelsFail(t *testing.T) {
	f := newFixture(t, nil)

	result, err := f.orchestrator.ProcessChunk(context.Background(), chunk(0), []string{"mock/broken", "openai/unknown-provider"})

	require.Error(t, err)
	assert.Equal(t, 2, result.Failed())
	assert.ErrorIs(t, result.Results[1].Err, apperrors.ErrUnknownModel)
	assert.Zero(t, f.sink.Len())
}

func TestProcessChunkValidation(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.orchestrator.ProcessChunk(context.Background(), chunk(0), nil)
	assert.True(t, apperrors.IsValidationError(err))

	_, err = f.orchestrator.ProcessChunk(context.Background(), Chunk{SourceID: "doc"}, []string{"mock/small"})
	assert.True(t, apperrors.IsValidationError(err))
}

func TestProcessChunkSinkFailure(t *testing.T) {
	// Arrange
	sink := &MockSink{}
	sink.On("Store", mock.Anything, mock.MatchedBy(func(rec vector.Record) bool {
		return rec.ModelKey == "mock/small" && len(rec.Vector) == target && rec.NativeDimension == 384
	})).Return("", errors.New("disk full"))
	f := newFixture(t, sink)

	// Act
	result, err := f.orchestrator.ProcessChunk(context.Background(), chunk(3), []string{"mock/small"})

	// Assert
	require.Error(t, err)
	assert.ErrorContains(t, result.Results[0].Err, "disk full")
	sink.AssertExpectations(t)
}

func TestIngestPrecomputedVector(t *testing.T) {
	f := newFixture(t, nil)
	raw := make([]float32, 384)
	raw[0] = 1

	res := f.orchestrator.Ingest(context.Background(), raw, "mock/small", chunk(1))

	require.NoError(t, res.Err)
	assert.Equal(t, standardizer.ValidationPassed, res.Validation)
	assert.NotEmpty(t, res.RecordID)

	unknown := f.orchestrator.Ingest(context.Background(), raw, "mock/unregistered", chunk(1))
	require.NoError(t, unknown.Err)
	assert.Equal(t, standardizer.ValidationUnknownModel, unknown.Validation)

	empty := f.orchestrator.Ingest(context.Background(), nil, "mock/small", chunk(1))
	assert.ErrorIs(t, empty.Err, apperrors.ErrEmptyVector)
	assert.Equal(t, 2, f.sink.Len())
}

func TestSearchAcrossModels(t *testing.T) {
	// Arrange
	f := newFixture(t, nil)
	ctx := context.Background()
	small := make([]float32, 384)
	small[0] = 1
	large := make([]float32, 1536)
	large[1] = 1
	require.NoError(t, f.orchestrator.Ingest(ctx, small, "mock/small", chunk(0)).Err)
	require.NoError(t, f.orchestrator.Ingest(ctx, large, "mock/large", chunk(1)).Err)
	query := make([]float32, 1536)
	query[0] = 0.9
	query[1] = 0.1

	// Act
	result, err := f.orchestrator.Search(ctx, query, "mock/large", 5)

	// Assert
	require.NoError(t, err)
	assert.True(t, f.orchestrator.CanSearch())
	assert.Equal(t, uint64(1), result.Version)
	assert.Equal(t, standardizer.ActionTruncate, result.Query.Action)
	assert.Len(t, result.Query.Vector, target)
	require.Len(t, result.Matches, 2)
	assert.Equal(t, "mock/small", result.Matches[0].ModelKey)
	assert.Equal(t, 0, result.Matches[0].Chunk.ChunkIndex)
	assert.Equal(t, "mock/large", result.Matches[1].ModelKey)
}

func TestSearchErrors(t *testing.T) {
	tests := []struct {
		name     string
		sink     vector.Sink
		query    []float32
		modelKey string
		wantErr  error
	}{
		{name: "wrong length for registered model", query: make([]float32, 768), modelKey: "mock/small", wantErr: apperrors.ErrDimensionMismatch},
		{name: "empty query", query: nil, modelKey: "mock/small", wantErr: apperrors.ErrEmptyVector},
		{name: "sink without search", sink: &MockSink{}, query: make([]float32, 384), modelKey: "mock/small", wantErr: apperrors.ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.sink)

			_, err := f.orchestrator.Search(context.Background(), tt.query, tt.modelKey, 0)

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
