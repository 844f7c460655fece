package vector

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "embedding-harmonizer/internal/app/errors"
)

func newMockPgVectorSink(t *testing.T, dimension int) (*PgVectorSink, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sink, err := NewPgVectorSink(db, "", dimension, nil)
	require.NoError(t, err)
	return sink, mock
}

func TestNewPgVectorSinkValidation(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tests := []struct {
		name      string
		table     string
		dimension int
		wantErr   bool
	}{
		{name: "default table", table: "", dimension: 1024},
		{name: "custom table", table: "chunks_v2", dimension: 1024},
		{name: "injection attempt", table: "x; DROP TABLE y", dimension: 1024, wantErr: true},
		{name: "zero dimension", table: "chunks", dimension: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink, err := NewPgVectorSink(db, tt.table, tt.dimension, nil)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, sink)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.dimension, sink.Dimension())
		})
	}
}

func TestPgVectorSinkMigrate(t *testing.T) {
	sink, mock := newMockPgVectorSink(t, 1024)

	mock.ExpectExec(regexp.QuoteMeta("CREATE EXTENSION IF NOT EXISTS vector")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("vector(1024) NOT NULL")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX IF NOT EXISTS harmonized_embeddings_model_key_idx")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, sink.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgVectorSinkStore(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		rec       Record
		setupMock func(mock sqlmock.Sqlmock)
		wantErr   error
	}{
		{
			name: "successful store",
			rec:  Record{ID: "3f0c2a4e-5b4d-4e59-9a43-2d3c1f6b7a10", Vector: []float32{0.1, 0.2, 0.3}, ModelKey: "openai/text-embedding-3-small", NativeDimension: 1536},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO harmonized_embeddings")).
					WithArgs("3f0c2a4e-5b4d-4e59-9a43-2d3c1f6b7a10", "openai/text-embedding-3-small", 1536,
						"", 0, "", "null", sqlmock.AnyArg(), sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
		},
		{
			name:      "dimension mismatch never reaches the database",
			rec:       Record{Vector: []float32{0.1, 0.2}, ModelKey: "mock/a", NativeDimension: 2},
			setupMock: func(mock sqlmock.Sqlmock) {},
			wantErr:   apperrors.ErrDimensionMismatch,
		},
		{
			name: "database error",
			rec:  Record{Vector: []float32{0.1, 0.2, 0.3}, ModelKey: "mock/a", NativeDimension: 3},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO harmonized_embeddings")).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: errors.New("connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			sink, mock := newMockPgVectorSink(t, 3)
			tt.setupMock(mock)

			// Act
			id, err := sink.Store(ctx, tt.rec)

			// Assert
			switch {
			case tt.wantErr == nil:
				require.NoError(t, err)
				assert.Equal(t, tt.rec.ID, id)
			case errors.Is(tt.wantErr, apperrors.ErrDimensionMismatch):
				assert.ErrorIs(t, err, apperrors.ErrDimensionMismatch)
			default:
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr.Error())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPgVectorSinkStoreGeneratesID(t *testing.T) {
	sink, mock := newMockPgVectorSink(t, 2)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO harmonized_embeddings")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	id, err := sink.Store(context.Background(), Record{
		Vector:          []float32{1, 2},
		ModelKey:        "mock/a",
		NativeDimension: 2,
		Chunk:           ChunkMetadata{SourceID: "doc", Attributes: map[string]string{"lang": "en"}},
	})

	require.NoError(t, err)
	assert.Len(t, id, 36)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgVectorSinkNearest(t *testing.T) {
	// Arrange
	sink, mock := newMockPgVectorSink(t, 3)
	rows := sqlmock.NewRows([]string{"id", "model_key", "source_id", "chunk_index", "chunk_text", "score"}).
		AddRow("a", "openai/text-embedding-3-small", "doc-1", 0, "first", 0.98).
		AddRow("b", "ollama/all-minilm", "doc-2", 4, nil, 0.71)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY embedding <=> $1")).
		WithArgs(sqlmock.AnyArg(), 5).
		WillReturnRows(rows)

	// Act
	matches, err := sink.Nearest(context.Background(), []float32{1, 0, 0}, 5)

	// Assert
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "openai/text-embedding-3-small", matches[0].ModelKey)
	assert.InDelta(t, 0.98, matches[0].Score, 1e-6)
	assert.Equal(t, "first", matches[0].Chunk.Text)
	assert.Equal(t, 4, matches[1].Chunk.ChunkIndex)
	assert.Empty(t, matches[1].Chunk.Text)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgVectorSinkGet(t *testing.T) {
	sink, mock := newMockPgVectorSink(t, 3)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT embedding FROM harmonized_embeddings WHERE id = $1")).
		WithArgs("a").
		WillReturnRows(sqlmock.NewRows([]string{"embedding"}).AddRow("[0.5,0.25,1]"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT embedding FROM harmonized_embeddings WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	vec, err := sink.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25, 1}, vec)

	_, err = sink.Get(context.Background(), "missing")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}
