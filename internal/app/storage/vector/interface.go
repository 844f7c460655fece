// Package vector holds the sinks that store standardized embeddings. Every
// sink is created for one target dimension and accepts only vectors of that
// length, so similarity search runs uniformly across models.
package vector

import (
	"context"
	"time"

	apperrors "embedding-harmonizer/internal/app/errors"
)

// Sink stores standardized vectors
type Sink interface {
	// Store writes one record and returns its id.
	Store(ctx context.Context, rec Record) (string, error)
	// Dimension is the vector length the sink accepts.
	Dimension() int
	Close() error
}

// Searcher finds the records nearest to a standardized query vector.
type Searcher interface {
	Nearest(ctx context.Context, query []float32, limit int) ([]Match, error)
}

// ChunkMetadata describes the text a vector was computed from.
type ChunkMetadata struct {
	SourceID   string            `json:"source_id"`
	ChunkIndex int               `json:"chunk_index"`
	Text       string            `json:"text,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Record is one standardized vector plus the facts needed to interpret it.
type Record struct {
	// ID is optional; sinks generate a UUID when empty.
	ID              string
	Vector          []float32
	ModelKey        string
	NativeDimension int
	Chunk           ChunkMetadata
	CreatedAt       time.Time
}

// Match is a search hit.
type Match struct {
	ID       string        `json:"id"`
	ModelKey string        `json:"model_key"`
	Score    float32       `json:"score"`
	Chunk    ChunkMetadata `json:"chunk"`
}

// DefaultSearchLimit applies when Nearest is called with limit <= 0.
const DefaultSearchLimit = 10

func validateRecord(rec Record, dimension int) error {
	if rec.ModelKey == "" {
		return apperrors.RequiredField("model_key")
	}
	if len(rec.Vector) == 0 {
		return apperrors.ErrEmptyVector
	}
	if len(rec.Vector) != dimension {
		return &apperrors.DimensionMismatchError{ModelKey: rec.ModelKey, Got: len(rec.Vector), Expected: []int{dimension}}
	}
	if rec.NativeDimension <= 0 {
		return apperrors.InvalidField("native_dimension", "must be positive")
	}
	return nil
}

func validateQuery(query []float32, dimension int) error {
	if len(query) != dimension {
		return &apperrors.DimensionMismatchError{ModelKey: "query", Got: len(query), Expected: []int{dimension}}
	}
	return nil
}
