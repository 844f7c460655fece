package vector

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"embedding-harmonizer/internal/app/embedding/similarity"
	apperrors "embedding-harmonizer/internal/app/errors"
)

// MemorySink keeps records in memory. It backs tests and the CLI dry run.
type MemorySink struct {
	dimension  int
	calculator similarity.Calculator

	mu      sync.RWMutex
	records map[string]Record
	order   []string
	failErr error
}

// NewMemorySink creates an in-memory sink for vectors of the given length
func NewMemorySink(dimension int) *MemorySink {
	return &MemorySink{
		dimension:  dimension,
		calculator: similarity.Cosine{},
		records:    make(map[string]Record),
	}
}

// WithCalculator switches the search metric.
func (s *MemorySink) WithCalculator(c similarity.Calculator) *MemorySink {
	s.calculator = c
	return s
}

// FailWith makes every subsequent Store return err; nil clears it.
func (s *MemorySink) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

// Dimension returns the accepted vector length
func (s *MemorySink) Dimension() int { return s.dimension }

// Store validates and keeps a copy of rec
func (s *MemorySink) Store(ctx context.Context, rec Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateRecord(rec, s.dimension); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return "", s.failErr
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.Vector = slices.Clone(rec.Vector)
	if _, exists := s.records[rec.ID]; !exists {
		s.order = append(s.order, rec.ID)
	}
	s.records[rec.ID] = rec
	return rec.ID, nil
}

// Get returns a stored record
func (s *MemorySink) Get(id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, apperrors.NotFound("record", id)
	}
	rec.Vector = slices.Clone(rec.Vector)
	return rec, nil
}

// Records returns every stored record in insertion order
func (s *MemorySink) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}

// Len returns the number of stored records
func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Nearest scores every record against query
func (s *MemorySink) Nearest(ctx context.Context, query []float32, limit int) ([]Match, error) {
	if err := validateQuery(query, s.dimension); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	s.mu.RLock()
	matches := make([]Match, 0, len(s.records))
	for _, id := range s.order {
		rec := s.records[id]
		score, err := s.calculator.Calculate(query, rec.Vector)
		if err != nil {
			s.mu.RUnlock()
			return nil, err
		}
		matches = append(matches, Match{ID: rec.ID, ModelKey: rec.ModelKey, Score: score, Chunk: rec.Chunk})
	}
	s.mu.RUnlock()

	higher := s.calculator.HigherIsCloser()
	slices.SortStableFunc(matches, func(a, b Match) int {
		switch {
		case a.Score == b.Score:
			return 0
		case (a.Score > b.Score) == higher:
			return -1
		}
		return 1
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, ctx.Err()
}

// Close is a no-op
func (s *MemorySink) Close() error { return nil }
