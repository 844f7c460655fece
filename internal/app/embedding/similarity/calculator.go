package similarity

import (
	"math"

	apperrors "embedding-harmonizer/internal/app/errors"
)

// Calculator scores two vectors of equal length
type Calculator interface {
	Calculate(a, b []float32) (float32, error)
	// HigherIsCloser reports the ordering of scores.
	HigherIsCloser() bool
}

// Cosine computes cosine similarity. Standardized vectors are not
// re-normalized, so cosine is the comparable score across models.
type Cosine struct{}

// Calculate computes cosine similarity between two vectors
func (Cosine) Calculate(a, b []float32) (float32, error) {
	if err := sameLength(a, b); err != nil {
		return 0, err
	}
	if len(a) == 0 {
		return 0, nil
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	// Handle zero vectors
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB))), nil
}

// HigherIsCloser is true for cosine similarity
func (Cosine) HigherIsCloser() bool { return true }

// Euclidean computes L2 distance
type Euclidean struct{}

// Calculate computes Euclidean distance between two vectors
func (Euclidean) Calculate(a, b []float32) (float32, error) {
	if err := sameLength(a, b); err != nil {
		return 0, err
	}
	var sum float64
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return float32(math.Sqrt(sum)), nil
}

// HigherIsCloser is false for a distance
func (Euclidean) HigherIsCloser() bool { return false }

// ForMetric returns the calculator for "cosine" or "euclidean".
func ForMetric(name string) (Calculator, error) {
	switch name {
	case "", "cosine":
		return Cosine{}, nil
	case "euclidean", "l2":
		return Euclidean{}, nil
	}
	return nil, apperrors.InvalidField("metric", name)
}

func sameLength(a, b []float32) error {
	if len(a) != len(b) {
		return apperrors.Newf("vectors must have same dimension (%d != %d)", len(a), len(b))
	}
	return nil
}
