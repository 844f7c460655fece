package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineCalculation(t *testing.T) {
	calculator := Cosine{}

	testCases := []struct {
		name     string
		a        []float32
		b        []float32
		expected float32
		epsilon  float32
	}{
		{
			name:     "identical vectors",
			a:        []float32{1, 0, 0},
			b:        []float32{1, 0, 0},
			expected: 1.0,
			epsilon:  0.001,
		},
		{
			name:     "orthogonal vectors",
			a:        []float32{1, 0, 0},
			b:        []float32{0, 1, 0},
			expected: 0.0,
			epsilon:  0.001,
		},
		{
			name:     "opposite vectors",
			a:        []float32{1, 0, 0},
			b:        []float32{-1, 0, 0},
			expected: -1.0,
			epsilon:  0.001,
		},
		{
			name:     "45 degree vectors",
			a:        []float32{1, 1, 0},
			b:        []float32{1, 0, 0},
			expected: 0.707, // cos(45°) ≈ 0.707
			epsilon:  0.01,
		},
		{
			name:     "zero vectors",
			a:        []float32{0, 0, 0},
			b:        []float32{0, 0, 0},
			expected: 0,
		},
		{
			name:     "empty vectors",
			a:        []float32{},
			b:        []float32{},
			expected: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			similarity, err := calculator.Calculate(tc.a, tc.b)

			// Assert
			assert.NoError(t, err)
			assert.InDelta(t, tc.expected, similarity, float64(tc.epsilon))
		})
	}
}

func TestCalculatorsRejectDifferentLengths(t *testing.T) {
	for _, c := range []Calculator{Cosine{}, Euclidean{}} {
		_, err := c.Calculate([]float32{1, 0, 0}, []float32{1, 0})
		assert.Error(t, err)
	}
}

// Zero padding appends orthogonal components, so cosine similarity between
// two padded vectors equals the similarity of the originals.
func TestCosineIsStableUnderZeroPadding(t *testing.T) {
	a := []float32{0.3, -0.2, 0.9}
	b := []float32{0.1, 0.4, 0.7}

	original, err := Cosine{}.Calculate(a, b)
	require.NoError(t, err)

	pad := func(v []float32) []float32 {
		out := make([]float32, 16)
		copy(out, v)
		return out
	}
	padded, err := Cosine{}.Calculate(pad(a), pad(b))
	require.NoError(t, err)

	assert.InDelta(t, original, padded, 1e-6)
}

func TestEuclideanCalculator(t *testing.T) {
	calculator := Euclidean{}

	testCases := []struct {
		name     string
		a        []float32
		b        []float32
		expected float32
	}{
		{name: "identical vectors", a: []float32{1, 0, 0}, b: []float32{1, 0, 0}, expected: 0},
		{name: "unit distance", a: []float32{0, 0, 0}, b: []float32{1, 0, 0}, expected: 1},
		{name: "3-4-5 triangle", a: []float32{0, 0, 0}, b: []float32{3, 4, 0}, expected: 5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			distance, err := calculator.Calculate(tc.a, tc.b)

			assert.NoError(t, err)
			assert.InDelta(t, tc.expected, distance, 0.001)
		})
	}
}

func TestForMetric(t *testing.T) {
	c, err := ForMetric("")
	require.NoError(t, err)
	assert.True(t, c.HigherIsCloser())

	c, err = ForMetric("l2")
	require.NoError(t, err)
	assert.False(t, c.HigherIsCloser())

	_, err = ForMetric("manhattan")
	assert.Error(t, err)
}
