package vector

import (
	"context"
	"strings"

	"embedding-harmonizer/internal/app/embedding/similarity"
	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/logging"
)

// Sink backend names.
const (
	BackendMemory   = "memory"
	BackendPgVector = "pgvector"
	BackendQdrant   = "qdrant"
)

// MetricCosine is the only metric the database-backed sinks search with.
const MetricCosine = "cosine"

// Config selects and configures a sink.
type Config struct {
	Backend     string
	PostgresDSN string
	Table       string
	// Metric names the search metric; empty means cosine.
	Metric      string
	Qdrant      QdrantConfig
}

// NewSink opens the configured sink for vectors of the given dimension.
func NewSink(ctx context.Context, cfg Config, dimension int, logger logging.Logger) (Sink, error) {
	metric := strings.ToLower(strings.TrimSpace(cfg.Metric))
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	switch backend {
	case "", BackendMemory:
		calc, err := similarity.ForMetric(metric)
		if err != nil {
			return nil, err
		}
		return NewMemorySink(dimension).WithCalculator(calc), nil
	}

	if metric != "" && metric != MetricCosine {
		return nil, apperrors.Wrapf(apperrors.ErrUnsupported, "%s sink searches by cosine only, not %s", backend, metric)
	}
	switch backend {
	case BackendPgVector:
		return OpenPgVectorSink(ctx, cfg.PostgresDSN, cfg.Table, dimension, logger)
	case BackendQdrant:
		return DialQdrant(ctx, cfg.Qdrant, dimension, logger)
	}
	return nil, apperrors.Wrapf(apperrors.ErrUnsupported, "sink backend %q", cfg.Backend)
}
