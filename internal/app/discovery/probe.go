package discovery

import (
	"context"
	"errors"
	"time"

	"github.com/sourcegraph/conc/pool"

	"embedding-harmonizer/internal/app/embedding/provider"
	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/registry"
)

// probeAll resolves the shape of every catalog model. A declared dimension
// wins, then the dimension prev already knows; only models with neither are
// probed, concurrently, at most maxConcurrent at a time, each bounded by
// timeout. A failed probe is recorded on its result and never fails the
// batch. The returned error is non-nil only when ctx itself ended.
func (s *Service) probeAll(ctx context.Context, prev *registry.Snapshot, models []provider.CatalogModel) ([]probed, error) {
	results := make([]probed, 0, len(models))
	p := pool.NewWithResults[probed]().WithMaxGoroutines(s.cfg.MaxConcurrentProbes)
	for _, m := range models {
		if m.DeclaredDimension != nil {
			results = append(results, probed{model: m, dimension: registry.Dim(*m.DeclaredDimension)})
			continue
		}
		if before, ok := prev.Lookup(m.ModelKey); ok && before.NativeDimension != nil {
			results = append(results, probed{model: m, dimension: registry.Dim(*before.NativeDimension)})
			continue
		}
		p.Go(func() probed {
			return s.probe(ctx, m)
		})
	}
	results = append(results, p.Wait()...)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) probe(ctx context.Context, m provider.CatalogModel) probed {
	if err := ctx.Err(); err != nil {
		return probed{model: m, failure: &ProbeFailure{ModelKey: m.ModelKey, Reason: ReasonFailure, Error: err.Error()}}
	}

	probeCtx, cancel := context.WithTimeout(ctx, s.cfg.ProbeTimeout)
	defer cancel()

	start := time.Now()
	vec, err := s.catalog.ProbeEmbed(probeCtx, m.ModelKey, s.cfg.SampleText)
	if err == nil && len(vec) == 0 {
		err = apperrors.New("probe returned an empty vector")
	}
	if err != nil {
		failure := classifyProbeError(ctx, probeCtx, m.ModelKey, err, s.cfg.ProbeTimeout)
		s.metrics.RecordProbe(string(m.Provider), failure.Reason)
		s.logger.Warnw("Probe failed, marking model unavailable",
			"model_key", m.ModelKey, "reason", failure.Reason, "error", err)
		return probed{model: m, failure: failure}
	}

	s.metrics.RecordProbe(string(m.Provider), "ok")
	s.logger.Debugw("Probed model",
		"model_key", m.ModelKey, "dimension", len(vec), "duration", time.Since(start))
	return probed{model: m, dimension: registry.Dim(len(vec))}
}

// classifyProbeError separates a probe's own deadline from other failures.
// A probe cut short by the cycle context is a failure, not a timeout; the
// cycle aborts in that case anyway.
func classifyProbeError(cycleCtx, probeCtx context.Context, key string, err error, timeout time.Duration) *ProbeFailure {
	if cycleCtx.Err() == nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(probeCtx.Err(), context.DeadlineExceeded)) {
		wrapped := apperrors.Mark(apperrors.ErrProbeTimeout, apperrors.Timeout("probe "+key, timeout.String()))
		return &ProbeFailure{ModelKey: key, Reason: ReasonTimeout, Error: wrapped.Error()}
	}
	wrapped := apperrors.Mark(apperrors.ErrProbeFailure, err)
	return &ProbeFailure{ModelKey: key, Reason: ReasonFailure, Error: wrapped.Error()}
}
