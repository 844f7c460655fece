// Package discovery keeps the model registry in sync with what the
// embedding providers actually offer.
package discovery

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"embedding-harmonizer/internal/app/embedding/provider"
	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/logging"
	"embedding-harmonizer/internal/app/metrics"
	"embedding-harmonizer/internal/app/registry"
)

// Defaults applied by NewService to zero config fields.
const (
	DefaultProbeTimeout        = 15 * time.Second
	DefaultCycleTimeout        = 5 * time.Minute
	DefaultMaxConcurrentProbes = 4
	DefaultSampleText          = "dimension probe"
)

// Catalog lists the models the providers offer and embeds a sample with
// any of them.
type Catalog interface {
	ListModels(ctx context.Context) ([]provider.CatalogModel, error)
	ProbeEmbed(ctx context.Context, modelKey string, text string) ([]float32, error)
}

// Persistence is the durable side of publishing.
type Persistence interface {
	Backup(ctx context.Context, snap *registry.Snapshot) (string, error)
	Publish(ctx context.Context, snap *registry.Snapshot) error
	Restore(ctx context.Context, backupID string) (*registry.Snapshot, error)
	Name() string
}

// Registry is the live registry discovery writes to.
type Registry interface {
	Current() *registry.Snapshot
	Replace(next *registry.Snapshot) error
}

// Config tunes a discovery cycle.
type Config struct {
	ProbeTimeout        time.Duration
	CycleTimeout        time.Duration
	MaxConcurrentProbes int
	SampleText          string
}

func (c Config) withDefaults() Config {
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = DefaultProbeTimeout
	}
	if c.CycleTimeout <= 0 {
		c.CycleTimeout = DefaultCycleTimeout
	}
	if c.MaxConcurrentProbes <= 0 {
		c.MaxConcurrentProbes = DefaultMaxConcurrentProbes
	}
	if c.SampleText == "" {
		c.SampleText = DefaultSampleText
	}
	return c
}

// Service runs discovery cycles. It is the only writer of the registry, and
// at most one cycle or restore runs at a time; a concurrent request is
// rejected with ErrCycleInProgress rather than queued.
type Service struct {
	catalog     Catalog
	registry    Registry
	persistence Persistence
	cfg         Config
	logger      logging.Logger
	metrics     *metrics.Metrics
	now         func() time.Time

	running atomic.Bool

	mu          sync.RWMutex
	state       State
	status      Status
	transitions []func(from, to State)
}

// NewService creates a discovery service.
func NewService(catalog Catalog, reg Registry, persistence Persistence, cfg Config, logger logging.Logger, m *metrics.Metrics) *Service {
	cfg = cfg.withDefaults()
	return &Service{
		catalog:     catalog,
		registry:    reg,
		persistence: persistence,
		cfg:         cfg,
		logger:      logging.OrNop(logger),
		metrics:     m,
		now:         time.Now,
		state:       StateIdle,
	}
}

// OnTransition registers fn to observe state changes. It must be called
// before the first cycle.
func (s *Service) OnTransition(fn func(from, to State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitions = append(s.transitions, fn)
}

// Status returns the current state and the last cycle's outcome.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.status
	st.State = s.state
	st.ActiveVersion = s.registry.Current().Version()
	st.ProbeTimeout = s.cfg.ProbeTimeout
	st.CycleTimeout = s.cfg.CycleTimeout
	st.MaxConcurrency = s.cfg.MaxConcurrentProbes
	return st
}

func (s *Service) transition(to State) {
	s.mu.Lock()
	from := s.state
	s.state = to
	fns := s.transitions
	s.mu.Unlock()

	if from != to {
		s.logger.Debugw("Discovery state changed", "from", from, "to", to)
		for _, fn := range fns {
			fn(from, to)
		}
	}
}

// RunCycle runs one discovery cycle: list and probe the catalog, diff the
// result against the active snapshot, and publish a new snapshot when
// anything changed. Any failure before the registry swap leaves the live
// registry exactly as it was.
func (s *Service) RunCycle(ctx context.Context) (*ChangeReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.metrics.RecordCycle(OutcomeRejected, 0)
		return nil, apperrors.ErrCycleInProgress
	}
	defer s.running.Store(false)

	started := s.now()
	s.beginRun(started)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.CycleTimeout)
	defer cancel()

	report, err := s.cycle(ctx)
	if report != nil {
		report.StartedAt = started
		report.FinishedAt = s.now()
	}

	outcome := OutcomeUnchanged
	switch {
	case err != nil:
		outcome = OutcomeFailed
		s.transition(StateFailed)
		s.logger.Errorw("Discovery cycle failed", "error", err, "duration", time.Since(started))
	case report.Published:
		outcome = OutcomePublished
	}
	s.metrics.RecordCycle(outcome, time.Since(started))
	s.endRun(outcome, report, err)
	s.transition(StateIdle)

	if err != nil {
		return nil, err
	}
	s.logger.Infow("Discovery cycle finished",
		"outcome", outcome,
		"from_version", report.FromVersion,
		"to_version", report.ToVersion,
		"new", len(report.NewModels),
		"deprecated", len(report.DeprecatedModels),
		"unavailable", len(report.UnavailableModels),
		"dimension_changes", len(report.DimensionChanges))
	return report, nil
}

func (s *Service) cycle(ctx context.Context) (*ChangeReport, error) {
	prev := s.registry.Current()

	s.transition(StateProbing)
	models, err := s.catalog.ListModels(ctx)
	var (
		partial     *provider.PartialListingError
		unreachable []registry.Provider
	)
	if errors.As(err, &partial) {
		s.logger.Warnw("Keeping models of unreachable providers unchanged",
			"providers", partial.Providers, "error", partial.Err)
		unreachable = partial.Providers
		err = nil
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, apperrors.Wrap(ctxErr, "discovery cancelled while listing models")
		}
		return nil, apperrors.Mark(apperrors.ErrCatalogUnreachable, err)
	}
	if len(models) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrCatalogUnreachable, "catalog returned no models")
	}

	results, err := s.probeAll(ctx, prev, models)
	if err != nil {
		return nil, apperrors.Wrap(err, "discovery cancelled while probing")
	}

	s.transition(StateDiffing)
	descriptors, report := diff(prev, results, unreachable)
	report.ToVersion = prev.Version()

	next, err := registry.NewSnapshot(prev.Version()+1, s.nextGeneratedAt(prev), descriptors)
	if err != nil {
		return nil, apperrors.Wrap(err, "build snapshot")
	}
	if next.SameModels(prev) {
		return &report, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, "discovery cancelled before publishing")
	}

	s.transition(StatePublishing)
	if err := s.publish(ctx, prev, next); err != nil {
		return nil, err
	}
	report.ToVersion = next.Version()
	report.Published = true
	return &report, nil
}

// Restore republishes a backup, or the built-in defaults for "defaults", as
// a new version. It shares the single-flight rule with RunCycle.
func (s *Service) Restore(ctx context.Context, backupID string) (*registry.Snapshot, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, apperrors.ErrCycleInProgress
	}
	defer s.running.Store(false)

	restored, err := s.persistence.Restore(ctx, backupID)
	if err != nil {
		return nil, err
	}

	prev := s.registry.Current()
	next, err := registry.NewSnapshot(prev.Version()+1, s.nextGeneratedAt(prev), restored.All())
	if err != nil {
		return nil, apperrors.Wrap(err, "rebuild restored snapshot")
	}

	s.transition(StatePublishing)
	defer s.transition(StateIdle)
	if err := s.publish(ctx, prev, next); err != nil {
		return nil, err
	}
	s.logger.Infow("Registry restored", "backup_id", backupID, "version", next.Version())
	return next, nil
}

// publish backs up the active snapshot, makes next durable, and only then
// swaps it into the live registry.
func (s *Service) publish(ctx context.Context, prev, next *registry.Snapshot) error {
	backend := s.persistence.Name()

	backupID, err := s.persistence.Backup(ctx, prev)
	if err != nil {
		s.metrics.RecordPublish(backend, "failed")
		return apperrors.Mark(apperrors.ErrPersistenceFailure, apperrors.Wrap(err, "backup active snapshot"))
	}
	if err := s.persistence.Publish(ctx, next); err != nil {
		s.metrics.RecordPublish(backend, "failed")
		return apperrors.Mark(apperrors.ErrPersistenceFailure, apperrors.Wrap(err, "publish snapshot"))
	}
	if err := s.registry.Replace(next); err != nil {
		s.metrics.RecordPublish(backend, "failed")
		return apperrors.Wrap(err, "swap registry")
	}

	s.metrics.RecordPublish(backend, "ok")
	s.metrics.ObserveSnapshot(next)
	s.logger.Infow("Published registry snapshot",
		"version", next.Version(), "models", next.Len(), "backup_id", backupID, "backend", backend)
	return nil
}

// nextGeneratedAt keeps generated_at, and with it the backup id, strictly
// increasing even when the clock does not move.
func (s *Service) nextGeneratedAt(prev *registry.Snapshot) time.Time {
	now := s.now().UTC()
	if !now.After(prev.GeneratedAt()) {
		now = prev.GeneratedAt().Add(time.Nanosecond)
	}
	return now
}

func (s *Service) beginRun(started time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Cycles++
	s.status.LastStartedAt = started
}

func (s *Service) endRun(outcome string, report *ChangeReport, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.LastFinishedAt = s.now()
	s.status.LastOutcome = outcome
	s.status.LastReport = report
	s.status.LastError = ""
	if err != nil {
		s.status.LastError = err.Error()
	}
}
