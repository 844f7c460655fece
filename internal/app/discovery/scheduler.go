package discovery

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/robfig/cron"

	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/logging"
)

// ScheduleSpec turns a configured discovery interval into a cron spec.
// Accepted forms: "hourly", "daily", "weekly", a Go duration such as "6h",
// or any cron descriptor or expression understood by robfig/cron ("@every
// 30m", "0 0 3 * * *"). An empty interval or "manual" disables scheduling.
func ScheduleSpec(interval string) (string, bool, error) {
	interval = strings.TrimSpace(interval)
	switch strings.ToLower(interval) {
	case "", "manual", "off":
		return "", false, nil
	case "hourly", "daily", "weekly":
		return "@" + strings.ToLower(interval), true, nil
	}
	if d, err := time.ParseDuration(interval); err == nil {
		if d < time.Minute {
			return "", false, apperrors.OutOfRange("discovery.interval", "1m", "any")
		}
		return "@every " + d.String(), true, nil
	}
	if _, err := cron.Parse(interval); err != nil {
		return "", false, apperrors.InvalidField("discovery.interval", err.Error())
	}
	return interval, true, nil
}

// Scheduler triggers discovery cycles on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	service *Service
	spec    string
	logger  logging.Logger
}

// NewScheduler creates a scheduler for interval; see ScheduleSpec. It
// returns nil and no error when the interval disables scheduling.
func NewScheduler(service *Service, interval string, logger logging.Logger) (*Scheduler, error) {
	spec, enabled, err := ScheduleSpec(interval)
	if err != nil || !enabled {
		return nil, err
	}

	s := &Scheduler{
		cron:    cron.New(),
		service: service,
		spec:    spec,
		logger:  logging.OrNop(logger),
	}
	if err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, apperrors.Wrap(err, "schedule discovery")
	}
	return s, nil
}

// Spec returns the cron spec in use.
func (s *Scheduler) Spec() string {
	return s.spec
}

// Next returns the next scheduled run, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	for _, e := range s.cron.Entries() {
		return e.Next
	}
	return time.Time{}
}

// Start begins scheduling in the background.
func (s *Scheduler) Start() {
	s.logger.Infow("Discovery scheduler started", "schedule", s.spec)
	s.cron.Start()
}

// Stop stops scheduling. A running cycle is not interrupted.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Infow("Discovery scheduler stopped")
}

func (s *Scheduler) run() {
	if _, err := s.service.RunCycle(context.Background()); err != nil {
		if errors.Is(err, apperrors.ErrCycleInProgress) {
			s.logger.Infow("Skipping scheduled discovery, a cycle is already running")
			return
		}
		s.logger.Errorw("Scheduled discovery failed", "error", err)
	}
}
