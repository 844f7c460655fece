package services

import (
	"context"
	"time"

	"embedding-harmonizer/internal/api/v1/dto"
	"embedding-harmonizer/internal/app/discovery"
)

// DiscoveryRunner is the part of discovery.Service the API drives
type DiscoveryRunner interface {
	RunCycle(ctx context.Context) (*discovery.ChangeReport, error)
	Status() discovery.Status
}

// Schedule describes the periodic trigger, when there is one
type Schedule interface {
	Spec() string
	Next() time.Time
}

type discoveryService struct {
	runner   DiscoveryRunner
	schedule Schedule
}

// NewDiscoveryService creates a DiscoveryService. schedule may be nil when
// discovery only runs on demand.
func NewDiscoveryService(runner DiscoveryRunner, schedule Schedule) DiscoveryService {
	return &discoveryService{runner: runner, schedule: schedule}
}

func (s *discoveryService) Status(ctx context.Context) (*dto.DiscoveryStatusResponse, error) {
	resp := &dto.DiscoveryStatusResponse{Status: s.runner.Status()}
	if s.schedule != nil {
		resp.Schedule = s.schedule.Spec()
		if next := s.schedule.Next(); !next.IsZero() {
			resp.NextRun = &next
		}
	}
	return resp, nil
}

// Run executes one cycle. The cycle is not tied to the HTTP request: a
// client hanging up does not abort a publish; the cycle timeout bounds it.
func (s *discoveryService) Run(ctx context.Context) (*dto.DiscoveryRunResponse, error) {
	report, err := s.runner.RunCycle(context.WithoutCancel(ctx))
	if err != nil {
		return nil, err
	}

	outcome := discovery.OutcomeUnchanged
	if report.Published {
		outcome = discovery.OutcomePublished
	}
	return &dto.DiscoveryRunResponse{Outcome: outcome, Report: report}, nil
}
