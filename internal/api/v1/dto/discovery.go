package dto

import (
	"time"

	"embedding-harmonizer/internal/app/discovery"
)

// DiscoveryStatusResponse is the discovery service state
type DiscoveryStatusResponse struct {
	discovery.Status
	Schedule string     `json:"schedule,omitempty" example:"@daily"`
	NextRun  *time.Time `json:"next_run,omitempty"`
}

// DiscoveryRunResponse is the outcome of a manually triggered cycle
type DiscoveryRunResponse struct {
	Outcome string                  `json:"outcome" example:"published"`
	Report  *discovery.ChangeReport `json:"report"`
}
