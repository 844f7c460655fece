package discovery

import "time"

// State is the discovery state machine position.
//
//	Idle -> Probing -> Diffing -> Publishing -> Idle
//	Probing | Diffing | Publishing -> Failed -> Idle
type State string

const (
	StateIdle       State = "idle"
	StateProbing    State = "probing"
	StateDiffing    State = "diffing"
	StatePublishing State = "publishing"
	StateFailed     State = "failed"
)

// Cycle outcomes, also used as metric labels.
const (
	OutcomePublished = "published"
	OutcomeUnchanged = "unchanged"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// Status is a point-in-time view of the service for status endpoints.
type Status struct {
	State          State         `json:"state"`
	Cycles         int           `json:"cycles"`
	LastStartedAt  time.Time     `json:"last_started_at,omitempty"`
	LastFinishedAt time.Time     `json:"last_finished_at,omitempty"`
	LastOutcome    string        `json:"last_outcome,omitempty"`
	LastError      string        `json:"last_error,omitempty"`
	LastReport     *ChangeReport `json:"last_report,omitempty"`
	ActiveVersion  uint64        `json:"active_version"`
	ProbeTimeout   time.Duration `json:"probe_timeout"`
	CycleTimeout   time.Duration `json:"cycle_timeout"`
	MaxConcurrency int           `json:"max_concurrent_probes"`
}
