package registry

import (
	"github.com/samber/lo"
)

// CompatibilityReport summarizes which models are usable and how their
// dimensions are distributed.
type CompatibilityReport struct {
	Version      uint64         `json:"version"`
	Total        int            `json:"total"`
	Available    int            `json:"available"`
	Deprecated   int            `json:"deprecated"`
	New          int            `json:"new"`
	Unavailable  int            `json:"unavailable"`
	ByProvider   map[string]int `json:"by_provider"`
	ByDimension  map[int]int    `json:"by_dimension"`
	Configurable []string       `json:"configurable"`
}

// BuildReport computes the compatibility report for a snapshot.
func BuildReport(s *Snapshot) CompatibilityReport {
	models := s.All()

	countStatus := func(st Status) int {
		return lo.CountBy(models, func(m ModelDescriptor) bool { return m.Status == st })
	}

	withDim := lo.Filter(models, func(m ModelDescriptor, _ int) bool {
		_, ok := m.Dimension()
		return ok
	})

	return CompatibilityReport{
		Version:     s.Version(),
		Total:       len(models),
		Available:   countStatus(StatusAvailable),
		Deprecated:  countStatus(StatusDeprecated),
		New:         countStatus(StatusNew),
		Unavailable: countStatus(StatusUnavailable),
		ByProvider: lo.CountValuesBy(models, func(m ModelDescriptor) string {
			return string(m.Provider)
		}),
		ByDimension: lo.CountValuesBy(withDim, func(m ModelDescriptor) int {
			return *m.NativeDimension
		}),
		Configurable: lo.FilterMap(models, func(m ModelDescriptor, _ int) (string, bool) {
			return m.ModelKey, m.ConfigurableDimensions
		}),
	}
}
