package discovery

import (
	"slices"
	"time"

	"github.com/samber/lo"

	"embedding-harmonizer/internal/app/embedding/provider"
	"embedding-harmonizer/internal/app/registry"
)

// Probe failure reasons.
const (
	ReasonTimeout = "timeout"
	ReasonFailure = "failure"
)

// DimensionChange records a model whose native dimension differs from the
// previous snapshot.
type DimensionChange struct {
	ModelKey string `json:"model_key"`
	Previous *int   `json:"previous,omitempty"`
	Current  *int   `json:"current,omitempty"`
}

// ProbeFailure records a model whose shape could not be determined.
type ProbeFailure struct {
	ModelKey string `json:"model_key"`
	Reason   string `json:"reason"`
	Error    string `json:"error"`
}

// ChangeReport summarizes what a discovery cycle found. UnreachableProviders
// could not be listed; their models were kept as they were.
type ChangeReport struct {
	FromVersion          uint64            `json:"from_version"`
	ToVersion            uint64            `json:"to_version"`
	Published            bool              `json:"published"`
	CatalogModels        int               `json:"catalog_models"`
	NewModels            []string          `json:"new_models"`
	DeprecatedModels     []string          `json:"deprecated_models"`
	DimensionChanges     []DimensionChange `json:"dimension_changes"`
	UnavailableModels    []string          `json:"unavailable_models"`
	RemovedModels        []string          `json:"removed_models,omitempty"`
	ProbeFailures        []ProbeFailure    `json:"probe_failures,omitempty"`
	UnreachableProviders []string          `json:"unreachable_providers,omitempty"`
	StartedAt            time.Time         `json:"started_at"`
	FinishedAt           time.Time         `json:"finished_at"`
}

// HasChanges reports whether the cycle found anything worth publishing.
func (r *ChangeReport) HasChanges() bool {
	return len(r.NewModels) > 0 ||
		len(r.DeprecatedModels) > 0 ||
		len(r.DimensionChanges) > 0 ||
		len(r.UnavailableModels) > 0 ||
		len(r.RemovedModels) > 0
}

// probed is the resolved shape of one catalog model. dimension is nil when
// the model has no declared size and its probe failed.
type probed struct {
	model     provider.CatalogModel
	dimension *int
	failure   *ProbeFailure
}

// diff merges the probe results into the previous snapshot's model set.
//
// Status rules: offered and absent before => new; offered and present
// before => available; probe failed => unavailable; present before but no
// longer offered => deprecated, keeping its dimensions so stored vectors
// still validate. A model that disappears while unavailable has nothing to
// validate against and is dropped. Models of an unreachable provider are
// carried forward unchanged.
func diff(prev *registry.Snapshot, results []probed, unreachable []registry.Provider) ([]registry.ModelDescriptor, ChangeReport) {
	report := ChangeReport{
		FromVersion:   prev.Version(),
		CatalogModels: len(results),
	}
	for _, p := range unreachable {
		report.UnreachableProviders = append(report.UnreachableProviders, string(p))
	}
	models := make([]registry.ModelDescriptor, 0, len(results)+prev.Len())

	offered := lo.SliceToMap(results, func(r probed) (string, bool) {
		return r.model.ModelKey, true
	})
	for _, r := range results {
		before, existed := prev.Lookup(r.model.ModelKey)

		d := registry.ModelDescriptor{
			ModelKey:    r.model.ModelKey,
			DisplayName: r.model.DisplayName,
			Provider:    r.model.Provider,
		}
		switch {
		case r.dimension == nil:
			d.Status = registry.StatusUnavailable
		case !existed:
			d.Status = registry.StatusNew
		default:
			d.Status = registry.StatusAvailable
		}
		if r.dimension != nil {
			d.NativeDimension = registry.Dim(*r.dimension)
			if r.model.Configurable {
				d.ConfigurableDimensions = true
				d.SupportedDimensions = slices.Clone(r.model.SupportedDimensions)
			}
		}
		models = append(models, d)

		if !existed {
			report.NewModels = append(report.NewModels, d.ModelKey)
		}
		if r.failure != nil {
			report.UnavailableModels = append(report.UnavailableModels, d.ModelKey)
			report.ProbeFailures = append(report.ProbeFailures, *r.failure)
		}
		if existed && r.dimension != nil && !sameDimension(before.NativeDimension, d.NativeDimension) {
			report.DimensionChanges = append(report.DimensionChanges, DimensionChange{
				ModelKey: d.ModelKey,
				Previous: before.NativeDimension,
				Current:  registry.Dim(*r.dimension),
			})
		}
	}

	for _, before := range prev.All() {
		if offered[before.ModelKey] {
			continue
		}
		switch {
		case slices.Contains(unreachable, before.Provider):
			models = append(models, before)
		case before.Status == registry.StatusDeprecated:
			models = append(models, before)
		case before.NativeDimension == nil:
			report.RemovedModels = append(report.RemovedModels, before.ModelKey)
		default:
			before.Status = registry.StatusDeprecated
			models = append(models, before)
			report.DeprecatedModels = append(report.DeprecatedModels, before.ModelKey)
		}
	}

	slices.Sort(report.NewModels)
	slices.Sort(report.DeprecatedModels)
	slices.Sort(report.UnavailableModels)
	slices.Sort(report.RemovedModels)
	return models, report
}

func sameDimension(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
