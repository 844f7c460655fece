package registry

import (
	"fmt"
	"slices"

	apperrors "embedding-harmonizer/internal/app/errors"
)

// Status is the lifecycle state of a model in the registry.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusNew         Status = "new"
	StatusDeprecated  Status = "deprecated"
	StatusUnavailable Status = "unavailable"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusNew, StatusDeprecated, StatusUnavailable:
		return true
	}
	return false
}

// Provider tags the embedding backend that serves a model.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderOllama Provider = "ollama"
	ProviderMock   Provider = "mock"
)

// ModelDescriptor describes one embedding model the registry knows about.
type ModelDescriptor struct {
	ModelKey               string   `json:"model_key" yaml:"model_key" jsonschema:"required"`
	DisplayName            string   `json:"display_name" yaml:"display_name"`
	Provider               Provider `json:"provider" yaml:"provider" jsonschema:"required"`
	NativeDimension        *int     `json:"native_dimension,omitempty" yaml:"native_dimension,omitempty" jsonschema:"minimum=1"`
	ConfigurableDimensions bool     `json:"configurable_dimensions" yaml:"configurable_dimensions"`
	SupportedDimensions    []int    `json:"supported_dimensions,omitempty" yaml:"supported_dimensions,omitempty"`
	Status                 Status   `json:"status" yaml:"status" jsonschema:"enum=available,enum=new,enum=deprecated,enum=unavailable"`
}

// Dim returns a pointer to n, for building descriptors.
func Dim(n int) *int {
	return &n
}

// Dimension returns the native dimension and whether it is known.
func (d ModelDescriptor) Dimension() (int, bool) {
	if d.NativeDimension == nil {
		return 0, false
	}
	return *d.NativeDimension, true
}

// EmittableDimensions lists every vector length this model is believed to emit.
func (d ModelDescriptor) EmittableDimensions() []int {
	native, ok := d.Dimension()
	if !ok {
		return nil
	}
	if len(d.SupportedDimensions) == 0 {
		return []int{native}
	}
	return slices.Clone(d.SupportedDimensions)
}

// Accepts reports whether a vector of length n is consistent with the descriptor.
func (d ModelDescriptor) Accepts(n int) bool {
	return slices.Contains(d.EmittableDimensions(), n)
}

// Validate checks the descriptor invariants.
func (d ModelDescriptor) Validate() error {
	if d.ModelKey == "" {
		return apperrors.RequiredField("model_key")
	}
	if !d.Status.Valid() {
		return apperrors.InvalidField("status", fmt.Sprintf("%q for model %s", d.Status, d.ModelKey))
	}

	native, hasNative := d.Dimension()
	if d.Status == StatusUnavailable && hasNative {
		return apperrors.InvalidField("native_dimension", "must be unset for unavailable model "+d.ModelKey)
	}
	if d.Status != StatusUnavailable && !hasNative {
		return apperrors.InvalidField("native_dimension", "must be set for "+string(d.Status)+" model "+d.ModelKey)
	}
	if hasNative && native <= 0 {
		return apperrors.InvalidField("native_dimension", fmt.Sprintf("%d for model %s", native, d.ModelKey))
	}

	if len(d.SupportedDimensions) > 0 {
		if !d.ConfigurableDimensions && len(d.SupportedDimensions) > 1 {
			return apperrors.InvalidField("supported_dimensions", "only configurable models may list several sizes: "+d.ModelKey)
		}
		if !hasNative || !slices.Contains(d.SupportedDimensions, native) {
			return apperrors.InvalidField("supported_dimensions", "must contain native_dimension for model "+d.ModelKey)
		}
		for _, n := range d.SupportedDimensions {
			if n <= 0 {
				return apperrors.InvalidField("supported_dimensions", fmt.Sprintf("%d for model %s", n, d.ModelKey))
			}
		}
	}
	return nil
}

// normalized returns a deep copy with supported dimensions sorted and deduplicated.
func (d ModelDescriptor) normalized() ModelDescriptor {
	out := d
	if d.NativeDimension != nil {
		out.NativeDimension = Dim(*d.NativeDimension)
	}
	if len(d.SupportedDimensions) > 0 {
		dims := slices.Clone(d.SupportedDimensions)
		slices.Sort(dims)
		out.SupportedDimensions = slices.Compact(dims)
	} else {
		out.SupportedDimensions = nil
	}
	return out
}

// clone returns a deep copy so callers can never reach snapshot internals.
func (d ModelDescriptor) clone() ModelDescriptor {
	out := d
	if d.NativeDimension != nil {
		out.NativeDimension = Dim(*d.NativeDimension)
	}
	out.SupportedDimensions = slices.Clone(d.SupportedDimensions)
	return out
}

// Equal compares two descriptors field by field.
func (d ModelDescriptor) Equal(o ModelDescriptor) bool {
	dn, dok := d.Dimension()
	on, ook := o.Dimension()
	return d.ModelKey == o.ModelKey &&
		d.DisplayName == o.DisplayName &&
		d.Provider == o.Provider &&
		dok == ook && dn == on &&
		d.ConfigurableDimensions == o.ConfigurableDimensions &&
		slices.Equal(d.SupportedDimensions, o.SupportedDimensions) &&
		d.Status == o.Status
}
