package dto

import (
	"embedding-harmonizer/internal/app/registry"
)

// ModelResponse represents a registered model in API responses
type ModelResponse struct {
	ModelKey               string `json:"model_key" example:"openai/text-embedding-3-small"`
	DisplayName            string `json:"display_name" example:"text-embedding-3-small"`
	Provider               string `json:"provider" example:"openai"`
	NativeDimension        *int   `json:"native_dimension,omitempty" example:"1536"`
	ConfigurableDimensions bool   `json:"configurable_dimensions"`
	SupportedDimensions    []int  `json:"supported_dimensions,omitempty"`
	Status                 string `json:"status" example:"available"`
	Action                 string `json:"action,omitempty" example:"truncate"`
}

// NewModelResponse converts a descriptor. action is what standardizing a
// native-length vector to the target dimension would do.
func NewModelResponse(d registry.ModelDescriptor, targetDimension int) ModelResponse {
	resp := ModelResponse{
		ModelKey:               d.ModelKey,
		DisplayName:            d.DisplayName,
		Provider:               string(d.Provider),
		NativeDimension:        d.NativeDimension,
		ConfigurableDimensions: d.ConfigurableDimensions,
		SupportedDimensions:    d.SupportedDimensions,
		Status:                 string(d.Status),
	}
	if native, ok := d.Dimension(); ok && targetDimension > 0 {
		switch {
		case native < targetDimension:
			resp.Action = "pad"
		case native > targetDimension:
			resp.Action = "truncate"
		default:
			resp.Action = "passthrough"
		}
	}
	return resp
}

// ListModelsQuery filters the model list
type ListModelsQuery struct {
	Provider string `form:"provider"`
	Status   string `form:"status" binding:"omitempty,oneof=available new deprecated unavailable"`
}

// ModelListResponse is the model list with the snapshot it came from
type ModelListResponse struct {
	Version         uint64          `json:"version"`
	TargetDimension int             `json:"target_dimension"`
	Total           int             `json:"total"`
	Models          []ModelResponse `json:"models"`
}
