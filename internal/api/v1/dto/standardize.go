package dto

// StandardizeRequest is a vector to map onto the index dimension
type StandardizeRequest struct {
	ModelKey string    `json:"model_key" binding:"required" example:"ollama/all-minilm"`
	Vector   []float32 `json:"vector" binding:"required,min=1"`
}

// StandardizeResponse carries the standardized vector
type StandardizeResponse struct {
	ModelKey        string    `json:"model_key"`
	Vector          []float32 `json:"vector"`
	Action          string    `json:"action" example:"pad"`
	Validation      string    `json:"validation" example:"passed"`
	InputDimension  int       `json:"input_dimension" example:"384"`
	TargetDimension int       `json:"target_dimension" example:"1024"`
	PaddingStrategy string    `json:"padding_strategy" example:"zeros"`
	RegistryVersion uint64    `json:"registry_version"`
}
