package dto

import (
	"embedding-harmonizer/internal/app/storage/vector"
)

// MaxSearchLimit caps the number of matches a search returns.
const MaxSearchLimit = 100

// StoreVectorRequest is a precomputed embedding to standardize and index
type StoreVectorRequest struct {
	ModelKey   string            `json:"model_key" binding:"required" example:"ollama/all-minilm"`
	Vector     []float32         `json:"vector" binding:"required,min=1"`
	SourceID   string            `json:"source_id" binding:"required" example:"doc-42"`
	ChunkIndex int               `json:"chunk_index" binding:"min=0"`
	Text       string            `json:"text,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// StoreVectorResponse identifies the stored record
type StoreVectorResponse struct {
	ID              string `json:"id"`
	ModelKey        string `json:"model_key"`
	NativeDimension int    `json:"native_dimension" example:"384"`
	Action          string `json:"action" example:"pad"`
	Validation      string `json:"validation" example:"passed"`
}

// SearchRequest is a query vector from any model
type SearchRequest struct {
	ModelKey string    `json:"model_key" binding:"required" example:"openai/text-embedding-3-small"`
	Vector   []float32 `json:"vector" binding:"required,min=1"`
	Limit    int       `json:"limit,omitempty" binding:"omitempty,min=1,max=100" example:"10"`
}

// SearchResponse lists the stored records nearest to the standardized query
type SearchResponse struct {
	ModelKey        string         `json:"model_key"`
	Action          string         `json:"action" example:"truncate"`
	Validation      string         `json:"validation" example:"passed"`
	PaddingStrategy string         `json:"padding_strategy" example:"zeros"`
	TargetDimension int            `json:"target_dimension" example:"1024"`
	RegistryVersion uint64         `json:"registry_version"`
	Matches         []vector.Match `json:"matches"`
}
