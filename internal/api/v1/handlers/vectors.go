package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"embedding-harmonizer/internal/api/middleware"
	"embedding-harmonizer/internal/api/v1/dto"
	"embedding-harmonizer/internal/api/v1/services"
)

// VectorHandler handles indexing and searching standardized vectors
type VectorHandler struct {
	service services.VectorService
}

// NewVectorHandler creates a new vector handler
func NewVectorHandler(service services.VectorService) *VectorHandler {
	return &VectorHandler{
		service: service,
	}
}

// Store handles POST /api/v1/vectors
//
// @Summary Index a precomputed embedding
// @Description Standardizes the vector to the index dimension and stores it with its chunk metadata
// @Tags vectors
// @Accept json
// @Produce json
// @Param request body dto.StoreVectorRequest true "Vector, model key and chunk"
// @Success 201 {object} dto.StoreVectorResponse
// @Failure 422 {object} errors.APIError "Empty vector or dimension mismatch"
// @Router /vectors [post]
func (h *VectorHandler) Store(c *gin.Context) {
	var req dto.StoreVectorRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	resp, err := h.service.Store(c.Request.Context(), req)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Search handles POST /api/v1/search
//
// @Summary Search the index with a vector from any model
// @Description Standardizes the query like a stored vector and returns the nearest records across all models
// @Tags vectors
// @Accept json
// @Produce json
// @Param request body dto.SearchRequest true "Query vector and model key"
// @Success 200 {object} dto.SearchResponse
// @Failure 400 {object} errors.APIError "Sink cannot search"
// @Failure 422 {object} errors.APIError "Empty vector or dimension mismatch"
// @Router /search [post]
func (h *VectorHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	resp, err := h.service.Search(c.Request.Context(), req)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
