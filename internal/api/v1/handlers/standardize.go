package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"embedding-harmonizer/internal/api/middleware"
	"embedding-harmonizer/internal/api/v1/dto"
	"embedding-harmonizer/internal/api/v1/services"
)

// StandardizeHandler handles vector standardization
type StandardizeHandler struct {
	service services.StandardizeService
}

// NewStandardizeHandler creates a new standardize handler
func NewStandardizeHandler(service services.StandardizeService) *StandardizeHandler {
	return &StandardizeHandler{
		service: service,
	}
}

// Standardize handles POST /api/v1/standardize
//
// @Summary Standardize a vector
// @Description Validates the vector against the model's registered dimension and pads or truncates it to the index dimension
// @Tags standardize
// @Accept json
// @Produce json
// @Param request body dto.StandardizeRequest true "Vector and model key"
// @Success 200 {object} dto.StandardizeResponse
// @Failure 422 {object} errors.APIError "Empty vector or dimension mismatch"
// @Router /standardize [post]
func (h *StandardizeHandler) Standardize(c *gin.Context) {
	var req dto.StandardizeRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	resp, err := h.service.Standardize(c.Request.Context(), req)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
