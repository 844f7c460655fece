package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"embedding-harmonizer/internal/api/middleware"
	"embedding-harmonizer/internal/api/v1/dto"
	"embedding-harmonizer/internal/api/v1/services"
)

// ModelHandler handles registry endpoints
type ModelHandler struct {
	service services.RegistryService
}

// NewModelHandler creates a new model handler
func NewModelHandler(service services.RegistryService) *ModelHandler {
	return &ModelHandler{
		service: service,
	}
}

// List handles GET /api/v1/models
//
// @Summary List registered embedding models
// @Description Lists the models of the active registry snapshot with their native dimension and the standardization action they need
// @Tags models
// @Produce json
// @Param provider query string false "Filter by provider" example(openai)
// @Param status query string false "Filter by status" Enums(available, new, deprecated, unavailable)
// @Success 200 {object} dto.ModelListResponse
// @Failure 422 {object} errors.APIError "Invalid filter"
// @Router /models [get]
func (h *ModelHandler) List(c *gin.Context) {
	var query dto.ListModelsQuery
	if err := middleware.ValidateQuery(c, &query); err != nil {
		middleware.HandleError(c, err)
		return
	}

	models, err := h.service.ListModels(c.Request.Context(), query)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, models)
}

// Get handles GET /api/v1/models/{key}
//
// @Summary Get one model
// @Description Model keys contain a slash, e.g. /api/v1/models/openai/text-embedding-3-small
// @Tags models
// @Produce json
// @Param key path string true "Model key" example(openai/text-embedding-3-small)
// @Success 200 {object} dto.ModelResponse
// @Failure 404 {object} errors.APIError "Model not registered"
// @Router /models/{key} [get]
func (h *ModelHandler) Get(c *gin.Context) {
	model, err := h.service.GetModel(c.Request.Context(), c.Param("key"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model)
}

// Compatibility handles GET /api/v1/compatibility
//
// @Summary Compatibility report
// @Description Counts of models by status, provider and native dimension in the active snapshot
// @Tags models
// @Produce json
// @Success 200 {object} registry.CompatibilityReport
// @Router /compatibility [get]
func (h *ModelHandler) Compatibility(c *gin.Context) {
	report, err := h.service.Compatibility(c.Request.Context())
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
