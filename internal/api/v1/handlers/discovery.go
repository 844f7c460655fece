package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"embedding-harmonizer/internal/api/middleware"
	"embedding-harmonizer/internal/api/v1/services"
)

// DiscoveryHandler handles discovery endpoints
type DiscoveryHandler struct {
	service services.DiscoveryService
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(service services.DiscoveryService) *DiscoveryHandler {
	return &DiscoveryHandler{
		service: service,
	}
}

// Status handles GET /api/v1/discovery/status
//
// @Summary Discovery status
// @Description State machine position, last cycle outcome and schedule
// @Tags discovery
// @Produce json
// @Success 200 {object} dto.DiscoveryStatusResponse
// @Router /discovery/status [get]
func (h *DiscoveryHandler) Status(c *gin.Context) {
	status, err := h.service.Status(c.Request.Context())
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// Run handles POST /api/v1/discovery/run
//
// @Summary Run a discovery cycle now
// @Description Lists provider catalogs, probes models without a declared dimension and publishes a new snapshot when anything changed
// @Tags discovery
// @Produce json
// @Success 200 {object} dto.DiscoveryRunResponse
// @Failure 409 {object} errors.APIError "A cycle or restore is already running"
// @Failure 503 {object} errors.APIError "No catalog reachable or persistence failed"
// @Router /discovery/run [post]
func (h *DiscoveryHandler) Run(c *gin.Context) {
	result, err := h.service.Run(c.Request.Context())
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
