package routes

import (
	"github.com/gin-gonic/gin"

	"embedding-harmonizer/internal/api/v1/handlers"
	"embedding-harmonizer/internal/api/v1/services"
)

// RegisterRoutes registers all v1 API routes
func RegisterRoutes(router *gin.RouterGroup, container *ServiceContainer) {
	// Registry routes
	modelHandler := handlers.NewModelHandler(container.RegistryService)
	router.GET("/models", modelHandler.List)
	router.GET("/models/*key", modelHandler.Get)
	router.GET("/compatibility", modelHandler.Compatibility)

	// Discovery routes
	if container.DiscoveryService != nil {
		discoveryHandler := handlers.NewDiscoveryHandler(container.DiscoveryService)
		discovery := router.Group("/discovery")
		{
			discovery.GET("/status", discoveryHandler.Status)
			discovery.POST("/run", discoveryHandler.Run)
		}
	}

	// Standardize routes
	if container.StandardizeService != nil {
		standardizeHandler := handlers.NewStandardizeHandler(container.StandardizeService)
		router.POST("/standardize", standardizeHandler.Standardize)
	}

	// Vector routes
	if container.VectorService != nil {
		vectorHandler := handlers.NewVectorHandler(container.VectorService)
		router.POST("/vectors", vectorHandler.Store)
		router.POST("/search", vectorHandler.Search)
	}

	// Backup routes
	if container.BackupService != nil {
		backupHandler := handlers.NewBackupHandler(container.BackupService)
		backups := router.Group("/backups")
		{
			backups.GET("", backupHandler.List)
			backups.POST("/restore", backupHandler.Restore)
		}
	}
}

// ServiceContainer holds all services needed by handlers
type ServiceContainer struct {
	RegistryService    services.RegistryService
	DiscoveryService   services.DiscoveryService
	StandardizeService services.StandardizeService
	BackupService      services.BackupService
	// VectorService is nil when the server runs without a vector sink.
	VectorService      services.VectorService
}
