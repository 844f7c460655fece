package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"embedding-harmonizer/docs"
	"embedding-harmonizer/internal/api/middleware"
	v1routes "embedding-harmonizer/internal/api/v1/routes"
	"embedding-harmonizer/internal/app/logging"
)

// Config represents API server configuration
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Environment  string
}

// Default server timeouts. WriteTimeout covers a manual discovery cycle.
const (
	DefaultReadTimeout  = 15 * time.Second
	DefaultWriteTimeout = 10 * time.Minute
	DefaultIdleTimeout  = 60 * time.Second
)

// HealthFunc reports whether the service can answer; a non-nil error turns
// /health into 503.
type HealthFunc func(ctx context.Context) (map[string]interface{}, error)

// Server represents the API server
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	logger     logging.Logger
	errCh      chan error
}

// NewServer creates a new API server. gatherer backs /metrics and may be nil.
func NewServer(
	config Config,
	container *v1routes.ServiceContainer,
	gatherer prometheus.Gatherer,
	health HealthFunc,
	logger logging.Logger,
) *Server {
	logger = logging.OrNop(logger)

	// Set Gin mode based on environment
	switch config.Environment {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogging(logger))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	router.GET("/health", healthHandler(health))

	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	{
		v1 := api.Group("/v1")
		v1routes.RegisterRoutes(v1, container)
	}

	// Swagger documentation routes
	docs.SwaggerInfo.BasePath = "/api/v1"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message":       "Embedding Harmonizer API",
			"version":       docs.SwaggerInfo.Version,
			"documentation": "/swagger/index.html",
			"endpoints": gin.H{
				"health":        "/health",
				"metrics":       "/metrics",
				"models":        "/api/v1/models",
				"compatibility": "/api/v1/compatibility",
				"discovery":     "/api/v1/discovery/status",
				"standardize":   "/api/v1/standardize",
				"vectors":       "/api/v1/vectors",
				"search":        "/api/v1/search",
				"backups":       "/api/v1/backups",
			},
		})
	})

	if config.ReadTimeout <= 0 {
		config.ReadTimeout = DefaultReadTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultWriteTimeout
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = DefaultIdleTimeout
	}

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		config:     config,
		router:     router,
		httpServer: httpServer,
		logger:     logger,
		errCh:      make(chan error, 1),
	}
}

func healthHandler(health HealthFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{"timestamp": time.Now().Unix()}
		status := http.StatusOK
		body["status"] = "healthy"

		if health != nil {
			details, err := health(c.Request.Context())
			for k, v := range details {
				body[k] = v
			}
			if err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "unhealthy"
				body["error"] = err.Error()
			}
		}
		c.JSON(status, body)
	}
}

// Start starts the API server in the background. Listen failures are
// reported on Errors.
func (s *Server) Start() error {
	s.logger.Infow("Starting API server",
		"address", s.httpServer.Addr,
		"environment", s.config.Environment,
	)

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorw("API server stopped", "error", err)
			s.errCh <- err
		}
	}()

	s.logger.Infow("API server started successfully", "address", ln.Addr().String())
	return nil
}

// Errors delivers a fatal serve error.
func (s *Server) Errors() <-chan error {
	return s.errCh
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Shutting down API server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Errorw("Server forced to shutdown", "error", err)
		return err
	}

	s.logger.Infow("API server shutdown complete")
	return nil
}

// Router returns the Gin router (useful for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
