// internal/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"print-service/internal/config"
	"print-service/internal/database"
	"print-service/internal/handler"
	"print-service/internal/middleware"
	"print-service/internal/service"
	"print-service/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config       *config.Config
	logger       *zap.Logger
	db           *database.DB
	printService *service.PrintService
	wsHandler    *handler.WebSocketHandler
}

// NewRouter creates a new router instance. The WebSocket handler is injected
// because it doubles as the job event sink and is wired up before routing.
func NewRouter(
	config *config.Config,
	logger *zap.Logger,
	db *database.DB,
	printService *service.PrintService,
	wsHandler *handler.WebSocketHandler,
) *Router {
	return &Router{
		config:       config,
		logger:       logger,
		db:           db,
		printService: printService,
		wsHandler:    wsHandler,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	// Set Gin mode
	if r.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Create Gin engine
	router := gin.New()

	// Add middleware
	r.addMiddleware(router)

	// Add routes
	r.addRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	// Recovery middleware
	router.Use(middleware.RecoveryMiddleware(r.logger))

	// Request ID middleware
	router.Use(middleware.RequestIDMiddleware())

	// Logging middleware
	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	// CORS middleware
	router.Use(middleware.CORSMiddleware(&r.config.Security))

	r.logger.Info("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	// Create handlers
	healthHandler := handler.NewHealthHandler(r.db, r.config, r.logger)
	cloudprntHandler := handler.NewCloudPRNTHandler(r.printService, r.logger)
	managementHandler := handler.NewManagementHandler(r.printService, r.logger)

	// Health check routes
	r.addHealthRoutes(router, healthHandler)

	// Printer-facing CloudPRNT routes. No auth and no rate limiting, the
	// printers poll continuously.
	cloudprntHandler.RegisterRoutes(router)

	// Management API, rate limited per client IP
	apiV1 := router.Group("/api/v1")
	apiV1.Use(middleware.RateLimitMiddleware(&r.config.Security))
	managementHandler.RegisterRoutes(apiV1)

	// WebSocket routes
	r.addWebSocketRoutes(router, r.wsHandler)

	// Documentation routes
	r.addDocumentationRoutes(router)

	r.logger.Info("All routes configured successfully")
}

// addHealthRoutes sets up health check routes
func (r *Router) addHealthRoutes(router *gin.Engine, handler *handler.HealthHandler) {
	health := router.Group("")
	{
		health.GET("/health", handler.HealthCheck)
		health.GET("/ready", handler.ReadinessCheck)
		health.GET("/live", handler.LivenessCheck)
	}
}

// addWebSocketRoutes sets up WebSocket routes
func (r *Router) addWebSocketRoutes(router *gin.Engine, handler *handler.WebSocketHandler) {
	ws := router.Group("/ws")
	{
		ws.GET("/events", handler.HandleEventConnection)
		ws.GET("/printers/:printer_id", handler.HandlePrinterConnection)
	}
}

// addDocumentationRoutes sets up documentation routes
func (r *Router) addDocumentationRoutes(router *gin.Engine) {
	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	// Swagger redirect for convenience
	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}
