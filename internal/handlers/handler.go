package handlers

import (
	"eta_monitor/internal/logger"
	"eta_monitor/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	origins  []string // allowed browser origins for /ws
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// WithAllowedOrigins restricts which browser origins may open /ws.
func (h *Handler) WithAllowedOrigins(origins []string) *Handler {
	h.origins = append([]string(nil), origins...)
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// snapshot stream, same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerTelemetryRoutes(api)
		h.registerSettingsRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerTelemetryRoutes(api *gin.RouterGroup) {
	api.GET("/telemetry", h.getTelemetry)
	api.GET("/history", h.getHistory)
	// ?expand=<path>&collapse=<path>, both repeatable
	api.GET("/tree", h.getTree)
	api.POST("/sync", h.syncNow)
}

func (h *Handler) registerSettingsRoutes(api *gin.RouterGroup) {
	api.GET("/settings", h.getSettings)
	// Body example: {"refresh_interval":30,"mock_mode":false,"base_url":"http://192.168.0.25:8080"}
	api.PATCH("/settings", h.patchSettings)
	api.POST("/reset", h.reset)
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
		logs.GET("/recent", h.getRecentLogs)
	}
}
