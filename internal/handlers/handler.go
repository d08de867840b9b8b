package handlers

import (
	"airguard/internal/logger"
	"airguard/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// WebSocket status stream (HTTP upgrade) — same port
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
		h.registerAutomationRoutes(api)
		h.registerAlertRoutes(api)
		h.registerTankRoutes(api)
		h.registerContactRoutes(api)
	}
}

func (h *Handler) registerTelemetryRoutes(api *gin.RouterGroup) {
	telemetry := api.Group("/telemetry")
	{
		// Body example: {"device_id":"dev-1","zone":"zone-a","aqi":620,"window":[...]}
		telemetry.POST("/events", h.ingestSensorEvent)
		telemetry.POST("/water-level", h.ingestWaterLevel)
	}
}

func (h *Handler) registerAutomationRoutes(api *gin.RouterGroup) {
	automation := api.Group("/automation")
	{
		automation.GET("/status", h.getAutomationStatus)
		automation.GET("/logs", h.getAutomationLogs)
		automation.POST("/trigger", h.triggerAction)
	}
}

func (h *Handler) registerAlertRoutes(api *gin.RouterGroup) {
	alerts := api.Group("/alerts")
	{
		alerts.GET("", h.listAlerts)
		alerts.GET("/:id", h.getAlert)
		alerts.POST("/:id/acknowledge", h.acknowledgeAlert)
		alerts.POST("/:id/resolve", h.resolveAlert)
	}
}

func (h *Handler) registerTankRoutes(api *gin.RouterGroup) {
	tanks := api.Group("/tanks")
	{
		tanks.GET("", h.listTanks)
		tanks.POST("", h.registerTank)
		tanks.GET("/:id", h.getTank)
		tanks.GET("/:id/history", h.getTankHistory)
	}
	api.GET("/devices/:id/sprinkler-eligibility", h.checkSprinklerEligibility)
}

func (h *Handler) registerContactRoutes(api *gin.RouterGroup) {
	contacts := api.Group("/contacts")
	{
		contacts.GET("", h.listContacts)
		contacts.GET("/:zone", h.getContactByZone)
		contacts.PUT("", h.upsertContact)
		contacts.DELETE("/:zone", h.deleteContact)
	}
}
