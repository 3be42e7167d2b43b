package handlers

import (
	"net/http"

	"garage_door/internal/logger"
	"garage_door/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires the HTTP layer to the monitor.
type Handler struct {
	services *service.Service
	authHash []byte       // bcrypt hash of the shared key
	metrics  http.Handler // optional /metrics exporter
	log      *logger.Logger
}

// NewHandler constructs the HTTP handler. metrics and log may be nil.
func NewHandler(services *service.Service, authHash []byte, metrics http.Handler, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{services: services, authHash: authHash, metrics: metrics, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// unauthenticated probes
	router.GET("/health", h.health)
	router.GET("/garage/health", h.garageHealth)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}

	h.registerGarageRoutes(router)

	router.GET("/ws", h.authMiddleware, h.wsConnect)

	return router
}

func (h *Handler) registerGarageRoutes(r *gin.Engine) {
	r.GET("/status", h.authMiddleware, h.getStatus)

	garage := r.Group("/garage", h.authMiddleware)
	{
		// trigger, open, close, get_state, set_settings..., firebase:<id>
		garage.GET("/:action", h.command)
	}
}
