package handlers

import (
	"AegisGuard/internal/driver"
	"AegisGuard/internal/protocol"
	"AegisGuard/internal/scoring"
	"AegisGuard/pkg/config"
	"AegisGuard/pkg/middleware"
	"AegisGuard/pkg/sse"
	"AegisGuard/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// triggerRate caps how fast new episodes can be started from one client. A
// stuck hardware button or a retry loop must not burn through episodes.
const triggerRate = "5-M"

type Handlers struct {
	db      *gorm.DB
	driver  *driver.Driver
	machine *protocol.Machine
	engine  *scoring.Engine
	hub     *websocket.Hub
	sseHub  *sse.Hub
	log     *zap.Logger
}

func NewHandlers(db *gorm.DB, d *driver.Driver, m *protocol.Machine, e *scoring.Engine, hub *websocket.Hub, sseHub *sse.Hub, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{db: db, driver: d, machine: m, engine: e, hub: hub, sseHub: sseHub, log: log}
}

func (h *Handlers) Register(engine *gin.Engine) {
	engine.GET("/health", h.HealthCheck)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/ws", h.handleWebsocket)

	r := engine.Group(config.GlobalConfig.APIPrefix)
	h.registerEmergencyRoutes(r)
	h.registerContactRoutes(r)
	h.registerThreatRoutes(r)
}

func (h *Handlers) registerEmergencyRoutes(r *gin.RouterGroup) {
	emergency := r.Group("/emergency")
	{
		limiter, err := middleware.NewRateLimiter("trigger", triggerRate)
		if err != nil {
			h.log.Fatal("bad trigger rate", zap.Error(err))
		}
		emergency.POST("/trigger", limiter.Handle, h.handleTrigger)

		emergency.POST("/answer", h.handleAnswer)
		emergency.POST("/path", h.handlePath)
		emergency.POST("/navigate", h.handleNavigate)
		emergency.POST("/location", h.handleLocation)
		emergency.POST("/safe", h.handleConfirmSafe)
		emergency.POST("/cancel", h.handleCancel)

		emergency.GET("/state", h.handleState)
		emergency.GET("/history", h.handleHistory)
		emergency.GET("/history/:id/alerts", h.handleAlertLog)
	}
}

func (h *Handlers) registerContactRoutes(r *gin.RouterGroup) {
	contacts := r.Group("/contacts")
	{
		contacts.GET("", h.handleListContacts)
		contacts.POST("", h.handleSaveContact)
		contacts.DELETE("/:id", h.handleDeleteContact)
	}
}

func (h *Handlers) registerThreatRoutes(r *gin.RouterGroup) {
	threat := r.Group("/threat")
	{
		threat.GET("", h.handleThreat)
		threat.GET("/trend", h.handleThreatTrend)
		threat.GET("/stream", h.handleThreatStream)
	}
	r.POST("/incidents", h.handleAddIncident)
}
