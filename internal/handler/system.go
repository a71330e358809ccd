package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthCheck reports liveness plus database reachability.
func (h *Handlers) HealthCheck(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database connection failed"})
		return
	}
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database ping failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"state":   h.machine.Current().Name(),
		"clients": h.hub.ClientCount(),
	})
}

func (h *Handlers) handleWebsocket(c *gin.Context) {
	if err := h.hub.Serve(c.Writer, c.Request); err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
	}
}

// PumpStateFeed forwards every machine state change to the websocket hub.
// Runs until the subscription channel is closed (process shutdown).
func (h *Handlers) PumpStateFeed() {
	for state := range h.machine.Subscribe() {
		h.hub.Broadcast("protocol_state", viewOf(state))
	}
}
