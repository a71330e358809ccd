package handlers

import (
	"time"

	"AegisGuard/internal/models"
	"AegisGuard/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

func (h *Handlers) handleThreat(c *gin.Context) {
	force := cast.ToBool(c.Query("force"))
	var loc *models.Location
	if lat, lng := c.Query("lat"), c.Query("lng"); lat != "" && lng != "" {
		loc = &models.Location{
			Latitude:  cast.ToFloat64(lat),
			Longitude: cast.ToFloat64(lng),
			Timestamp: time.Now(),
		}
	}
	result := h.engine.Analyze(c.Request.Context(), loc, force)
	response.Success(c, "ok", result)
}

func (h *Handlers) handleThreatTrend(c *gin.Context) {
	response.Success(c, "ok", h.engine.Trend())
}

// handleThreatStream serves the ambient score as server-sent events.
func (h *Handlers) handleThreatStream(c *gin.Context) {
	h.sseHub.Serve(c)
}

func (h *Handlers) handleAddIncident(c *gin.Context) {
	var req struct {
		Category   string    `json:"category" binding:"required"`
		Severity   float64   `json:"severity"`
		Latitude   float64   `json:"latitude" binding:"required"`
		Longitude  float64   `json:"longitude" binding:"required"`
		OccurredAt time.Time `json:"occurredAt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}
	if req.Severity < 0 || req.Severity > 1 {
		response.Fail(c, "severity must be within [0,1]", nil)
		return
	}
	if req.OccurredAt.IsZero() {
		req.OccurredAt = time.Now()
	}
	rec := models.IncidentRecord{
		Category:   req.Category,
		Severity:   req.Severity,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		OccurredAt: req.OccurredAt,
		ReportedAt: time.Now(),
	}
	if err := models.AddIncident(h.db, &rec); err != nil {
		response.Fail(c, "saving incident failed", nil)
		return
	}
	response.Success(c, "incident recorded", rec)
}
