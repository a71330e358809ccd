package handlers

import (
	"time"

	"AegisGuard/internal/models"
	"AegisGuard/internal/protocol"
	"AegisGuard/pkg/response"

	"github.com/gin-gonic/gin"
)

// stateView is the API projection of a protocol state. The session carries
// its own JSON shape; the extras depend on the phase.
type stateView struct {
	State       string                   `json:"state"`
	Session     *models.EmergencySession `json:"session,omitempty"`
	Question    *models.ProtocolQuestion `json:"question,omitempty"`
	Deadline    *time.Time               `json:"deadline,omitempty"`
	Path        string                   `json:"path,omitempty"`
	Places      []models.SafePlace       `json:"places,omitempty"`
	Destination *models.SafePlace        `json:"destination,omitempty"`
}

func viewOf(state protocol.State) stateView {
	view := stateView{State: state.Name(), Session: state.Session()}
	switch s := state.(type) {
	case protocol.Questioning:
		q := s.Question
		dl := s.Deadline
		view.Question = &q
		view.Deadline = &dl
	case protocol.PathSelection:
		q := s.Question
		dl := s.Deadline
		view.Question = &q
		view.Deadline = &dl
	case protocol.Active:
		view.Path = s.Path.String()
		view.Places = s.Places
		view.Destination = s.Destination
	}
	return view
}

func (h *Handlers) handleTrigger(c *gin.Context) {
	state, err := h.driver.Trigger(c.Request.Context())
	if err != nil {
		// protocol.ErrEpisodeActive carries a 409 code; anything else is a 500.
		response.Error(c, err)
		return
	}
	response.Success(c, "emergency triggered", viewOf(state))
}

func (h *Handlers) handleAnswer(c *gin.Context) {
	var req struct {
		Yes bool `json:"yes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}
	state, err := h.driver.Answer(c.Request.Context(), req.Yes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "answer recorded", viewOf(state))
}

func (h *Handlers) handlePath(c *gin.Context) {
	var req struct {
		Path string `json:"path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}
	var path models.EmergencyPath
	switch req.Path {
	case models.PathThreatNearby.String():
		path = models.PathThreatNearby
	case models.PathEscapeToSafety.String():
		path = models.PathEscapeToSafety
	default:
		response.Fail(c, "unknown path", nil)
		return
	}
	state, err := h.driver.ChoosePath(c.Request.Context(), path)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "path chosen", viewOf(state))
}

func (h *Handlers) handleNavigate(c *gin.Context) {
	var req struct {
		Place models.SafePlace `json:"place" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}
	state, err := h.driver.Navigate(c.Request.Context(), req.Place)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "navigation started", viewOf(state))
}

func (h *Handlers) handleLocation(c *gin.Context) {
	var req struct {
		Latitude  float64 `json:"latitude" binding:"required"`
		Longitude float64 `json:"longitude" binding:"required"`
		Accuracy  float64 `json:"accuracy"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}
	loc := models.Location{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Accuracy:  req.Accuracy,
		Timestamp: time.Now(),
	}
	state, err := h.driver.ReportLocation(c.Request.Context(), loc)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "location recorded", viewOf(state))
}

func (h *Handlers) handleConfirmSafe(c *gin.Context) {
	state, err := h.driver.ConfirmSafe(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "confirmed safe", viewOf(state))
}

func (h *Handlers) handleCancel(c *gin.Context) {
	state, err := h.driver.Cancel(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "emergency cancelled", viewOf(state))
}

func (h *Handlers) handleState(c *gin.Context) {
	response.Success(c, "ok", viewOf(h.machine.Current()))
}

func (h *Handlers) handleHistory(c *gin.Context) {
	limit := 50
	rows, err := models.GetSessionHistory(h.db, limit)
	if err != nil {
		response.Fail(c, "loading history failed", nil)
		return
	}
	response.Success(c, "ok", rows)
}

func (h *Handlers) handleAlertLog(c *gin.Context) {
	rows, err := models.GetAlertLog(h.db, c.Param("id"))
	if err != nil {
		response.Fail(c, "loading alert log failed", nil)
		return
	}
	response.Success(c, "ok", rows)
}
