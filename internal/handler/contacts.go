package handlers

import (
	"AegisGuard/internal/models"
	"AegisGuard/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handlers) handleListContacts(c *gin.Context) {
	contacts, err := models.GetContacts(h.db)
	if err != nil {
		response.Fail(c, "loading contacts failed", nil)
		return
	}
	response.Success(c, "ok", contacts)
}

func (h *Handlers) handleSaveContact(c *gin.Context) {
	var contact models.EmergencyContact
	if err := c.ShouldBindJSON(&contact); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}
	if contact.Name == "" || contact.Phone == "" {
		response.Fail(c, "name and phone are required", nil)
		return
	}
	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}
	if contact.Priority < 1 || contact.Priority > 5 {
		contact.Priority = 3
	}
	if err := models.SaveContact(h.db, contact); err != nil {
		response.Fail(c, "saving contact failed", nil)
		return
	}
	response.Success(c, "contact saved", contact)
}

func (h *Handlers) handleDeleteContact(c *gin.Context) {
	if err := models.DeleteContact(h.db, c.Param("id")); err != nil {
		response.Fail(c, "deleting contact failed", nil)
		return
	}
	response.Success(c, "contact deleted", nil)
}
