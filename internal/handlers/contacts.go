package handlers

import (
	"net/http"

	"airguard/internal/models"

	"github.com/gin-gonic/gin"
)

const errListContacts = "failed to list contacts"

// Request DTO for contact upsert.
type contactRequest struct {
	Zone          string `json:"zone" binding:"required"`
	ZoneName      string `json:"zone_name,omitempty"`
	ContactPerson string `json:"contact_person,omitempty"`
	Email         string `json:"email" binding:"required,email"`
	Phone         string `json:"phone,omitempty"`
	City          string `json:"city,omitempty"`
}

// @Summary      List emergency contacts
// @Tags         contacts
// @Produce      json
// @Success      200  {array}   models.EmergencyContact
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/contacts [get]
// @Security     BearerAuth
func (h *Handler) listContacts(c *gin.Context) {
	contacts, err := h.services.Contacts.List(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListContacts, "contacts_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}

// @Summary      Get the emergency contact for a zone
// @Tags         contacts
// @Produce      json
// @Param        zone  path  string  true  "zone"
// @Success      200  {object}  models.EmergencyContact
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/contacts/{zone} [get]
// @Security     BearerAuth
func (h *Handler) getContactByZone(c *gin.Context) {
	contact, err := h.services.Contacts.GetByZone(c.Request.Context(), c.Param("zone"))
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load contact", "contact_get_failed", err,
			"zone", c.Param("zone"))
		return
	}
	if contact == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no contact for zone"})
		return
	}
	c.JSON(http.StatusOK, contact)
}

// @Summary      Create or update the emergency contact for a zone
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Param        body  body   contactRequest  true  "Contact payload"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/contacts [put]
// @Security     BearerAuth
func (h *Handler) upsertContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	err := h.services.Contacts.Upsert(c.Request.Context(), models.EmergencyContact{
		Zone:          req.Zone,
		ZoneName:      req.ZoneName,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		City:          req.City,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

// @Summary      Delete a zone's emergency contact
// @Tags         contacts
// @Produce      json
// @Param        zone  path  string  true  "zone"
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/contacts/{zone} [delete]
// @Security     BearerAuth
func (h *Handler) deleteContact(c *gin.Context) {
	if err := h.services.Contacts.Delete(c.Request.Context(), c.Param("zone")); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to delete contact", "contact_delete_failed", err,
			"zone", c.Param("zone"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
