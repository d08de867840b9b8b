package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"airguard/internal/repository"

	"github.com/gin-gonic/gin"
)

const (
	errListAlerts = "failed to list alerts"
	errGetAlert   = "failed to load alert"
)

// Request DTO for acknowledge/resolve.
type alertActionRequest struct {
	By    string `json:"by" binding:"required"`
	Notes string `json:"notes,omitempty"`
}

// @Summary      List alerts
// @Tags         alerts
// @Produce      json
// @Param        category  query  string  false  "AIR_QUALITY | WATER_RESOURCE | MUNICIPALITY"
// @Param        status    query  string  false  "active | acknowledged | resolved"
// @Param        zone      query  string  false  "zone filter"
// @Param        limit     query  int     false  "max entries"
// @Success      200  {array}   models.Alert
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/alerts [get]
// @Security     BearerAuth
func (h *Handler) listAlerts(c *gin.Context) {
	f := repository.AlertFilter{
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Zone:     c.Query("zone"),
	}
	if s := c.Query("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			f.Limit = v
		}
	}

	alerts, err := h.services.Alerts.List(c.Request.Context(), f)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListAlerts, "alerts_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// @Summary      Get one alert
// @Tags         alerts
// @Produce      json
// @Param        id  path  string  true  "alert ID"
// @Success      200  {object}  models.Alert
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/alerts/{id} [get]
// @Security     BearerAuth
func (h *Handler) getAlert(c *gin.Context) {
	a, err := h.services.Alerts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetAlert, "alert_get_failed", err,
			"alert", c.Param("id"))
		return
	}
	if a == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	c.JSON(http.StatusOK, a)
}

// @Summary      Acknowledge an alert
// @Tags         alerts
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "alert ID"
// @Param        body  body  alertActionRequest  true  "operator"
// @Success      200   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/alerts/{id}/acknowledge [post]
// @Security     BearerAuth
func (h *Handler) acknowledgeAlert(c *gin.Context) {
	h.alertLifecycle(c, h.services.Alerts.Acknowledge, "acknowledged")
}

// @Summary      Resolve an alert
// @Description  Resolution does not require prior acknowledgement
// @Tags         alerts
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "alert ID"
// @Param        body  body  alertActionRequest  true  "operator"
// @Success      200   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/alerts/{id}/resolve [post]
// @Security     BearerAuth
func (h *Handler) resolveAlert(c *gin.Context) {
	h.alertLifecycle(c, h.services.Alerts.Resolve, "resolved")
}

func (h *Handler) alertLifecycle(c *gin.Context, op func(ctx context.Context, alertID, by, notes string) error, status string) {
	var req alertActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	err := op(c.Request.Context(), c.Param("id"), req.By, req.Notes)
	if err != nil {
		if errors.Is(err, repository.ErrAlertNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to update alert", "alert_update_failed", err,
			"alert", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}
