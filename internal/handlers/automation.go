package handlers

import (
	"net/http"
	"strconv"

	"airguard/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	errGetStatus     = "failed to load automation status"
	errGetLogs       = "failed to load automation logs"
	defaultLogsLimit = 100
)

// Request DTO for manual triggering.
type triggerRequest struct {
	Capability string `json:"capability" binding:"required"` // sprinkling | ventilation | drone
	DeviceID   string `json:"device_id" binding:"required"`
	Zone       string `json:"zone" binding:"required"`
}

// @Summary      Automation status
// @Description  Capability activation/cooldown snapshot plus current tank states
// @Tags         automation
// @Produce      json
// @Success      200  {object}  service.SystemStatus
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/automation/status [get]
// @Security     BearerAuth
func (h *Handler) getAutomationStatus(c *gin.Context) {
	status, err := h.services.Automation.Status(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetStatus, "automation_status_failed", err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// @Summary      Automation audit log
// @Tags         automation
// @Produce      json
// @Param        device_id  query  string  false  "filter by device"
// @Param        limit      query  int     false  "max entries (default 100)"
// @Success      200  {array}   models.AutomationLogEntry
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/automation/logs [get]
// @Security     BearerAuth
func (h *Handler) getAutomationLogs(c *gin.Context) {
	limit := defaultLogsLimit
	if s := c.Query("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}

	entries, err := h.services.Automation.Logs(c.Request.Context(), c.Query("device_id"), limit)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetLogs, "automation_logs_failed", err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// @Summary      Trigger a mitigation capability manually
// @Description  Bypasses tier evaluation but not the water gate or cooldowns
// @Tags         automation
// @Accept       json
// @Produce      json
// @Param        body  body   triggerRequest  true  "Trigger payload"
// @Success      200   {object}  service.RouterResult
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/automation/trigger [post]
// @Security     BearerAuth
func (h *Handler) triggerAction(c *gin.Context) {
	var req triggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	result, err := h.services.Automation.TriggerManual(c.Request.Context(),
		models.Capability(req.Capability), req.DeviceID, req.Zone)
	if err != nil {
		if h.log != nil {
			h.log.Infow("manual_trigger_rejected", "err", err, "capability", req.Capability)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
