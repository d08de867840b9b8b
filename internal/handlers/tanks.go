package handlers

import (
	"errors"
	"net/http"

	"airguard/internal/models"
	"airguard/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errListTanks   = "failed to list tanks"
	errGetTank     = "failed to load tank"
	errTankHistory = "failed to load tank history"
)

// Request DTO for tank registration.
type tankRequest struct {
	TankID         string   `json:"tank_id" binding:"required"`
	Zone           string   `json:"zone" binding:"required"`
	CapacityLiters float64  `json:"capacity_liters,omitempty"`
	CurrentLevel   *float64 `json:"current_level" binding:"required"`
	SensorDeviceID string   `json:"sensor_device_id,omitempty"`
}

// @Summary      List water tanks
// @Tags         tanks
// @Produce      json
// @Success      200  {array}   models.Tank
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/tanks [get]
// @Security     BearerAuth
func (h *Handler) listTanks(c *gin.Context) {
	tanks, err := h.services.Tanks.List(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListTanks, "tanks_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, tanks)
}

// @Summary      Register or replace a water tank
// @Description  Status is derived from the level, never taken from the caller
// @Tags         tanks
// @Accept       json
// @Produce      json
// @Param        body  body   tankRequest  true  "Tank payload"
// @Success      200   {object}  models.Tank
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/tanks [post]
// @Security     BearerAuth
func (h *Handler) registerTank(c *gin.Context) {
	var req tankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	tank, err := h.services.Tanks.Register(c.Request.Context(), models.Tank{
		TankID:         req.TankID,
		Zone:           req.Zone,
		CapacityLiters: req.CapacityLiters,
		CurrentLevel:   *req.CurrentLevel,
		SensorDeviceID: req.SensorDeviceID,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidLevel) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to register tank", "tank_register_failed", err,
			"tank", req.TankID)
		return
	}
	c.JSON(http.StatusOK, tank)
}

// @Summary      Get one tank
// @Tags         tanks
// @Produce      json
// @Param        id  path  string  true  "tank ID"
// @Success      200  {object}  models.Tank
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/tanks/{id} [get]
// @Security     BearerAuth
func (h *Handler) getTank(c *gin.Context) {
	tank, err := h.services.Tanks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetTank, "tank_get_failed", err,
			"tank", c.Param("id"))
		return
	}
	if tank == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "tank not found"})
		return
	}
	c.JSON(http.StatusOK, tank)
}

// @Summary      Tank alert history
// @Tags         tanks
// @Produce      json
// @Param        id  path  string  true  "tank ID"
// @Success      200  {array}   models.TankAlertRecord
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/tanks/{id}/history [get]
// @Security     BearerAuth
func (h *Handler) getTankHistory(c *gin.Context) {
	history, err := h.services.Tanks.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errTankHistory, "tank_history_failed", err,
			"tank", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, history)
}

// @Summary      Sprinkler eligibility for a device
// @Description  Answers whether sprinklers may run; never activates anything
// @Tags         tanks
// @Produce      json
// @Param        id  path  string  true  "device ID"
// @Success      200  {object}  service.SprinklerEligibility
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/devices/{id}/sprinkler-eligibility [get]
// @Security     BearerAuth
func (h *Handler) checkSprinklerEligibility(c *gin.Context) {
	elig := h.services.Tanks.CheckSprinklers(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, elig)
}
