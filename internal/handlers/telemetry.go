package handlers

import (
	"errors"
	"net/http"
	"time"

	"airguard/internal/models"
	"airguard/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/error constants to avoid magic strings and typos.
const (
	errProcessEvent    = "failed to process sensor event"
	errProcessLevel    = "failed to process water level update"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// Request DTO for sensor events.
type sensorEventRequest struct {
	DeviceID string                 `json:"device_id" binding:"required"`
	Zone     string                 `json:"zone" binding:"required"`
	AQI      float64                `json:"aqi" binding:"required"`
	Window   []models.SensorReading `json:"window,omitempty"`
}

// SensorEventRequest is an exported model for Swagger docs of the event payload.
type SensorEventRequest struct {
	DeviceID string  `json:"device_id" example:"dev-1"`
	Zone     string  `json:"zone" example:"zone-a"`
	AQI      float64 `json:"aqi" example:"620"`
	// Rolling sensor window; 60 samples required at DRONE tier and above
	Window []models.SensorReading `json:"window,omitempty"`
}

// Request DTO for tank level updates.
type waterLevelRequest struct {
	TankID         string   `json:"tank_id" binding:"required"`
	WaterLevel     *float64 `json:"water_level" binding:"required"`
	SensorDeviceID string   `json:"sensor_device_id,omitempty"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// @Summary      Ingest an AQI sensor event
// @Description  Routes the reading through tier evaluation, cause classification and mitigation actions
// @Tags         telemetry
// @Accept       json
// @Produce      json
// @Param        body  body   SensorEventRequest  true  "Sensor event payload"
// @Success      200   {object}  service.RouterResult
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/telemetry/events [post]
// @Security     BearerAuth
func (h *Handler) ingestSensorEvent(c *gin.Context) {
	var req sensorEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	ev := models.SensorEvent{
		DeviceID:  req.DeviceID,
		Zone:      req.Zone,
		Timestamp: time.Now().UTC(),
		AQI:       req.AQI,
		Window:    req.Window,
	}

	result, err := h.services.Telemetry.ProcessEvent(c.Request.Context(), ev)
	if err != nil {
		// A short window is the caller's data problem, not a server fault.
		if errors.Is(err, service.ErrInsufficientWindow) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errProcessEvent, "sensor_event_failed", err,
			"device", req.DeviceID)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary      Ingest a water tank level update
// @Tags         telemetry
// @Accept       json
// @Produce      json
// @Success      200  {object}  service.WaterUpdateResult
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/telemetry/water-level [post]
// @Security     BearerAuth
func (h *Handler) ingestWaterLevel(c *gin.Context) {
	var req waterLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	upd := models.WaterLevelUpdate{
		TankID:         req.TankID,
		WaterLevel:     *req.WaterLevel,
		SensorDeviceID: req.SensorDeviceID,
	}

	result, err := h.services.Telemetry.ProcessWaterLevelUpdate(c.Request.Context(), upd)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidLevel):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrTankNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			h.logAndJSONError(c, http.StatusInternalServerError, errProcessLevel, "water_level_failed", err,
				"tank", req.TankID)
		}
		return
	}
	c.JSON(http.StatusOK, result)
}
