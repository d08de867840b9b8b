package models

import "time"

// TankStatus is the water ladder: NORMAL > LOW > CRITICAL > EMPTY.
type TankStatus string

const (
	TankNormal   TankStatus = "NORMAL"
	TankLow      TankStatus = "LOW"
	TankCritical TankStatus = "CRITICAL"
	TankEmpty    TankStatus = "EMPTY"
)

// Tank is a monitored water tank. Status is always derived from CurrentLevel,
// never set directly.
type Tank struct {
	TankID         string            `json:"tank_id"`
	Zone           string            `json:"zone"`
	CapacityLiters float64           `json:"capacity_liters"`
	CurrentLevel   float64           `json:"current_level"` // 0-100 %
	Status         TankStatus        `json:"status"`
	SensorDeviceID string            `json:"sensor_device_id"`
	IsActive       bool              `json:"is_active"`
	LastUpdateTime time.Time         `json:"last_update_time"`
	AlertHistory   []TankAlertRecord `json:"alert_history,omitempty"`
}

// TankAlertRecord is one append-only entry in a tank's alert history.
type TankAlertRecord struct {
	AlertID   string    `json:"alert_id"`
	Timestamp time.Time `json:"timestamp"`
	Level     float64   `json:"level"`
	AlertType string    `json:"alert_type"` // alert subcategory
}

// LevelCrossing describes a status-ladder transition between two level
// readings. Crossed is false when both levels derive the same status.
type LevelCrossing struct {
	Crossed   bool       `json:"crossed"`
	From      TankStatus `json:"from,omitempty"`
	To        TankStatus `json:"to,omitempty"`
	Direction string     `json:"direction,omitempty"` // increasing | decreasing
	Severity  string     `json:"severity,omitempty"`  // info | warning | critical
}
