package models

import "time"

// MinClassificationSamples is the minimum synchronized window length per
// channel before the fire/pollution classifier may run.
const MinClassificationSamples = 60

// SensorReading is one raw sample from a field device.
type SensorReading struct {
	Timestamp   time.Time `json:"timestamp"`
	Smoke       float64   `json:"smoke"`       // particulate proxy, PPM
	Humidity    float64   `json:"humidity"`    // %
	Temperature float64   `json:"temperature"` // °C
}

// SensorEvent is a telemetry event entering the decision engine: the current
// AQI plus the time-ordered window of raw readings behind it. Produced by the
// ingestion boundary; the engine treats it as read-only.
type SensorEvent struct {
	DeviceID  string          `json:"device_id"`
	Zone      string          `json:"zone"`
	Timestamp time.Time       `json:"timestamp"`
	AQI       float64         `json:"aqi"`
	Window    []SensorReading `json:"window,omitempty"`
}

// WaterLevelUpdate is one level report from a tank sensor.
type WaterLevelUpdate struct {
	TankID         string  `json:"tank_id"`
	WaterLevel     float64 `json:"water_level"` // 0-100 %
	SensorDeviceID string  `json:"sensor_device_id"`
}
