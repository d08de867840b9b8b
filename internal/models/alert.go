package models

import "time"

// Alert severities.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert status lifecycle: active → acknowledged | resolved. Resolution does
// not require prior acknowledgement.
const (
	AlertActive       = "active"
	AlertAcknowledged = "acknowledged"
	AlertResolved     = "resolved"
)

// Alert categories.
const (
	CategoryAirQuality    = "AIR_QUALITY"
	CategoryWaterResource = "WATER_RESOURCE"
	CategoryMunicipality  = "MUNICIPALITY"
)

// Alert subcategories.
const (
	SubFireDetected      = "FIRE_DETECTED"
	SubPollutionCritical = "POLLUTION_CRITICAL"
	SubPoorAQI           = "POOR_AQI"
	SubWaterLow          = "WATER_LOW"
	SubWaterCritical     = "WATER_CRITICAL"
	SubWaterEmpty        = "WATER_EMPTY"
	SubWaterRefilled     = "WATER_REFILLED"
	SubSprinklerDisabled = "SPRINKLER_DISABLED_WATER"
	SubSprinklerEnabled  = "SPRINKLER_REENABLED"
	SubMunicipalityNote  = "MUNICIPALITY_NOTIFIED"
)

// Alert is a persisted alert record.
type Alert struct {
	AlertID     string `json:"alert_id"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Severity    string `json:"severity"` // info | warning | critical
	Status      string `json:"status"`   // active | acknowledged | resolved
	DeviceID    string `json:"device_id,omitempty"`
	Zone        string `json:"zone,omitempty"`
	AQI         float64 `json:"aqi,omitempty"`
	Message     string `json:"message"`

	// Free-form context: tank ID, level deltas, municipality-contact state,
	// sprinkler-disable state, classifier provenance.
	ResourceData map[string]any `json:"resource_data,omitempty"`

	Timestamp      time.Time `json:"timestamp"`
	AcknowledgedBy string    `json:"acknowledged_by,omitempty"`
	AcknowledgedAt time.Time `json:"acknowledged_at,omitempty"`
	ResolvedBy     string    `json:"resolved_by,omitempty"`
	ResolvedAt     time.Time `json:"resolved_at,omitempty"`
	Notes          string    `json:"notes,omitempty"`
}
