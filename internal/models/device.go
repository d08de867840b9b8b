package models

import "time"

// Device is a field device that can run local mitigations (pump relay, fan).
type Device struct {
	DeviceID string `json:"device_id"`
	Name     string `json:"name,omitempty"`
	Zone     string `json:"zone"`
	IsActive bool   `json:"is_active"`

	// Water restriction is the fast-path authority consulted before any
	// sprinkler activation. Set by the safety gate, never by operators.
	WaterRestriction       bool      `json:"water_restriction"`
	WaterRestrictionReason string    `json:"water_restriction_reason,omitempty"`
	WaterRestrictionSince  time.Time `json:"water_restriction_since,omitempty"`

	PumpRelayOn     bool      `json:"pump_relay_on"`
	FanRelayOn      bool      `json:"fan_relay_on"`
	LastRelayUpdate time.Time `json:"last_relay_update,omitempty"`
}

// EmergencyContact is the per-zone human escalation target for fire events.
type EmergencyContact struct {
	Zone          string `json:"zone"`
	ZoneName      string `json:"zone_name"`
	ContactPerson string `json:"contact_person,omitempty"`
	Email         string `json:"email"`
	Phone         string `json:"phone,omitempty"`
	City          string `json:"city,omitempty"`
	IsActive      bool   `json:"is_active"`
}
