package models

import "time"

// Capability names one automated mitigation.
type Capability string

const (
	CapSprinkling  Capability = "sprinkling"
	CapVentilation Capability = "ventilation"
	CapDrone       Capability = "drone"
	CapEmergency   Capability = "emergency-notify"
)

// CapabilityState is the tracked activation state of one capability.
// Invariant: a capability cannot go inactive→active while now < CooldownUntil.
type CapabilityState struct {
	Active          bool      `json:"active"`
	LastActivatedAt time.Time `json:"last_activated_at,omitempty"`
	CooldownUntil   time.Time `json:"cooldown_until,omitempty"`
	PendingSince    time.Time `json:"pending_since,omitempty"` // sprinkler safety delay
}

// AutomationLogEntry is one audit record per attempted automation action.
type AutomationLogEntry struct {
	EntryID   string         `json:"entry_id"`
	Timestamp time.Time      `json:"timestamp"`
	DeviceID  string         `json:"device_id"`
	Zone      string         `json:"zone"`
	AQI       float64        `json:"aqi,omitempty"`
	Trigger   string         `json:"trigger"` // e.g. FIRE_PATH, POLLUTION_PATH, WATER_EMPTY
	Action    string         `json:"action"`  // e.g. drone_activated, sprinklers_blocked
	Outcome   string         `json:"outcome"` // success | blocked | failed
	Details   map[string]any `json:"details,omitempty"`
}

// Action outcome values recorded in router results and the audit log.
const (
	OutcomeSuccess = "success"
	OutcomeBlocked = "blocked"
	OutcomeFailed  = "failed"
)

// ActionOutcome is one per-action result inside an aggregate router result.
type ActionOutcome struct {
	Action  string `json:"action"`
	Outcome string `json:"outcome"` // success | blocked | failed
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`
}
