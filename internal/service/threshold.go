package service

import "airguard/internal/models"

// Tier is the ordered AQI severity classification.
type Tier int

const (
	TierNormal Tier = iota
	TierAlert
	TierCritical
	TierDrone
	TierEmergency
)

// Tier cutoffs. A reading maps to exactly one tier, evaluated highest-first.
const (
	AlertAQI     = 100.0
	CriticalAQI  = 150.0
	DroneAQI     = 500.0
	EmergencyAQI = 1000.0
)

func (t Tier) String() string {
	switch t {
	case TierAlert:
		return "ALERT"
	case TierCritical:
		return "CRITICAL"
	case TierDrone:
		return "DRONE"
	case TierEmergency:
		return "EMERGENCY"
	default:
		return "NORMAL"
	}
}

// EvaluateTier maps an AQI value to its severity tier.
func EvaluateTier(aqi float64) Tier {
	switch {
	case aqi >= EmergencyAQI:
		return TierEmergency
	case aqi >= DroneAQI:
		return TierDrone
	case aqi >= CriticalAQI:
		return TierCritical
	case aqi >= AlertAQI:
		return TierAlert
	default:
		return TierNormal
	}
}

// CapabilitiesFor returns the mitigation capabilities nominally associated
// with a tier. TierNormal returns nil, which signals full deactivation.
func CapabilitiesFor(t Tier) []models.Capability {
	switch t {
	case TierAlert:
		return []models.Capability{models.CapVentilation}
	case TierCritical:
		return []models.Capability{models.CapVentilation, models.CapSprinkling}
	case TierDrone:
		return []models.Capability{models.CapDrone, models.CapSprinkling, models.CapVentilation}
	case TierEmergency:
		return []models.Capability{models.CapEmergency, models.CapDrone, models.CapSprinkling, models.CapVentilation}
	default:
		return nil
	}
}
