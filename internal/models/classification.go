package models

// Classification causes.
const (
	CauseFire      = "FIRE"
	CausePollution = "POLLUTION"
)

// Decision provenance for a classification result.
const (
	DecisionModel         = "model"
	DecisionErrorFailSafe = "error_fail_safe"
	DecisionThresholdSkip = "threshold_skip"
)

// ClassificationResult is the verdict from the cause classifier boundary.
// Ephemeral: produced per event and folded into the alert it causes.
type ClassificationResult struct {
	Cause                string  `json:"cause"` // FIRE | POLLUTION
	Confidence           float64 `json:"confidence"`
	FireProbability      float64 `json:"fire_probability"`
	PollutionProbability float64 `json:"pollution_probability"`
	DecisionSource       string  `json:"decision_source"`
}
