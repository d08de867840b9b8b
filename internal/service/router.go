package service

import (
	"context"
	"fmt"

	"airguard/internal/clock"
	"airguard/internal/logger"
	"airguard/internal/models"
	"airguard/internal/repository"

	"github.com/google/uuid"
)

// Trigger labels recorded in the audit log.
const (
	TriggerFirePath      = "FIRE_PATH"
	TriggerPollutionPath = "POLLUTION_PATH"
	TriggerTier          = "TIER_THRESHOLD"
	TriggerRecovery      = "AQI_RECOVERY"
	TriggerManual        = "MANUAL"
)

// RouterResult is the aggregate outcome of processing one sensor event.
// Partial failure is a first-class state: some actions may succeed while
// others are blocked or fail, and each is reported individually.
type RouterResult struct {
	Triggered      bool                         `json:"triggered"`
	Tier           string                       `json:"tier"`
	Reason         string                       `json:"reason,omitempty"`
	Classification *models.ClassificationResult `json:"classification,omitempty"`
	Alert          *models.Alert                `json:"alert,omitempty"`
	Actions        []models.ActionOutcome       `json:"actions,omitempty"`
}

func (r *RouterResult) record(action, outcome, reason string, err error) {
	o := models.ActionOutcome{Action: action, Outcome: outcome, Reason: reason}
	if err != nil {
		o.Error = err.Error()
	}
	r.Actions = append(r.Actions, o)
}

// ActionRouter turns tiered AQI readings into mitigation actions. Above the
// drone tier it consults the cause classifier and branches: FIRE withholds
// all mitigation hardware and escalates to the zone's emergency contact;
// POLLUTION attempts drone, sprinklers (water-gated) and ventilation
// independently, so one failed actuator never blocks the others.
type ActionRouter struct {
	classify *ClassifyService
	gate     *WaterGateService
	tracker  *AutomationTracker
	alerts   repository.AlertRepo
	contacts repository.ContactRepo
	auditLog repository.AutomationLogRepo
	dedup    *AlertDeduplicator
	notifier Notifier
	actuator Actuator
	clk      clock.Clock
	log      *logger.Logger
}

func NewActionRouter(
	classify *ClassifyService,
	gate *WaterGateService,
	tracker *AutomationTracker,
	alerts repository.AlertRepo,
	contacts repository.ContactRepo,
	auditLog repository.AutomationLogRepo,
	dedup *AlertDeduplicator,
	notifier Notifier,
	actuator Actuator,
	clk clock.Clock,
	log *logger.Logger,
) *ActionRouter {
	if clk == nil {
		clk = clock.Real{}
	}
	return &ActionRouter{
		classify: classify,
		gate:     gate,
		tracker:  tracker,
		alerts:   alerts,
		contacts: contacts,
		auditLog: auditLog,
		dedup:    dedup,
		notifier: notifier,
		actuator: actuator,
		clk:      clk,
		log:      log,
	}
}

// ProcessEvent is the single ingestion entry point for an AQI sensor event.
// Tiers below DRONE never call the classifier; an event at or above it with a
// short sample window is rejected outright (a data problem, not a classifier
// failure, so no fail-safe cause is substituted).
func (s *ActionRouter) ProcessEvent(ctx context.Context, ev models.SensorEvent) (*RouterResult, error) {
	tier := EvaluateTier(ev.AQI)
	result := &RouterResult{Tier: tier.String()}

	s.log.Infow("sensor_event", "device", ev.DeviceID, "zone", ev.Zone, "aqi", ev.AQI, "tier", tier.String())

	if tier < TierDrone {
		result.Classification = &models.ClassificationResult{DecisionSource: models.DecisionThresholdSkip}
		s.handleLowTier(ctx, ev, tier, result)
		return result, nil
	}

	verdict, err := s.classify.Classify(ctx, ev)
	if err != nil {
		result.Reason = err.Error()
		s.audit(ctx, ev, TriggerTier, "classification_skipped", models.OutcomeBlocked,
			map[string]any{"reason": err.Error()})
		return result, err
	}
	result.Classification = &verdict

	if verdict.Cause == models.CauseFire {
		s.firePath(ctx, ev, verdict, result)
	} else {
		s.pollutionPath(ctx, ev, tier, verdict, result)
	}
	result.Triggered = true
	return result, nil
}

// handleLowTier covers the sub-classification tiers: ventilation at ALERT,
// ventilation plus water-gated sprinkling at CRITICAL, full deactivation
// below ALERT (cooldowns persist across deactivation).
func (s *ActionRouter) handleLowTier(ctx context.Context, ev models.SensorEvent, tier Tier, result *RouterResult) {
	switch tier {
	case TierNormal:
		s.tracker.DeactivateAll()
		if err := s.actuator.SetVentilation(ctx, ev.DeviceID, false); err != nil {
			s.log.Errorw("ventilation_off_failed", "err", err, "device", ev.DeviceID)
		}
		if err := s.actuator.SetPumpRelay(ctx, ev.DeviceID, false); err != nil {
			s.log.Errorw("pump_off_failed", "err", err, "device", ev.DeviceID)
		}
		result.Reason = "aqi below alert threshold"
		s.audit(ctx, ev, TriggerRecovery, "deactivate_all", models.OutcomeSuccess, nil)
		return

	case TierAlert:
		s.attemptVentilation(ctx, ev, TriggerTier, result)
		if a := s.createAirAlert(ctx, ev, models.SubPoorAQI, models.SeverityWarning, nil); a != nil {
			result.Alert = a
		}
		result.Triggered = true

	case TierCritical:
		s.attemptVentilation(ctx, ev, TriggerTier, result)
		s.attemptSprinkling(ctx, ev, TriggerTier, result)
		if a := s.createAirAlert(ctx, ev, models.SubPoorAQI, models.SeverityCritical, nil); a != nil {
			result.Alert = a
		}
		result.Triggered = true
	}
}

// firePath: no mitigation hardware runs. Drones and sprinklers are withheld
// for the fire brigade; the zone's registered contact is notified.
func (s *ActionRouter) firePath(ctx context.Context, ev models.SensorEvent, verdict models.ClassificationResult, result *RouterResult) {
	s.log.Warnw("fire_response",
		"device", ev.DeviceID, "zone", ev.Zone, "aqi", ev.AQI,
		"confidence", verdict.Confidence, "source", verdict.DecisionSource)

	if a := s.createAirAlert(ctx, ev, models.SubFireDetected, models.SeverityCritical, &verdict); a != nil {
		result.Alert = a
	}

	if _, err := s.tracker.Activate(models.CapEmergency, nil); err != nil {
		s.log.Errorw("emergency_activate_failed", "err", err)
	}
	s.notifyFireContact(ctx, ev, result)

	const withheld = "fire response: mitigation hardware withheld for fire brigade"
	result.record("drone", models.OutcomeBlocked, withheld, nil)
	s.audit(ctx, ev, TriggerFirePath, "drone_blocked", models.OutcomeBlocked, map[string]any{"reason": withheld})
	result.record("sprinklers", models.OutcomeBlocked, withheld, nil)
	s.audit(ctx, ev, TriggerFirePath, "sprinklers_blocked", models.OutcomeBlocked, map[string]any{"reason": withheld})
}

func (s *ActionRouter) notifyFireContact(ctx context.Context, ev models.SensorEvent, result *RouterResult) {
	contact, err := s.contacts.GetByZone(ctx, ev.Zone)
	if err != nil {
		s.log.Errorw("emergency_contact_lookup_failed", "err", err, "zone", ev.Zone)
		result.record("emergency_notify", models.OutcomeFailed, "contact lookup failed", err)
		s.audit(ctx, ev, TriggerFirePath, "emergency_notify", models.OutcomeFailed, map[string]any{"error": err.Error()})
		return
	}
	if contact == nil {
		s.log.Warnw("no_emergency_contact_for_zone", "zone", ev.Zone)
		result.record("emergency_notify", models.OutcomeFailed, "no emergency contact registered for zone", nil)
		s.audit(ctx, ev, TriggerFirePath, "emergency_notify", models.OutcomeFailed,
			map[string]any{"reason": "no contact registered"})
		return
	}

	err = s.notifier.NotifyEmergencyContact(ctx, ev.Zone, ev.AQI, ev.DeviceID, contact.Email, contact.ContactPerson)
	if err != nil {
		s.log.Errorw("emergency_notify_failed", "err", err, "zone", ev.Zone, "recipient", contact.Email)
		result.record("emergency_notify", models.OutcomeFailed, "notification delivery failed", err)
		s.audit(ctx, ev, TriggerFirePath, "emergency_notify", models.OutcomeFailed, map[string]any{"error": err.Error()})
		return
	}
	result.record("emergency_notify", models.OutcomeSuccess, fmt.Sprintf("notified %s", contact.ContactPerson), nil)
	s.audit(ctx, ev, TriggerFirePath, "emergency_notify", models.OutcomeSuccess,
		map[string]any{"recipient": contact.Email})
}

// pollutionPath attempts drone, sprinklers and ventilation independently.
func (s *ActionRouter) pollutionPath(ctx context.Context, ev models.SensorEvent, tier Tier, verdict models.ClassificationResult, result *RouterResult) {
	s.log.Infow("pollution_response",
		"device", ev.DeviceID, "zone", ev.Zone, "aqi", ev.AQI,
		"confidence", verdict.Confidence, "source", verdict.DecisionSource)

	if a := s.createAirAlert(ctx, ev, models.SubPollutionCritical, models.SeverityCritical, &verdict); a != nil {
		result.Alert = a
	}

	s.attemptDrone(ctx, ev, result)
	s.attemptSprinkling(ctx, ev, TriggerPollutionPath, result)
	s.attemptVentilation(ctx, ev, TriggerPollutionPath, result)

	if tier >= TierEmergency {
		if _, err := s.tracker.Activate(models.CapEmergency, nil); err != nil {
			s.log.Errorw("emergency_activate_failed", "err", err)
		}
		s.notifyFireContact(ctx, ev, result)
	}
}

func (s *ActionRouter) attemptDrone(ctx context.Context, ev models.SensorEvent, result *RouterResult) {
	act, err := s.tracker.Activate(models.CapDrone, nil)
	if err != nil {
		result.record("drone", models.OutcomeFailed, "tracker error", err)
		s.audit(ctx, ev, TriggerPollutionPath, "drone", models.OutcomeFailed, map[string]any{"error": err.Error()})
		return
	}
	if act.OnCooldown {
		reason := fmt.Sprintf("on cooldown for %s", act.Remaining.Round(1e9))
		result.record("drone", models.OutcomeBlocked, reason, nil)
		s.audit(ctx, ev, TriggerPollutionPath, "drone", models.OutcomeBlocked, map[string]any{"reason": reason})
		return
	}

	if err := s.actuator.DispatchDrone(ctx, ev.Zone, ev.DeviceID); err != nil {
		s.log.Errorw("drone_dispatch_failed", "err", err, "zone", ev.Zone)
		result.record("drone", models.OutcomeFailed, "dispatch failed", err)
		s.audit(ctx, ev, TriggerPollutionPath, "drone", models.OutcomeFailed, map[string]any{"error": err.Error()})
		return
	}
	result.record("drone", models.OutcomeSuccess, "monitoring drone dispatched", nil)
	s.audit(ctx, ev, TriggerPollutionPath, "drone", models.OutcomeSuccess, nil)
}

// attemptSprinkling runs the full sprinkler chain: water-gate eligibility,
// tracker cooldown and safety delay, then the pump relay once the delay
// lands. Eligibility is checked once, before the delay (source behavior).
func (s *ActionRouter) attemptSprinkling(ctx context.Context, ev models.SensorEvent, trigger string, result *RouterResult) {
	elig := s.gate.CanActivateSprinklers(ctx, ev.DeviceID)
	if !elig.Allowed {
		result.record("sprinklers", models.OutcomeBlocked, elig.Reason, nil)
		s.audit(ctx, ev, trigger, "sprinklers", models.OutcomeBlocked, map[string]any{"reason": elig.Reason})
		return
	}

	deviceID := ev.DeviceID
	act, err := s.tracker.Activate(models.CapSprinkling, func() {
		// Fires after the safety delay, off the request path.
		if err := s.actuator.SetPumpRelay(context.Background(), deviceID, true); err != nil {
			s.log.Errorw("pump_on_failed", "err", err, "device", deviceID)
		} else {
			s.log.Infow("sprinklers_started", "device", deviceID)
		}
	})
	if err != nil {
		result.record("sprinklers", models.OutcomeFailed, "tracker error", err)
		s.audit(ctx, ev, trigger, "sprinklers", models.OutcomeFailed, map[string]any{"error": err.Error()})
		return
	}
	if act.OnCooldown {
		reason := fmt.Sprintf("on cooldown for %s", act.Remaining.Round(1e9))
		result.record("sprinklers", models.OutcomeBlocked, reason, nil)
		s.audit(ctx, ev, trigger, "sprinklers", models.OutcomeBlocked, map[string]any{"reason": reason})
		return
	}

	result.record("sprinklers", models.OutcomeSuccess, "pump start scheduled after safety delay", nil)
	s.audit(ctx, ev, trigger, "sprinklers", models.OutcomeSuccess, map[string]any{"pending": true})
}

func (s *ActionRouter) attemptVentilation(ctx context.Context, ev models.SensorEvent, trigger string, result *RouterResult) {
	act, err := s.tracker.Activate(models.CapVentilation, nil)
	if err != nil {
		result.record("ventilation", models.OutcomeFailed, "tracker error", err)
		s.audit(ctx, ev, trigger, "ventilation", models.OutcomeFailed, map[string]any{"error": err.Error()})
		return
	}
	if act.OnCooldown {
		reason := fmt.Sprintf("on cooldown for %s", act.Remaining.Round(1e9))
		result.record("ventilation", models.OutcomeBlocked, reason, nil)
		s.audit(ctx, ev, trigger, "ventilation", models.OutcomeBlocked, map[string]any{"reason": reason})
		return
	}

	if err := s.actuator.SetVentilation(ctx, ev.DeviceID, true); err != nil {
		s.log.Errorw("ventilation_on_failed", "err", err, "device", ev.DeviceID)
		result.record("ventilation", models.OutcomeFailed, "actuator failed", err)
		s.audit(ctx, ev, trigger, "ventilation", models.OutcomeFailed, map[string]any{"error": err.Error()})
		return
	}
	result.record("ventilation", models.OutcomeSuccess, "ventilation running", nil)
	s.audit(ctx, ev, trigger, "ventilation", models.OutcomeSuccess, nil)
}

// TriggerManualAction runs one capability on demand, bypassing tier
// evaluation but not the water gate or cooldowns.
func (s *ActionRouter) TriggerManualAction(ctx context.Context, capability models.Capability, deviceID, zone string) (*RouterResult, error) {
	ev := models.SensorEvent{DeviceID: deviceID, Zone: zone, Timestamp: s.clk.Now()}
	result := &RouterResult{Tier: "MANUAL", Triggered: true}

	switch capability {
	case models.CapDrone:
		s.attemptDrone(ctx, ev, result)
	case models.CapSprinkling:
		s.attemptSprinkling(ctx, ev, TriggerManual, result)
	case models.CapVentilation:
		s.attemptVentilation(ctx, ev, TriggerManual, result)
	default:
		return nil, fmt.Errorf("capability %q cannot be triggered manually", capability)
	}
	return result, nil
}

// createAirAlert persists an air-quality alert unless the deduplicator
// suppresses it. Classifier provenance travels in resource data.
func (s *ActionRouter) createAirAlert(ctx context.Context, ev models.SensorEvent, subcategory, severity string, verdict *models.ClassificationResult) *models.Alert {
	if s.dedup.IsDuplicate(ctx, ev.DeviceID, subcategory) {
		return nil
	}

	data := map[string]any{}
	message := fmt.Sprintf("Air quality alert in %s: AQI %.0f.", ev.Zone, ev.AQI)
	if verdict != nil {
		data["cause"] = verdict.Cause
		data["confidence"] = verdict.Confidence
		data["decision_source"] = verdict.DecisionSource
		switch subcategory {
		case models.SubFireDetected:
			message = fmt.Sprintf("FIRE detected in %s (AQI %.0f, confidence %.2f). Fire brigade response initiated.",
				ev.Zone, ev.AQI, verdict.Confidence)
		case models.SubPollutionCritical:
			message = fmt.Sprintf("Critical pollution in %s (AQI %.0f). Mitigation actions started.", ev.Zone, ev.AQI)
		}
	}

	alert := models.Alert{
		AlertID:      uuid.NewString(),
		Category:     models.CategoryAirQuality,
		Subcategory:  subcategory,
		Severity:     severity,
		Status:       models.AlertActive,
		DeviceID:     ev.DeviceID,
		Zone:         ev.Zone,
		AQI:          ev.AQI,
		Message:      message,
		ResourceData: data,
		Timestamp:    s.clk.Now(),
	}
	if err := s.alerts.Create(ctx, alert); err != nil {
		s.log.Errorw("air_alert_create_failed", "err", err, "device", ev.DeviceID, "subcategory", subcategory)
		return nil
	}
	s.log.Infow("air_alert_created", "device", ev.DeviceID, "subcategory", subcategory, "severity", severity)
	return &alert
}

func (s *ActionRouter) audit(ctx context.Context, ev models.SensorEvent, trigger, action, outcome string, details map[string]any) {
	entry := models.AutomationLogEntry{
		Timestamp: s.clk.Now(),
		DeviceID:  ev.DeviceID,
		Zone:      ev.Zone,
		AQI:       ev.AQI,
		Trigger:   trigger,
		Action:    action,
		Outcome:   outcome,
		Details:   details,
	}
	if err := s.auditLog.Append(ctx, entry); err != nil {
		s.log.Errorw("automation_log_append_failed", "err", err, "action", action)
	}
}
