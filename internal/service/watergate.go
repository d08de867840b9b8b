package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"airguard/internal/clock"
	"airguard/internal/logger"
	"airguard/internal/models"
	"airguard/internal/repository"

	"github.com/google/uuid"
)

// Tank status breakpoints (percent).
const (
	emptyBelow    = 5.0
	criticalBelow = 20.0
	lowBelow      = 40.0
)

// Validation errors rejected before any state mutation.
var (
	ErrInvalidLevel = errors.New("invalid water level: must be between 0 and 100")
	ErrTankNotFound = errors.New("water tank not found")
)

// DeriveStatus maps a fill level to the tank status ladder. Pure and total.
func DeriveStatus(level float64) models.TankStatus {
	switch {
	case level < emptyBelow:
		return models.TankEmpty
	case level < criticalBelow:
		return models.TankCritical
	case level < lowBelow:
		return models.TankLow
	default:
		return models.TankNormal
	}
}

// DetectCrossing compares the derived statuses of two levels. No-op result
// when both levels sit in the same band.
func DetectCrossing(previousLevel, newLevel float64) models.LevelCrossing {
	from := DeriveStatus(previousLevel)
	to := DeriveStatus(newLevel)
	if from == to {
		return models.LevelCrossing{}
	}

	direction := "decreasing"
	if newLevel > previousLevel {
		direction = "increasing"
	}
	return models.LevelCrossing{
		Crossed:   true,
		From:      from,
		To:        to,
		Direction: direction,
		Severity:  crossingSeverity(to),
	}
}

func crossingSeverity(to models.TankStatus) string {
	switch to {
	case models.TankEmpty, models.TankCritical:
		return models.SeverityCritical
	case models.TankLow:
		return models.SeverityWarning
	default:
		return models.SeverityInfo // refill
	}
}

// WaterUpdateResult aggregates the effects of one level update.
type WaterUpdateResult struct {
	Tank          models.Tank    `json:"tank"`
	PreviousLevel float64        `json:"previous_level"`
	Crossing      models.LevelCrossing `json:"crossing"`
	Actions       []string       `json:"actions,omitempty"`
	Alerts        []models.Alert `json:"alerts,omitempty"`
}

// SprinklerEligibility answers "may sprinklers run for this device".
type SprinklerEligibility struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// WaterGateService is the resource safety gate: a state machine over tank
// fill level that owns device water restrictions, the emergency pump
// override, municipality escalation and recovery acknowledgement.
//
// Eligibility checks fail OPEN (allow on missing data or lookup failure) —
// the deliberate opposite of the classifier's fail-closed policy. Level
// writes fail HARD: a dropped update is never acceptable.
type WaterGateService struct {
	tanks    repository.TankRepo
	devices  repository.DeviceRepo
	alerts   repository.AlertRepo
	dedup    *AlertDeduplicator
	tracker  *AutomationTracker
	notifier Notifier
	actuator Actuator
	clk      clock.Clock
	log      *logger.Logger

	mu        sync.Mutex
	tankLocks map[string]*sync.Mutex
}

func NewWaterGateService(
	tanks repository.TankRepo,
	devices repository.DeviceRepo,
	alerts repository.AlertRepo,
	dedup *AlertDeduplicator,
	tracker *AutomationTracker,
	notifier Notifier,
	actuator Actuator,
	clk clock.Clock,
	log *logger.Logger,
) *WaterGateService {
	if clk == nil {
		clk = clock.Real{}
	}
	return &WaterGateService{
		tanks:     tanks,
		devices:   devices,
		alerts:    alerts,
		dedup:     dedup,
		tracker:   tracker,
		notifier:  notifier,
		actuator:  actuator,
		clk:       clk,
		log:       log,
		tankLocks: make(map[string]*sync.Mutex),
	}
}

// lockTank serializes read-modify-write per tank so concurrent updates to the
// same tank cannot interleave into last-write-wins level corruption.
func (s *WaterGateService) lockTank(tankID string) func() {
	s.mu.Lock()
	l, ok := s.tankLocks[tankID]
	if !ok {
		l = &sync.Mutex{}
		s.tankLocks[tankID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// ProcessWaterLevelUpdate applies one sensor level report: validates, updates
// the tank, detects a status crossing and runs the crossing's actions.
func (s *WaterGateService) ProcessWaterLevelUpdate(ctx context.Context, upd models.WaterLevelUpdate) (*WaterUpdateResult, error) {
	if upd.WaterLevel < 0 || upd.WaterLevel > 100 {
		return nil, fmt.Errorf("%w: got %.1f", ErrInvalidLevel, upd.WaterLevel)
	}

	unlock := s.lockTank(upd.TankID)
	defer unlock()

	tank, err := s.tanks.GetByID(ctx, upd.TankID)
	if err != nil {
		return nil, fmt.Errorf("load tank %q: %w", upd.TankID, err)
	}
	if tank == nil {
		return nil, fmt.Errorf("%w: %q", ErrTankNotFound, upd.TankID)
	}

	if tank.SensorDeviceID != "" && upd.SensorDeviceID != "" && tank.SensorDeviceID != upd.SensorDeviceID {
		s.log.Warnw("tank_sensor_mismatch",
			"tank", tank.TankID, "expected", tank.SensorDeviceID, "got", upd.SensorDeviceID)
	}

	previousLevel := tank.CurrentLevel
	now := s.clk.Now()
	tank.CurrentLevel = upd.WaterLevel
	tank.Status = DeriveStatus(upd.WaterLevel)
	tank.LastUpdateTime = now

	// Write path failures surface: a silently dropped level update could
	// leave sprinklers enabled on an empty tank.
	if err := s.tanks.Save(ctx, *tank); err != nil {
		return nil, fmt.Errorf("save tank %q: %w", tank.TankID, err)
	}

	s.log.Infow("water_level_updated",
		"tank", tank.TankID, "from", previousLevel, "to", upd.WaterLevel, "status", tank.Status)

	result := &WaterUpdateResult{Tank: *tank, PreviousLevel: previousLevel}
	crossing := DetectCrossing(previousLevel, upd.WaterLevel)
	result.Crossing = crossing
	if !crossing.Crossed {
		return result, nil
	}

	s.log.Infow("water_threshold_crossed",
		"tank", tank.TankID, "from", crossing.From, "to", crossing.To, "direction", crossing.Direction)

	s.handleCrossing(ctx, tank, crossing, previousLevel, result)
	return result, nil
}

// handleCrossing executes the side effects of a status transition.
func (s *WaterGateService) handleCrossing(ctx context.Context, tank *models.Tank, crossing models.LevelCrossing, previousLevel float64, result *WaterUpdateResult) {
	if crossing.Direction == "decreasing" {
		if crossing.To == models.TankCritical || crossing.To == models.TankEmpty {
			s.disableSprinklers(ctx, tank, result)
			s.notifyMunicipality(ctx, tank, previousLevel, result)
		}
		if crossing.To == models.TankEmpty {
			s.forceSprinklersOff(ctx, tank, result)
		}
	}

	if crossing.Direction == "increasing" && crossing.To == models.TankNormal {
		s.enableSprinklers(ctx, tank, result)
		s.autoAcknowledge(ctx, tank, result)
	}

	// Main threshold alert for the transition itself.
	sub := transitionSubcategory(crossing.To)
	if a := s.createWaterAlert(ctx, tank, sub, crossing.Severity, previousLevel); a != nil {
		result.Alerts = append([]models.Alert{*a}, result.Alerts...)
	}
}

func transitionSubcategory(to models.TankStatus) string {
	switch to {
	case models.TankEmpty:
		return models.SubWaterEmpty
	case models.TankCritical:
		return models.SubWaterCritical
	case models.TankLow:
		return models.SubWaterLow
	default:
		return models.SubWaterRefilled
	}
}

// disableSprinklers flags every active device in the tank's zone with a water
// restriction; the restriction is the fast-path authority for eligibility.
func (s *WaterGateService) disableSprinklers(ctx context.Context, tank *models.Tank, result *WaterUpdateResult) {
	devices, err := s.devices.ListActiveByZone(ctx, tank.Zone)
	if err != nil {
		s.log.Errorw("restrict_zone_failed", "err", err, "zone", tank.Zone)
		return
	}

	reason := fmt.Sprintf("Water tank %s %s (%.1f%%)", tank.TankID, tank.Status, tank.CurrentLevel)
	now := s.clk.Now()
	affected := 0
	for _, d := range devices {
		if err := s.devices.SetWaterRestriction(ctx, d.DeviceID, reason, now); err != nil {
			s.log.Errorw("restrict_device_failed", "err", err, "device", d.DeviceID)
			continue
		}
		affected++
	}

	s.log.Infow("sprinklers_disabled_for_zone", "zone", tank.Zone, "devices", affected)
	result.Actions = append(result.Actions, "DISABLE_SPRINKLERS")

	if a := s.createWaterAlert(ctx, tank, models.SubSprinklerDisabled, models.SeverityCritical, tank.CurrentLevel); a != nil {
		result.Alerts = append(result.Alerts, *a)
	}
}

// forceSprinklersOff is the EMPTY emergency override: pump relays in the zone
// are cleared and the sprinkling capability is deactivated regardless of any
// cooldown or pending safety delay.
func (s *WaterGateService) forceSprinklersOff(ctx context.Context, tank *models.Tank, result *WaterUpdateResult) {
	devices, err := s.devices.ListActiveByZone(ctx, tank.Zone)
	if err != nil {
		s.log.Errorw("force_off_list_failed", "err", err, "zone", tank.Zone)
	} else {
		now := s.clk.Now()
		for _, d := range devices {
			if !d.PumpRelayOn {
				continue
			}
			if err := s.devices.SetPumpRelay(ctx, d.DeviceID, false, now); err != nil {
				s.log.Errorw("force_pump_off_failed", "err", err, "device", d.DeviceID)
				continue
			}
			if err := s.actuator.SetPumpRelay(ctx, d.DeviceID, false); err != nil {
				s.log.Errorw("actuator_pump_off_failed", "err", err, "device", d.DeviceID)
			}
			s.log.Warnw("pump_forced_off", "device", d.DeviceID, "tank", tank.TankID)
		}
	}

	if s.tracker != nil {
		s.tracker.ForceDeactivate(models.CapSprinkling)
	}
	result.Actions = append(result.Actions, "FORCE_SPRINKLERS_OFF")
}

// enableSprinklers clears restrictions in the zone after a refill to NORMAL.
func (s *WaterGateService) enableSprinklers(ctx context.Context, tank *models.Tank, result *WaterUpdateResult) {
	devices, err := s.devices.ListActiveByZone(ctx, tank.Zone)
	if err != nil {
		s.log.Errorw("unrestrict_zone_failed", "err", err, "zone", tank.Zone)
		return
	}

	cleared := 0
	for _, d := range devices {
		if !d.WaterRestriction {
			continue
		}
		if err := s.devices.ClearWaterRestriction(ctx, d.DeviceID); err != nil {
			s.log.Errorw("unrestrict_device_failed", "err", err, "device", d.DeviceID)
			continue
		}
		cleared++
	}

	s.log.Infow("sprinklers_reenabled_for_zone", "zone", tank.Zone, "devices", cleared)
	result.Actions = append(result.Actions, "ENABLE_SPRINKLERS")

	if a := s.createWaterAlert(ctx, tank, models.SubSprinklerEnabled, models.SeverityInfo, tank.CurrentLevel); a != nil {
		result.Alerts = append(result.Alerts, *a)
	}
}

// autoAcknowledge closes out the tank's shortage alerts on recovery.
func (s *WaterGateService) autoAcknowledge(ctx context.Context, tank *models.Tank, result *WaterUpdateResult) {
	open, err := s.alerts.ActiveForTank(ctx, tank.TankID, []string{
		models.SubWaterCritical, models.SubWaterEmpty, models.SubSprinklerDisabled,
	})
	if err != nil {
		s.log.Errorw("auto_ack_list_failed", "err", err, "tank", tank.TankID)
		return
	}

	now := s.clk.Now()
	acked := 0
	for _, a := range open {
		err := s.alerts.Acknowledge(ctx, a.AlertID, "SYSTEM_AUTO",
			"Auto-acknowledged after water tank refill", now)
		if err != nil {
			s.log.Errorw("auto_ack_failed", "err", err, "alert", a.AlertID)
			continue
		}
		acked++
	}

	s.log.Infow("alerts_auto_acknowledged", "tank", tank.TankID, "count", acked)
	result.Actions = append(result.Actions, "AUTO_ACKNOWLEDGE_ALERTS")
}

// notifyMunicipality fires the refill escalation. Notification failure never
// blocks the water path; it is logged and the alert still records the attempt.
func (s *WaterGateService) notifyMunicipality(ctx context.Context, tank *models.Tank, previousLevel float64, result *WaterUpdateResult) {
	title := fmt.Sprintf("Water shortage - tank %s", tank.TankID)
	message := fmt.Sprintf(
		"Tank %s in zone %s dropped to %.1f%% (%s). Refill required; pollution-control sprinklers disabled until replenished.",
		tank.TankID, tank.Zone, tank.CurrentLevel, tank.Status,
	)

	notified := true
	if err := s.notifier.Notify(ctx, "water_shortage", title, message, tank.Zone); err != nil {
		notified = false
		s.log.Errorw("municipality_notify_failed", "err", err, "tank", tank.TankID)
	}

	result.Actions = append(result.Actions, "NOTIFY_MUNICIPALITY")

	a := s.createWaterAlert(ctx, tank, models.SubMunicipalityNote, models.SeverityWarning, previousLevel)
	if a != nil {
		a.ResourceData["municipality_notified"] = notified
		result.Alerts = append(result.Alerts, *a)
	}
}

// createWaterAlert persists a water alert unless the deduplicator suppresses
// it, and appends the tank history record. Returns nil when suppressed.
func (s *WaterGateService) createWaterAlert(ctx context.Context, tank *models.Tank, subcategory, severity string, previousLevel float64) *models.Alert {
	if s.dedup.IsDuplicate(ctx, tank.TankID, subcategory) {
		return nil
	}

	category := models.CategoryWaterResource
	if subcategory == models.SubMunicipalityNote {
		category = models.CategoryMunicipality
	}

	now := s.clk.Now()
	alert := models.Alert{
		AlertID:     uuid.NewString(),
		Category:    category,
		Subcategory: subcategory,
		Severity:    severity,
		Status:      models.AlertActive,
		DeviceID:    tank.SensorDeviceID,
		Zone:        tank.Zone,
		Message:     waterAlertMessage(tank, subcategory),
		ResourceData: map[string]any{
			"tank_id":        tank.TankID,
			"water_level":    tank.CurrentLevel,
			"previous_level": previousLevel,
			"zone":           tank.Zone,
			"sprinklers_disabled": subcategory == models.SubSprinklerDisabled ||
				tank.Status == models.TankCritical || tank.Status == models.TankEmpty,
		},
		Timestamp: now,
	}

	if err := s.alerts.Create(ctx, alert); err != nil {
		s.log.Errorw("water_alert_create_failed", "err", err, "tank", tank.TankID, "subcategory", subcategory)
		return nil
	}
	if err := s.tanks.AppendHistory(ctx, tank.TankID, models.TankAlertRecord{
		AlertID:   alert.AlertID,
		Timestamp: now,
		Level:     tank.CurrentLevel,
		AlertType: subcategory,
	}); err != nil {
		s.log.Errorw("tank_history_append_failed", "err", err, "tank", tank.TankID)
	}

	s.log.Infow("water_alert_created", "tank", tank.TankID, "subcategory", subcategory, "severity", severity)
	return &alert
}

func waterAlertMessage(tank *models.Tank, subcategory string) string {
	switch subcategory {
	case models.SubWaterLow:
		return fmt.Sprintf("Water tank %s level is LOW (%.1f%%). Monitoring closely.", tank.TankID, tank.CurrentLevel)
	case models.SubWaterCritical:
		return fmt.Sprintf("CRITICAL: water tank %s dropped to %.1f%%. Sprinklers disabled, municipality notified.", tank.TankID, tank.CurrentLevel)
	case models.SubWaterEmpty:
		return fmt.Sprintf("EMERGENCY: water tank %s is nearly empty (%.1f%%). All sprinklers forced off.", tank.TankID, tank.CurrentLevel)
	case models.SubWaterRefilled:
		return fmt.Sprintf("Water tank %s refilled to %.1f%%. Sprinklers re-enabled.", tank.TankID, tank.CurrentLevel)
	case models.SubSprinklerDisabled:
		return fmt.Sprintf("Sprinkler system in %s disabled due to water shortage (%.1f%%).", tank.Zone, tank.CurrentLevel)
	case models.SubSprinklerEnabled:
		return fmt.Sprintf("Sprinkler system in %s re-enabled after refill (%.1f%%).", tank.Zone, tank.CurrentLevel)
	case models.SubMunicipalityNote:
		return fmt.Sprintf("Municipality notified about water shortage in %s.", tank.Zone)
	default:
		return fmt.Sprintf("Water tank %s status %s (%.1f%%).", tank.TankID, tank.Status, tank.CurrentLevel)
	}
}

// CanActivateSprinklers decides sprinkler eligibility for a device.
// Order matters: the restriction flag is authoritative before any tank math.
// Missing tank data and lookup failures both resolve to allow.
func (s *WaterGateService) CanActivateSprinklers(ctx context.Context, deviceID string) SprinklerEligibility {
	device, err := s.devices.GetByID(ctx, deviceID)
	if err != nil {
		s.log.Errorw("sprinkler_check_failed_fail_open", "err", err, "device", deviceID)
		return SprinklerEligibility{Allowed: true, Reason: "check failed - fail-safe allow"}
	}
	if device == nil {
		return SprinklerEligibility{Allowed: false, Reason: "device not found"}
	}

	if device.WaterRestriction {
		reason := device.WaterRestrictionReason
		if reason == "" {
			reason = "water shortage in zone"
		}
		return SprinklerEligibility{Allowed: false, Reason: reason}
	}

	tank, err := s.tanks.GetActiveByZone(ctx, device.Zone)
	if err != nil {
		s.log.Errorw("sprinkler_check_failed_fail_open", "err", err, "device", deviceID, "zone", device.Zone)
		return SprinklerEligibility{Allowed: true, Reason: "check failed - fail-safe allow"}
	}
	if tank == nil {
		return SprinklerEligibility{Allowed: true, Reason: "no water tank monitoring for this zone"}
	}

	status := DeriveStatus(tank.CurrentLevel)
	if status == models.TankCritical || status == models.TankEmpty {
		return SprinklerEligibility{
			Allowed: false,
			Reason:  fmt.Sprintf("water tank %s status: %s (%.1f%%)", tank.TankID, status, tank.CurrentLevel),
		}
	}
	return SprinklerEligibility{Allowed: true, Reason: "water available"}
}
