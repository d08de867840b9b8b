package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"airguard/internal/models"
)

func TestDeriveStatus_Boundaries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		level float64
		want  models.TankStatus
	}{
		{0, models.TankEmpty},
		{4.9, models.TankEmpty},
		{5, models.TankCritical},
		{19.9, models.TankCritical},
		{20, models.TankLow},
		{39.9, models.TankLow},
		{40, models.TankNormal},
		{100, models.TankNormal},
	}
	for _, tc := range cases {
		if got := DeriveStatus(tc.level); got != tc.want {
			t.Errorf("DeriveStatus(%v) = %s, want %s", tc.level, got, tc.want)
		}
	}
}

func TestDetectCrossing(t *testing.T) {
	t.Parallel()

	// Same band: no crossing even when the value moves.
	if c := DetectCrossing(95, 45); c.Crossed {
		t.Errorf("95→45 stays NORMAL, got crossing %+v", c)
	}

	c := DetectCrossing(45, 15)
	if !c.Crossed || c.From != models.TankNormal || c.To != models.TankCritical {
		t.Fatalf("45→15: want NORMAL→CRITICAL, got %+v", c)
	}
	if c.Direction != "decreasing" || c.Severity != models.SeverityCritical {
		t.Errorf("45→15: want decreasing/critical, got %s/%s", c.Direction, c.Severity)
	}

	c = DetectCrossing(45, 30)
	if c.To != models.TankLow || c.Severity != models.SeverityWarning {
		t.Errorf("45→30: want LOW/warning, got %s/%s", c.To, c.Severity)
	}

	c = DetectCrossing(15, 45)
	if !c.Crossed || c.Direction != "increasing" || c.To != models.TankNormal {
		t.Fatalf("15→45: want increasing to NORMAL, got %+v", c)
	}
	if c.Severity != models.SeverityInfo {
		t.Errorf("refill severity: want info, got %s", c.Severity)
	}
}

type gateFixture struct {
	gate     *WaterGateService
	tanks    *fakeTankRepo
	devices  *fakeDeviceRepo
	alerts   *fakeAlertRepo
	tracker  *AutomationTracker
	notifier *fakeNotifier
	actuator *fakeActuator
	clk      *fakeClock
}

func newGateFixture(tanks []models.Tank, devices []models.Device) *gateFixture {
	f := &gateFixture{
		tanks:    newFakeTankRepo(tanks...),
		devices:  newFakeDeviceRepo(devices...),
		alerts:   &fakeAlertRepo{},
		notifier: &fakeNotifier{},
		actuator: &fakeActuator{},
		clk:      newFakeClock(),
	}
	f.tracker = NewAutomationTracker(TrackerConfig{SafetyDelay: 10 * time.Millisecond}, f.clk)
	dedup := NewAlertDeduplicator(f.alerts, time.Hour, f.clk, testLog())
	f.gate = NewWaterGateService(f.tanks, f.devices, f.alerts, dedup, f.tracker,
		f.notifier, f.actuator, f.clk, testLog())
	return f
}

func normalTank() models.Tank {
	return models.Tank{
		TankID:         "tank-1",
		Zone:           "zone-a",
		CapacityLiters: 5000,
		CurrentLevel:   45,
		Status:         models.TankNormal,
		SensorDeviceID: "sensor-1",
		IsActive:       true,
	}
}

func zoneDevice(id string) models.Device {
	return models.Device{DeviceID: id, Zone: "zone-a", IsActive: true}
}

func TestProcessWaterLevelUpdate_InvalidLevelRejectedBeforeMutation(t *testing.T) {
	f := newGateFixture([]models.Tank{normalTank()}, nil)

	for _, level := range []float64{-1, 100.1, 250} {
		_, err := f.gate.ProcessWaterLevelUpdate(context.Background(), models.WaterLevelUpdate{
			TankID: "tank-1", WaterLevel: level,
		})
		if !errors.Is(err, ErrInvalidLevel) {
			t.Fatalf("level %v: want ErrInvalidLevel, got %v", level, err)
		}
	}
	if f.tanks.saved != 0 {
		t.Fatal("invalid update must not mutate the tank")
	}
}

func TestProcessWaterLevelUpdate_UnknownTank(t *testing.T) {
	f := newGateFixture(nil, nil)

	_, err := f.gate.ProcessWaterLevelUpdate(context.Background(), models.WaterLevelUpdate{
		TankID: "ghost", WaterLevel: 50,
	})
	if !errors.Is(err, ErrTankNotFound) {
		t.Fatalf("want ErrTankNotFound, got %v", err)
	}
}

func TestProcessWaterLevelUpdate_NoCrossingSameBand(t *testing.T) {
	f := newGateFixture([]models.Tank{normalTank()}, []models.Device{zoneDevice("dev-1")})

	res, err := f.gate.ProcessWaterLevelUpdate(context.Background(), models.WaterLevelUpdate{
		TankID: "tank-1", WaterLevel: 60,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.Crossing.Crossed {
		t.Fatalf("45→60 stays NORMAL, got crossing %+v", res.Crossing)
	}
	if len(f.alerts.alerts) != 0 {
		t.Fatalf("no alerts expected, got %d", len(f.alerts.alerts))
	}
	if res.Tank.CurrentLevel != 60 {
		t.Errorf("level not persisted: %v", res.Tank.CurrentLevel)
	}
}

func TestProcessWaterLevelUpdate_DropToCritical(t *testing.T) {
	f := newGateFixture([]models.Tank{normalTank()},
		[]models.Device{zoneDevice("dev-1"), zoneDevice("dev-2")})

	res, err := f.gate.ProcessWaterLevelUpdate(context.Background(), models.WaterLevelUpdate{
		TankID: "tank-1", WaterLevel: 15, SensorDeviceID: "sensor-1",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if res.Tank.Status != models.TankCritical {
		t.Fatalf("status: want CRITICAL, got %s", res.Tank.Status)
	}

	// Every active device in the zone is restricted.
	for _, id := range []string{"dev-1", "dev-2"} {
		if d := f.devices.devices[id]; !d.WaterRestriction {
			t.Errorf("device %s should carry a water restriction", id)
		}
	}

	// Municipality notified exactly once.
	if len(f.notifier.notifyKinds) != 1 || f.notifier.notifyKinds[0] != "water_shortage" {
		t.Errorf("municipality notify: got %v", f.notifier.notifyKinds)
	}

	// Alerts: main crossing + sprinkler disable + municipality note.
	if n := len(f.alerts.bySubcategory(models.SubWaterCritical)); n != 1 {
		t.Errorf("WATER_CRITICAL alerts: want 1, got %d", n)
	}
	if n := len(f.alerts.bySubcategory(models.SubSprinklerDisabled)); n != 1 {
		t.Errorf("SPRINKLER_DISABLED_WATER alerts: want 1, got %d", n)
	}
	if n := len(f.alerts.bySubcategory(models.SubMunicipalityNote)); n != 1 {
		t.Errorf("MUNICIPALITY_NOTIFIED alerts: want 1, got %d", n)
	}

	// History recorded per created alert.
	if len(f.tanks.history["tank-1"]) == 0 {
		t.Error("tank history should carry the crossing")
	}

	// No pump relays were on, so nothing forced off.
	if len(f.actuator.pumpOff) != 0 {
		t.Errorf("no pump force-off expected at CRITICAL, got %v", f.actuator.pumpOff)
	}
}

func TestProcessWaterLevelUpdate_DropToEmptyForcesPumpsOff(t *testing.T) {
	dev := zoneDevice("dev-1")
	dev.PumpRelayOn = true
	f := newGateFixture([]models.Tank{normalTank()}, []models.Device{dev})

	// Sprinkling active before the tank runs dry.
	if _, err := f.tracker.Activate(models.CapVentilation, nil); err != nil {
		t.Fatalf("activate: %v", err)
	}
	f.tracker.state[models.CapSprinkling].Active = true

	res, err := f.gate.ProcessWaterLevelUpdate(context.Background(), models.WaterLevelUpdate{
		TankID: "tank-1", WaterLevel: 2,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if res.Tank.Status != models.TankEmpty {
		t.Fatalf("status: want EMPTY, got %s", res.Tank.Status)
	}
	if len(f.actuator.pumpOff) != 1 || f.actuator.pumpOff[0] != "dev-1" {
		t.Fatalf("pump force-off: got %v", f.actuator.pumpOff)
	}
	if f.devices.devices["dev-1"].PumpRelayOn {
		t.Error("pump relay should be persisted off")
	}
	if f.tracker.IsActive(models.CapSprinkling) {
		t.Error("sprinkling capability must be force-deactivated on EMPTY")
	}
	if f.tracker.IsActive(models.CapVentilation) == false {
		t.Error("other capabilities must be untouched by the EMPTY override")
	}
	if n := len(f.alerts.bySubcategory(models.SubWaterEmpty)); n != 1 {
		t.Errorf("WATER_EMPTY alerts: want 1, got %d", n)
	}
}

func TestProcessWaterLevelUpdate_RefillRecovery(t *testing.T) {
	tank := normalTank()
	f := newGateFixture([]models.Tank{tank}, []models.Device{zoneDevice("dev-1")})

	// Drop to CRITICAL first: restriction + alerts appear.
	if _, err := f.gate.ProcessWaterLevelUpdate(context.Background(), models.WaterLevelUpdate{
		TankID: "tank-1", WaterLevel: 15,
	}); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if !f.devices.devices["dev-1"].WaterRestriction {
		t.Fatal("precondition: device restricted")
	}

	// Refill to NORMAL.
	f.clk.advance(10 * time.Minute)
	res, err := f.gate.ProcessWaterLevelUpdate(context.Background(), models.WaterLevelUpdate{
		TankID: "tank-1", WaterLevel: 80,
	})
	if err != nil {
		t.Fatalf("refill: %v", err)
	}

	if res.Crossing.Direction != "increasing" || res.Crossing.To != models.TankNormal {
		t.Fatalf("crossing: %+v", res.Crossing)
	}
	if f.devices.devices["dev-1"].WaterRestriction {
		t.Error("restriction must be cleared on recovery")
	}

	// Shortage alerts auto-acknowledged by the system actor.
	if len(f.alerts.acked) == 0 {
		t.Fatal("expected auto-acknowledged alerts")
	}
	for _, a := range f.alerts.alerts {
		if a.Subcategory == models.SubWaterCritical && a.Status != models.AlertAcknowledged {
			t.Errorf("WATER_CRITICAL should be acknowledged, got %s", a.Status)
		}
		if a.Subcategory == models.SubWaterCritical && a.AcknowledgedBy != "SYSTEM_AUTO" {
			t.Errorf("acknowledged_by: want SYSTEM_AUTO, got %q", a.AcknowledgedBy)
		}
	}

	if n := len(f.alerts.bySubcategory(models.SubWaterRefilled)); n != 1 {
		t.Errorf("WATER_REFILLED alerts: want 1, got %d", n)
	}
	if n := len(f.alerts.bySubcategory(models.SubSprinklerEnabled)); n != 1 {
		t.Errorf("SPRINKLER_REENABLED alerts: want 1, got %d", n)
	}
}

func TestProcessWaterLevelUpdate_DedupSuppressesRepeatCrossings(t *testing.T) {
	f := newGateFixture([]models.Tank{normalTank()}, []models.Device{zoneDevice("dev-1")})
	ctx := context.Background()

	// NORMAL→CRITICAL, bounce to LOW, back to CRITICAL inside the window.
	for _, level := range []float64{15, 25, 12} {
		f.clk.advance(time.Minute)
		if _, err := f.gate.ProcessWaterLevelUpdate(ctx, models.WaterLevelUpdate{
			TankID: "tank-1", WaterLevel: level,
		}); err != nil {
			t.Fatalf("update to %v: %v", level, err)
		}
	}

	// The second CRITICAL crossing is suppressed while the first alert is active.
	if n := len(f.alerts.bySubcategory(models.SubWaterCritical)); n != 1 {
		t.Errorf("WATER_CRITICAL alerts: want 1 (dedup), got %d", n)
	}
}

func TestCanActivateSprinklers(t *testing.T) {
	restricted := zoneDevice("dev-restricted")
	restricted.WaterRestriction = true
	restricted.WaterRestrictionReason = "Water tank tank-1 CRITICAL (15.0%)"

	free := zoneDevice("dev-free")

	lonely := models.Device{DeviceID: "dev-lonely", Zone: "zone-without-tank", IsActive: true}

	criticalTank := normalTank()
	criticalTank.CurrentLevel = 10
	criticalTank.Status = models.TankCritical

	t.Run("restriction flag denies before tank math", func(t *testing.T) {
		f := newGateFixture([]models.Tank{normalTank()}, []models.Device{restricted})
		elig := f.gate.CanActivateSprinklers(context.Background(), "dev-restricted")
		if elig.Allowed {
			t.Fatalf("restricted device must be denied: %+v", elig)
		}
		if elig.Reason != restricted.WaterRestrictionReason {
			t.Errorf("reason: got %q", elig.Reason)
		}
	})

	t.Run("unknown device denied", func(t *testing.T) {
		f := newGateFixture(nil, nil)
		if elig := f.gate.CanActivateSprinklers(context.Background(), "ghost"); elig.Allowed {
			t.Fatalf("unknown device must be denied: %+v", elig)
		}
	})

	t.Run("no tank in zone allows", func(t *testing.T) {
		f := newGateFixture(nil, []models.Device{lonely})
		elig := f.gate.CanActivateSprinklers(context.Background(), "dev-lonely")
		if !elig.Allowed {
			t.Fatalf("zone without tank monitoring must allow: %+v", elig)
		}
	})

	t.Run("critical tank denies", func(t *testing.T) {
		f := newGateFixture([]models.Tank{criticalTank}, []models.Device{free})
		if elig := f.gate.CanActivateSprinklers(context.Background(), "dev-free"); elig.Allowed {
			t.Fatalf("critical tank must deny: %+v", elig)
		}
	})

	t.Run("normal tank allows", func(t *testing.T) {
		f := newGateFixture([]models.Tank{normalTank()}, []models.Device{free})
		if elig := f.gate.CanActivateSprinklers(context.Background(), "dev-free"); !elig.Allowed {
			t.Fatalf("normal tank must allow: %+v", elig)
		}
	})

	t.Run("tank lookup failure fails open", func(t *testing.T) {
		f := newGateFixture(nil, []models.Device{free})
		f.tanks.getErr = errors.New("db down")
		elig := f.gate.CanActivateSprinklers(context.Background(), "dev-free")
		if !elig.Allowed {
			t.Fatalf("lookup failure must fail open: %+v", elig)
		}
		if elig.Reason != "check failed - fail-safe allow" {
			t.Errorf("reason: got %q", elig.Reason)
		}
	})

	t.Run("device lookup failure fails open", func(t *testing.T) {
		f := newGateFixture(nil, nil)
		f.devices.getErr = errors.New("db down")
		if elig := f.gate.CanActivateSprinklers(context.Background(), "dev-free"); !elig.Allowed {
			t.Fatalf("device lookup failure must fail open: %+v", elig)
		}
	})
}
