package service

import (
	"testing"
	"time"

	"airguard/internal/models"
)

func TestTracker_ImmediateActivationAndCooldown(t *testing.T) {
	clk := newFakeClock()
	tr := NewAutomationTracker(TrackerConfig{VentilationCooldown: 15 * time.Minute}, clk)

	res, err := tr.Activate(models.CapVentilation, nil)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !res.Activated || res.Pending || res.OnCooldown {
		t.Fatalf("first activation: want Activated, got %+v", res)
	}
	if !tr.IsActive(models.CapVentilation) {
		t.Fatal("ventilation should be active")
	}

	// Second attempt inside the cooldown is rejected with remaining time.
	clk.advance(5 * time.Minute)
	res, err = tr.Activate(models.CapVentilation, nil)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !res.OnCooldown {
		t.Fatalf("want OnCooldown, got %+v", res)
	}
	if res.Remaining != 10*time.Minute {
		t.Errorf("remaining: want 10m, got %v", res.Remaining)
	}

	// After the cooldown elapses, activation succeeds again.
	clk.advance(10 * time.Minute)
	res, _ = tr.Activate(models.CapVentilation, nil)
	if !res.Activated {
		t.Fatalf("post-cooldown: want Activated, got %+v", res)
	}
}

func TestTracker_DroneCooldownDisabled(t *testing.T) {
	clk := newFakeClock()
	tr := NewAutomationTracker(TrackerConfig{}, clk)

	for i := 0; i < 3; i++ {
		res, err := tr.Activate(models.CapDrone, nil)
		if err != nil {
			t.Fatalf("activate %d: %v", i, err)
		}
		if !res.Activated {
			t.Fatalf("attempt %d: drone has no cooldown and must always activate, got %+v", i, res)
		}
	}
}

func TestTracker_SprinklingSafetyDelay(t *testing.T) {
	clk := newFakeClock()
	tr := NewAutomationTracker(TrackerConfig{SafetyDelay: 20 * time.Millisecond}, clk)

	fired := make(chan struct{})
	res, err := tr.Activate(models.CapSprinkling, func() { close(fired) })
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !res.Pending || res.Activated {
		t.Fatalf("sprinkling must be Pending first, got %+v", res)
	}
	if tr.IsActive(models.CapSprinkling) {
		t.Fatal("sprinkling must not be active during the safety delay")
	}

	// Re-activation while pending is a no-op.
	res, _ = tr.Activate(models.CapSprinkling, nil)
	if !res.Pending {
		t.Fatalf("second attempt while pending: want Pending, got %+v", res)
	}

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("safety-delay callback never fired")
	}
	if !tr.IsActive(models.CapSprinkling) {
		t.Fatal("sprinkling should be active after the delay")
	}
}

func TestTracker_ForceDeactivateAbortsPendingDelay(t *testing.T) {
	clk := newFakeClock()
	tr := NewAutomationTracker(TrackerConfig{SafetyDelay: 20 * time.Millisecond}, clk)

	fired := make(chan struct{}, 1)
	if _, err := tr.Activate(models.CapSprinkling, func() { fired <- struct{}{} }); err != nil {
		t.Fatalf("activate: %v", err)
	}

	tr.ForceDeactivate(models.CapSprinkling)

	time.Sleep(80 * time.Millisecond)
	select {
	case <-fired:
		t.Fatal("callback must not fire after ForceDeactivate")
	default:
	}
	if tr.IsActive(models.CapSprinkling) {
		t.Fatal("sprinkling must stay off after ForceDeactivate")
	}
}

func TestTracker_DeactivateAllKeepsCooldowns(t *testing.T) {
	clk := newFakeClock()
	tr := NewAutomationTracker(TrackerConfig{VentilationCooldown: 15 * time.Minute}, clk)

	if _, err := tr.Activate(models.CapVentilation, nil); err != nil {
		t.Fatalf("activate: %v", err)
	}
	tr.DeactivateAll()

	if tr.IsActive(models.CapVentilation) {
		t.Fatal("ventilation should be inactive after DeactivateAll")
	}

	// The cooldown survives deactivation: a bouncing reading cannot retrigger.
	clk.advance(time.Minute)
	res, _ := tr.Activate(models.CapVentilation, nil)
	if !res.OnCooldown {
		t.Fatalf("cooldown must persist across DeactivateAll, got %+v", res)
	}
}

func TestTracker_StatusSnapshot(t *testing.T) {
	clk := newFakeClock()
	tr := NewAutomationTracker(TrackerConfig{}, clk)

	if _, err := tr.Activate(models.CapVentilation, nil); err != nil {
		t.Fatalf("activate: %v", err)
	}

	status := tr.Status()
	if len(status) != 4 {
		t.Fatalf("want 4 capabilities in snapshot, got %d", len(status))
	}
	if !status[models.CapVentilation].Active {
		t.Error("snapshot should show ventilation active")
	}
	if status[models.CapDrone].Active {
		t.Error("snapshot should show drone inactive")
	}
}

func TestTracker_UnknownCapability(t *testing.T) {
	tr := NewAutomationTracker(TrackerConfig{}, newFakeClock())
	if _, err := tr.Activate("bogus", nil); err == nil {
		t.Fatal("expected error for unknown capability")
	}
}
