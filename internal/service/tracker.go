package service

import (
	"fmt"
	"sync"
	"time"

	"airguard/internal/clock"
	"airguard/internal/models"
)

// Tracker defaults; all three are configurable via TrackerConfig.
const (
	DefaultSprinklingCooldown  = 30 * time.Minute
	DefaultVentilationCooldown = 15 * time.Minute
	DefaultSafetyDelay         = 5 * time.Second
)

// TrackerConfig tunes per-capability cooldowns and the sprinkler safety delay.
type TrackerConfig struct {
	SprinklingCooldown  time.Duration
	VentilationCooldown time.Duration
	DroneCooldown       time.Duration // 0 disables (source behavior)
	SafetyDelay         time.Duration
}

func (c TrackerConfig) withDefaults() TrackerConfig {
	if c.SprinklingCooldown <= 0 {
		c.SprinklingCooldown = DefaultSprinklingCooldown
	}
	if c.VentilationCooldown <= 0 {
		c.VentilationCooldown = DefaultVentilationCooldown
	}
	if c.SafetyDelay <= 0 {
		c.SafetyDelay = DefaultSafetyDelay
	}
	return c
}

// ActivationResult reports the outcome of an activation attempt.
type ActivationResult struct {
	Activated  bool
	Pending    bool          // sprinkler safety delay scheduled
	OnCooldown bool
	Remaining  time.Duration // cooldown remaining when rejected
}

// AutomationTracker owns the per-capability activation/cooldown state as one
// explicit object; it is the only writer of that state, and every operation
// takes its mutex, so near-simultaneous activation attempts serialize here.
type AutomationTracker struct {
	mu    sync.Mutex
	cfg   TrackerConfig
	clk   clock.Clock
	state map[models.Capability]*models.CapabilityState

	// Callback for the in-flight sprinkler delay; invoked outside the lock
	// when the delayed activation actually lands.
	sprinklerOnActive func()
}

func NewAutomationTracker(cfg TrackerConfig, clk clock.Clock) *AutomationTracker {
	if clk == nil {
		clk = clock.Real{}
	}
	t := &AutomationTracker{
		cfg:   cfg.withDefaults(),
		clk:   clk,
		state: make(map[models.Capability]*models.CapabilityState, 4),
	}
	for _, c := range []models.Capability{
		models.CapSprinkling, models.CapVentilation, models.CapDrone, models.CapEmergency,
	} {
		t.state[c] = &models.CapabilityState{}
	}
	return t
}

func (t *AutomationTracker) cooldownFor(cap models.Capability) time.Duration {
	switch cap {
	case models.CapSprinkling:
		return t.cfg.SprinklingCooldown
	case models.CapVentilation:
		return t.cfg.VentilationCooldown
	case models.CapDrone:
		return t.cfg.DroneCooldown
	default:
		return 0
	}
}

// Activate attempts to activate a capability. On cooldown the attempt is
// rejected with the remaining time. Ventilation, drone and emergency-notify
// flip active immediately; sprinkling first passes through a one-shot safety
// delay that absorbs transient readings before the pumps actually start.
//
// The delayed sprinkler activation is deliberately not cancellable by
// normalized readings: once the delay is scheduled it fires even if the AQI
// drops in the meantime, matching the upstream controller. Only
// ForceDeactivate (the water-empty override) aborts a scheduled delay.
//
// onActive, if non-nil, runs once the capability actually flips active; for
// sprinkling that is after the safety delay, for everything else immediately.
func (t *AutomationTracker) Activate(cap models.Capability, onActive func()) (ActivationResult, error) {
	t.mu.Lock()

	st, ok := t.state[cap]
	if !ok {
		t.mu.Unlock()
		return ActivationResult{}, fmt.Errorf("unknown capability %q", cap)
	}

	now := t.clk.Now()
	if now.Before(st.CooldownUntil) {
		remaining := st.CooldownUntil.Sub(now)
		t.mu.Unlock()
		return ActivationResult{OnCooldown: true, Remaining: remaining}, nil
	}

	if cap == models.CapSprinkling {
		if !st.PendingSince.IsZero() {
			// Delay already scheduled; nothing more to do.
			t.mu.Unlock()
			return ActivationResult{Pending: true}, nil
		}
		st.PendingSince = now
		t.sprinklerOnActive = onActive
		time.AfterFunc(t.cfg.SafetyDelay, func() { t.completeSprinkling(cap) })
		t.mu.Unlock()
		return ActivationResult{Pending: true}, nil
	}

	t.markActive(st, cap, now)
	t.mu.Unlock()
	if onActive != nil {
		onActive()
	}
	return ActivationResult{Activated: true}, nil
}

// completeSprinkling flips sprinkling active once the safety delay elapses.
// Only the cooldown is re-checked at fire time; a cleared PendingSince means
// ForceDeactivate aborted the delay.
func (t *AutomationTracker) completeSprinkling(cap models.Capability) {
	t.mu.Lock()

	st := t.state[cap]
	if st.PendingSince.IsZero() {
		t.sprinklerOnActive = nil
		t.mu.Unlock()
		return
	}
	st.PendingSince = time.Time{}
	cb := t.sprinklerOnActive
	t.sprinklerOnActive = nil

	now := t.clk.Now()
	if now.Before(st.CooldownUntil) {
		t.mu.Unlock()
		return
	}
	t.markActive(st, cap, now)
	t.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (t *AutomationTracker) markActive(st *models.CapabilityState, cap models.Capability, now time.Time) {
	st.Active = true
	st.LastActivatedAt = now
	if d := t.cooldownFor(cap); d > 0 {
		st.CooldownUntil = now.Add(d)
	}
}

// DeactivateAll resets active=false for every capability once the AQI drops
// below the alert tier. Cooldowns persist so a bouncing reading cannot
// re-trigger immediately. Idempotent.
func (t *AutomationTracker) DeactivateAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, st := range t.state {
		st.Active = false
	}
}

// ForceDeactivate turns a capability off regardless of its cooldown or
// pending state; used by the water gate's emergency override on EMPTY. A
// sprinkler delay in flight is aborted.
func (t *AutomationTracker) ForceDeactivate(cap models.Capability) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.state[cap]; ok {
		st.Active = false
		st.PendingSince = time.Time{}
		if cap == models.CapSprinkling {
			t.sprinklerOnActive = nil
		}
	}
}

// IsActive reports whether a capability is currently active.
func (t *AutomationTracker) IsActive(cap models.Capability) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.state[cap]; ok {
		return st.Active
	}
	return false
}

// Status returns a snapshot of all capability states.
func (t *AutomationTracker) Status() map[models.Capability]models.CapabilityState {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[models.Capability]models.CapabilityState, len(t.state))
	for cap, st := range t.state {
		out[cap] = *st
	}
	return out
}
