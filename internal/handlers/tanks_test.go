package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"airguard/internal/models"
	"airguard/internal/service"
)

func TestRegisterTank(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		tk := &mockTanks{regResp: &models.Tank{TankID: "tank-1", Status: models.TankNormal}}
		r := newTestRouter(newMockService(&mockTelemetry{}, &mockAutomation{}, &mockAlerts{}, tk, &mockContacts{}))

		w := doJSON(r, http.MethodPost, "/api/v1/tanks",
			`{"tank_id":"tank-1","zone":"zone-a","current_level":75,"capacity_liters":5000}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
		}
		if tk.lastRegistered.TankID != "tank-1" || tk.lastRegistered.CurrentLevel != 75 {
			t.Fatalf("tank not forwarded: %+v", tk.lastRegistered)
		}
	})

	t.Run("zero level binds", func(t *testing.T) {
		tk := &mockTanks{regResp: &models.Tank{TankID: "tank-1", Status: models.TankEmpty}}
		r := newTestRouter(newMockService(&mockTelemetry{}, &mockAutomation{}, &mockAlerts{}, tk, &mockContacts{}))

		w := doJSON(r, http.MethodPost, "/api/v1/tanks",
			`{"tank_id":"tank-1","zone":"zone-a","current_level":0}`)
		if w.Code != http.StatusOK {
			t.Fatalf("level 0 must bind, got %d: %s", w.Code, w.Body.String())
		}
		if tk.lastRegistered.CurrentLevel != 0 {
			t.Fatalf("zero level not forwarded: %+v", tk.lastRegistered)
		}
	})

	t.Run("missing level is 400", func(t *testing.T) {
		tk := &mockTanks{}
		r := newTestRouter(newMockService(&mockTelemetry{}, &mockAutomation{}, &mockAlerts{}, tk, &mockContacts{}))

		w := doJSON(r, http.MethodPost, "/api/v1/tanks", `{"tank_id":"tank-1","zone":"zone-a"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("out-of-range level is 400", func(t *testing.T) {
		tk := &mockTanks{regErr: fmt.Errorf("%w: got 250.0", service.ErrInvalidLevel)}
		r := newTestRouter(newMockService(&mockTelemetry{}, &mockAutomation{}, &mockAlerts{}, tk, &mockContacts{}))

		w := doJSON(r, http.MethodPost, "/api/v1/tanks",
			`{"tank_id":"tank-1","zone":"zone-a","current_level":250}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestGetTank(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		tk := &mockTanks{getResp: &models.Tank{TankID: "tank-1", Status: models.TankLow}}
		r := newTestRouter(newMockService(&mockTelemetry{}, &mockAutomation{}, &mockAlerts{}, tk, &mockContacts{}))

		w := doJSON(r, http.MethodGet, "/api/v1/tanks/tank-1", "")
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
		}
		var got models.Tank
		_ = json.Unmarshal(w.Body.Bytes(), &got)
		if got.Status != models.TankLow {
			t.Fatalf("unexpected tank: %+v", got)
		}
	})

	t.Run("missing", func(t *testing.T) {
		tk := &mockTanks{}
		r := newTestRouter(newMockService(&mockTelemetry{}, &mockAutomation{}, &mockAlerts{}, tk, &mockContacts{}))

		w := doJSON(r, http.MethodGet, "/api/v1/tanks/ghost", "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})
}

func TestCheckSprinklerEligibility(t *testing.T) {
	tk := &mockTanks{eligibility: service.SprinklerEligibility{
		Allowed: false,
		Reason:  "water tank critical",
	}}
	r := newTestRouter(newMockService(&mockTelemetry{}, &mockAutomation{}, &mockAlerts{}, tk, &mockContacts{}))

	w := doJSON(r, http.MethodGet, "/api/v1/devices/dev-1/sprinkler-eligibility", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if tk.lastCheckedDev != "dev-1" {
		t.Fatalf("device not forwarded: %q", tk.lastCheckedDev)
	}
	var got service.SprinklerEligibility
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Allowed || got.Reason != "water tank critical" {
		t.Fatalf("unexpected eligibility: %+v", got)
	}
}
