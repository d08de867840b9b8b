package handlers

import (
	"net/http"
	"testing"
)

func TestUpsertContact(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ct := &mockContacts{}
		r := newTestRouter(newMockService(&mockTelemetry{}, &mockAutomation{}, &mockAlerts{}, &mockTanks{}, ct))

		w := doJSON(r, http.MethodPut, "/api/v1/contacts",
			`{"zone":"zone-a","email":"brigade@city.example","contact_person":"Duty Officer"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
		}
		if ct.lastUpserted.Zone != "zone-a" || ct.lastUpserted.Email != "brigade@city.example" {
			t.Fatalf("contact not forwarded: %+v", ct.lastUpserted)
		}
	})

	t.Run("bad email is 400", func(t *testing.T) {
		ct := &mockContacts{}
		r := newTestRouter(newMockService(&mockTelemetry{}, &mockAutomation{}, &mockAlerts{}, &mockTanks{}, ct))

		w := doJSON(r, http.MethodPut, "/api/v1/contacts", `{"zone":"zone-a","email":"not-an-email"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for bad email, got %d", w.Code)
		}
	})
}

func TestDeleteContact(t *testing.T) {
	ct := &mockContacts{}
	r := newTestRouter(newMockService(&mockTelemetry{}, &mockAutomation{}, &mockAlerts{}, &mockTanks{}, ct))

	w := doJSON(r, http.MethodDelete, "/api/v1/contacts/zone-a", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if ct.lastDeleted != "zone-a" {
		t.Fatalf("zone not forwarded: %q", ct.lastDeleted)
	}
}
