package service

import (
	"context"

	"airguard/internal/models"
	"airguard/internal/repository"
)

// SystemStatus is the read-only snapshot served to dashboards and the
// websocket stream.
type SystemStatus struct {
	Capabilities map[models.Capability]models.CapabilityState `json:"capabilities"`
	Tanks        []models.Tank                                `json:"tanks"`
}

// AutomationService exposes tracker state, the audit trail and manual
// triggering.
type AutomationService struct {
	tracker *AutomationTracker
	router  *ActionRouter
	tanks   repository.TankRepo
	audit   repository.AutomationLogRepo
}

func NewAutomationService(tracker *AutomationTracker, router *ActionRouter, tanks repository.TankRepo, audit repository.AutomationLogRepo) *AutomationService {
	return &AutomationService{tracker: tracker, router: router, tanks: tanks, audit: audit}
}

// Status returns the capability snapshot plus current tank states. A tank
// listing failure degrades to a capability-only snapshot rather than an
// error: the tracker state is in memory and always answerable.
func (s *AutomationService) Status(ctx context.Context) (SystemStatus, error) {
	status := SystemStatus{Capabilities: s.tracker.Status()}
	tanks, err := s.tanks.List(ctx)
	if err == nil {
		status.Tanks = tanks
	}
	return status, nil
}

// Logs returns the most recent audit entries, optionally scoped to a device.
func (s *AutomationService) Logs(ctx context.Context, deviceID string, limit int) ([]models.AutomationLogEntry, error) {
	return s.audit.List(ctx, deviceID, limit)
}

// TriggerManual runs one capability on demand for an operator.
func (s *AutomationService) TriggerManual(ctx context.Context, capability models.Capability, deviceID, zone string) (*RouterResult, error) {
	return s.router.TriggerManualAction(ctx, capability, deviceID, zone)
}
