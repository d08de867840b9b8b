package service

import (
	"context"

	"airguard/internal/clock"
	"airguard/internal/models"
	"airguard/internal/repository"
)

// AlertOpsService is the operator-facing alert lifecycle: list, inspect,
// acknowledge, resolve. Resolution does not require prior acknowledgement.
type AlertOpsService struct {
	alerts repository.AlertRepo
	clk    clock.Clock
}

func NewAlertOpsService(alerts repository.AlertRepo, clk clock.Clock) *AlertOpsService {
	if clk == nil {
		clk = clock.Real{}
	}
	return &AlertOpsService{alerts: alerts, clk: clk}
}

func (s *AlertOpsService) List(ctx context.Context, f repository.AlertFilter) ([]models.Alert, error) {
	return s.alerts.List(ctx, f)
}

func (s *AlertOpsService) Get(ctx context.Context, alertID string) (*models.Alert, error) {
	return s.alerts.GetByID(ctx, alertID)
}

func (s *AlertOpsService) Acknowledge(ctx context.Context, alertID, by, notes string) error {
	return s.alerts.Acknowledge(ctx, alertID, by, notes, s.clk.Now())
}

func (s *AlertOpsService) Resolve(ctx context.Context, alertID, by, notes string) error {
	return s.alerts.Resolve(ctx, alertID, by, notes, s.clk.Now())
}
