package service

import (
	"context"
	"fmt"

	"airguard/internal/clock"
	"airguard/internal/models"
	"airguard/internal/repository"
)

// TankService is the registry surface for water tanks.
type TankService struct {
	tanks repository.TankRepo
	gate  *WaterGateService
	clk   clock.Clock
}

func NewTankService(tanks repository.TankRepo, gate *WaterGateService, clk clock.Clock) *TankService {
	if clk == nil {
		clk = clock.Real{}
	}
	return &TankService{tanks: tanks, gate: gate, clk: clk}
}

func (s *TankService) List(ctx context.Context) ([]models.Tank, error) {
	return s.tanks.List(ctx)
}

func (s *TankService) Get(ctx context.Context, tankID string) (*models.Tank, error) {
	return s.tanks.GetByID(ctx, tankID)
}

// Register creates or replaces a tank. The status is always derived from the
// level, never taken from the caller.
func (s *TankService) Register(ctx context.Context, t models.Tank) (*models.Tank, error) {
	if t.TankID == "" {
		return nil, fmt.Errorf("tank_id is required")
	}
	if t.Zone == "" {
		return nil, fmt.Errorf("zone is required")
	}
	if t.CurrentLevel < 0 || t.CurrentLevel > 100 {
		return nil, fmt.Errorf("%w: got %.1f", ErrInvalidLevel, t.CurrentLevel)
	}

	t.Status = DeriveStatus(t.CurrentLevel)
	t.IsActive = true
	t.LastUpdateTime = s.clk.Now()
	if err := s.tanks.Save(ctx, t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TankService) History(ctx context.Context, tankID string) ([]models.TankAlertRecord, error) {
	return s.tanks.History(ctx, tankID)
}

// CheckSprinklers answers eligibility for a device without activating anything.
func (s *TankService) CheckSprinklers(ctx context.Context, deviceID string) SprinklerEligibility {
	return s.gate.CanActivateSprinklers(ctx, deviceID)
}
