package service

import (
	"context"

	"airguard/internal/logger"
)

// Actuator is the fire-and-forget command boundary toward physical
// controllers. Outcomes are recorded but no synchronous confirmation of
// physical effect is assumed.
type Actuator interface {
	DispatchDrone(ctx context.Context, zone, deviceID string) error
	SetPumpRelay(ctx context.Context, deviceID string, on bool) error
	SetVentilation(ctx context.Context, deviceID string, on bool) error
}

// LogActuator logs commands instead of driving hardware; the production
// deployment swaps in a controller-backed implementation.
type LogActuator struct {
	log *logger.Logger
}

func NewLogActuator(log *logger.Logger) *LogActuator { return &LogActuator{log: log} }

var _ Actuator = (*LogActuator)(nil)

func (a *LogActuator) DispatchDrone(_ context.Context, zone, deviceID string) error {
	a.log.Infow("actuator_drone_dispatch", "zone", zone, "device", deviceID)
	return nil
}

func (a *LogActuator) SetPumpRelay(_ context.Context, deviceID string, on bool) error {
	a.log.Infow("actuator_pump_relay", "device", deviceID, "on", on)
	return nil
}

func (a *LogActuator) SetVentilation(_ context.Context, deviceID string, on bool) error {
	a.log.Infow("actuator_ventilation", "device", deviceID, "on", on)
	return nil
}
