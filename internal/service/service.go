package service

import (
	"context"
	"time"

	"airguard/internal/classifier"
	"airguard/internal/clock"
	"airguard/internal/logger"
	"airguard/internal/models"
	"airguard/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Telemetry is the ingestion surface: AQI sensor events and tank level
// updates enter here and come back as routed action results.
type Telemetry interface {
	ProcessEvent(ctx context.Context, ev models.SensorEvent) (*RouterResult, error)
	ProcessWaterLevelUpdate(ctx context.Context, upd models.WaterLevelUpdate) (*WaterUpdateResult, error)
}

// Automation exposes capability state, the audit trail and manual triggers.
type Automation interface {
	Status(ctx context.Context) (SystemStatus, error)
	Logs(ctx context.Context, deviceID string, limit int) ([]models.AutomationLogEntry, error)
	TriggerManual(ctx context.Context, capability models.Capability, deviceID, zone string) (*RouterResult, error)
}

// Alerts is the operator alert lifecycle.
type Alerts interface {
	List(ctx context.Context, f repository.AlertFilter) ([]models.Alert, error)
	Get(ctx context.Context, alertID string) (*models.Alert, error)
	Acknowledge(ctx context.Context, alertID, by, notes string) error
	Resolve(ctx context.Context, alertID, by, notes string) error
}

// Tanks is the water tank registry and eligibility surface.
type Tanks interface {
	List(ctx context.Context) ([]models.Tank, error)
	Get(ctx context.Context, tankID string) (*models.Tank, error)
	Register(ctx context.Context, t models.Tank) (*models.Tank, error)
	History(ctx context.Context, tankID string) ([]models.TankAlertRecord, error)
	CheckSprinklers(ctx context.Context, deviceID string) SprinklerEligibility
}

// Contacts is the emergency contact registry.
type Contacts interface {
	List(ctx context.Context) ([]models.EmergencyContact, error)
	GetByZone(ctx context.Context, zone string) (*models.EmergencyContact, error)
	Upsert(ctx context.Context, c models.EmergencyContact) error
	Delete(ctx context.Context, zone string) error
}

// Simulator runs the background loop that feeds synthetic telemetry.
// Stop via context cancellation in main() for graceful shutdown.
type Simulator interface {
	Run(ctx context.Context, tick time.Duration)
}

// Config carries the tunables NewService needs beyond the repositories.
type Config struct {
	SigningKey        string
	ClassifierURL     string
	ClassifierTimeout time.Duration
	DedupWindow       time.Duration
	Tracker           TrackerConfig

	// Simulated device/tank identity for the background loop.
	SimDeviceID string
	SimZone     string
	SimTankID   string
}

// TelemetryService fronts the router and the water gate behind one surface.
type TelemetryService struct {
	router *ActionRouter
	gate   *WaterGateService
}

func NewTelemetryService(router *ActionRouter, gate *WaterGateService) *TelemetryService {
	return &TelemetryService{router: router, gate: gate}
}

func (s *TelemetryService) ProcessEvent(ctx context.Context, ev models.SensorEvent) (*RouterResult, error) {
	return s.router.ProcessEvent(ctx, ev)
}

func (s *TelemetryService) ProcessWaterLevelUpdate(ctx context.Context, upd models.WaterLevelUpdate) (*WaterUpdateResult, error) {
	return s.gate.ProcessWaterLevelUpdate(ctx, upd)
}

// Service aggregates all sub-services.
type Service struct {
	Telemetry
	Automation
	Alerts
	Tanks
	Contacts
	Simulator
	Authorization
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, cfg Config, log *logger.Logger) *Service {
	clk := clock.Real{}

	tracker := NewAutomationTracker(cfg.Tracker, clk)
	dedup := NewAlertDeduplicator(repos.Alerts, cfg.DedupWindow, clk, log)
	notifier := NewLogNotifier(log)
	actuator := NewLogActuator(log)
	classify := NewClassifyService(classifier.NewClient(cfg.ClassifierURL, cfg.ClassifierTimeout), log)

	gate := NewWaterGateService(repos.Tanks, repos.Devices, repos.Alerts,
		dedup, tracker, notifier, actuator, clk, log)
	router := NewActionRouter(classify, gate, tracker,
		repos.Alerts, repos.Contacts, repos.AutomationLog,
		dedup, notifier, actuator, clk, log)
	telemetry := NewTelemetryService(router, gate)

	return &Service{
		Telemetry:     telemetry,
		Automation:    NewAutomationService(tracker, router, repos.Tanks, repos.AutomationLog),
		Alerts:        NewAlertOpsService(repos.Alerts, clk),
		Tanks:         NewTankService(repos.Tanks, gate, clk),
		Contacts:      NewContactService(repos.Contacts),
		Simulator:     NewSimulatorService(telemetry, tracker, cfg.SimDeviceID, cfg.SimZone, cfg.SimTankID, log),
		Authorization: NewAuthService(repos.Auth, cfg.SigningKey),
	}
}
