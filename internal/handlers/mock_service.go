package handlers

import (
	"context"
	"net/http"
	"time"

	"airguard/internal/models"
	"airguard/internal/repository"
	"airguard/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockTelemetry struct {
	eventResult *service.RouterResult
	eventErr    error
	levelResult *service.WaterUpdateResult
	levelErr    error

	lastEvent  models.SensorEvent
	lastUpdate models.WaterLevelUpdate
	eventCalls int
	levelCalls int
}

func (m *mockTelemetry) ProcessEvent(ctx context.Context, ev models.SensorEvent) (*service.RouterResult, error) {
	m.eventCalls++
	m.lastEvent = ev
	return m.eventResult, m.eventErr
}
func (m *mockTelemetry) ProcessWaterLevelUpdate(ctx context.Context, upd models.WaterLevelUpdate) (*service.WaterUpdateResult, error) {
	m.levelCalls++
	m.lastUpdate = upd
	return m.levelResult, m.levelErr
}

type mockAutomation struct {
	status     service.SystemStatus
	statusErr  error
	logs       []models.AutomationLogEntry
	logsErr    error
	trigResult *service.RouterResult
	trigErr    error

	lastTrigCap    models.Capability
	lastTrigDevice string
}

func (m *mockAutomation) Status(ctx context.Context) (service.SystemStatus, error) {
	return m.status, m.statusErr
}
func (m *mockAutomation) Logs(ctx context.Context, deviceID string, limit int) ([]models.AutomationLogEntry, error) {
	return m.logs, m.logsErr
}
func (m *mockAutomation) TriggerManual(ctx context.Context, capability models.Capability, deviceID, zone string) (*service.RouterResult, error) {
	m.lastTrigCap = capability
	m.lastTrigDevice = deviceID
	return m.trigResult, m.trigErr
}

type mockAlerts struct {
	listResp []models.Alert
	listErr  error
	getResp  *models.Alert
	getErr   error
	ackErr   error
	resErr   error

	lastFilter repository.AlertFilter
	lastAckID  string
	lastAckBy  string
}

func (m *mockAlerts) List(ctx context.Context, f repository.AlertFilter) ([]models.Alert, error) {
	m.lastFilter = f
	return m.listResp, m.listErr
}
func (m *mockAlerts) Get(ctx context.Context, alertID string) (*models.Alert, error) {
	return m.getResp, m.getErr
}
func (m *mockAlerts) Acknowledge(ctx context.Context, alertID, by, notes string) error {
	m.lastAckID = alertID
	m.lastAckBy = by
	return m.ackErr
}
func (m *mockAlerts) Resolve(ctx context.Context, alertID, by, notes string) error {
	return m.resErr
}

type mockTanks struct {
	listResp    []models.Tank
	listErr     error
	getResp     *models.Tank
	getErr      error
	regResp     *models.Tank
	regErr      error
	histResp    []models.TankAlertRecord
	histErr     error
	eligibility service.SprinklerEligibility

	lastRegistered models.Tank
	lastCheckedDev string
}

func (m *mockTanks) List(ctx context.Context) ([]models.Tank, error) { return m.listResp, m.listErr }
func (m *mockTanks) Get(ctx context.Context, tankID string) (*models.Tank, error) {
	return m.getResp, m.getErr
}
func (m *mockTanks) Register(ctx context.Context, t models.Tank) (*models.Tank, error) {
	m.lastRegistered = t
	return m.regResp, m.regErr
}
func (m *mockTanks) History(ctx context.Context, tankID string) ([]models.TankAlertRecord, error) {
	return m.histResp, m.histErr
}
func (m *mockTanks) CheckSprinklers(ctx context.Context, deviceID string) service.SprinklerEligibility {
	m.lastCheckedDev = deviceID
	return m.eligibility
}

type mockContacts struct {
	listResp  []models.EmergencyContact
	listErr   error
	getResp   *models.EmergencyContact
	getErr    error
	upsertErr error
	deleteErr error

	lastUpserted models.EmergencyContact
	lastDeleted  string
}

func (m *mockContacts) List(ctx context.Context) ([]models.EmergencyContact, error) {
	return m.listResp, m.listErr
}
func (m *mockContacts) GetByZone(ctx context.Context, zone string) (*models.EmergencyContact, error) {
	return m.getResp, m.getErr
}
func (m *mockContacts) Upsert(ctx context.Context, c models.EmergencyContact) error {
	m.lastUpserted = c
	return m.upsertErr
}
func (m *mockContacts) Delete(ctx context.Context, zone string) error {
	m.lastDeleted = zone
	return m.deleteErr
}

type mockSimulator struct{}

func (m *mockSimulator) Run(ctx context.Context, tick time.Duration) {}

// newMockService assembles a Service over the mocks with auth that accepts
// any Bearer token.
func newMockService(tel *mockTelemetry, auto *mockAutomation, alerts *mockAlerts, tanks *mockTanks, contacts *mockContacts) *service.Service {
	return &service.Service{
		Telemetry:     tel,
		Automation:    auto,
		Alerts:        alerts,
		Tanks:         tanks,
		Contacts:      contacts,
		Simulator:     &mockSimulator{},
		Authorization: &mockAuth{parseID: 1},
	}
}

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
