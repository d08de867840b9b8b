package service

import (
	"context"
	"time"

	"airguard/internal/classifier"
	"airguard/internal/logger"
	"airguard/internal/models"
	"airguard/internal/repository"
)

// testLog returns the shared test logger.
func testLog() *logger.Logger { return logger.Get(logger.ErrorLevel) }

// fakeClock is a settable clock for deterministic cooldown math.
type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time           { return c.now }
func (c *fakeClock) advance(d time.Duration)  { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
}

// ---- repository fakes ----

type fakeTankRepo struct {
	tanks   map[string]models.Tank
	history map[string][]models.TankAlertRecord
	getErr  error
	listErr error
	saveErr error
	saved   int
}

func newFakeTankRepo(tanks ...models.Tank) *fakeTankRepo {
	r := &fakeTankRepo{tanks: map[string]models.Tank{}, history: map[string][]models.TankAlertRecord{}}
	for _, t := range tanks {
		r.tanks[t.TankID] = t
	}
	return r
}

func (r *fakeTankRepo) GetByID(ctx context.Context, tankID string) (*models.Tank, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	t, ok := r.tanks[tankID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *fakeTankRepo) GetActiveByZone(ctx context.Context, zone string) (*models.Tank, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, t := range r.tanks {
		if t.Zone == zone && t.IsActive {
			t := t
			return &t, nil
		}
	}
	return nil, nil
}

func (r *fakeTankRepo) List(ctx context.Context) ([]models.Tank, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]models.Tank, 0, len(r.tanks))
	for _, t := range r.tanks {
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeTankRepo) Save(ctx context.Context, t models.Tank) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved++
	r.tanks[t.TankID] = t
	return nil
}

func (r *fakeTankRepo) AppendHistory(ctx context.Context, tankID string, rec models.TankAlertRecord) error {
	r.history[tankID] = append(r.history[tankID], rec)
	return nil
}

func (r *fakeTankRepo) History(ctx context.Context, tankID string) ([]models.TankAlertRecord, error) {
	return r.history[tankID], nil
}

type fakeDeviceRepo struct {
	devices map[string]models.Device
	getErr  error
	listErr error
}

func newFakeDeviceRepo(devices ...models.Device) *fakeDeviceRepo {
	r := &fakeDeviceRepo{devices: map[string]models.Device{}}
	for _, d := range devices {
		r.devices[d.DeviceID] = d
	}
	return r
}

func (r *fakeDeviceRepo) GetByID(ctx context.Context, deviceID string) (*models.Device, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	d, ok := r.devices[deviceID]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r *fakeDeviceRepo) ListActiveByZone(ctx context.Context, zone string) ([]models.Device, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []models.Device
	for _, d := range r.devices {
		if d.Zone == zone && d.IsActive {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeDeviceRepo) SetWaterRestriction(ctx context.Context, deviceID, reason string, since time.Time) error {
	d := r.devices[deviceID]
	d.WaterRestriction = true
	d.WaterRestrictionReason = reason
	d.WaterRestrictionSince = since
	r.devices[deviceID] = d
	return nil
}

func (r *fakeDeviceRepo) ClearWaterRestriction(ctx context.Context, deviceID string) error {
	d := r.devices[deviceID]
	d.WaterRestriction = false
	d.WaterRestrictionReason = ""
	r.devices[deviceID] = d
	return nil
}

func (r *fakeDeviceRepo) SetPumpRelay(ctx context.Context, deviceID string, on bool, at time.Time) error {
	d := r.devices[deviceID]
	d.PumpRelayOn = on
	d.LastRelayUpdate = at
	r.devices[deviceID] = d
	return nil
}

// fakeAlertRepo keeps alerts in memory and answers dedup/recovery queries
// against them, so suppression behaves like the real store.
type fakeAlertRepo struct {
	alerts    []models.Alert
	createErr error
	findErr   error
	acked     []string
	resolved  []string
}

func (r *fakeAlertRepo) Create(ctx context.Context, a models.Alert) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.alerts = append(r.alerts, a)
	return nil
}

func (r *fakeAlertRepo) GetByID(ctx context.Context, alertID string) (*models.Alert, error) {
	for i := range r.alerts {
		if r.alerts[i].AlertID == alertID {
			a := r.alerts[i]
			return &a, nil
		}
	}
	return nil, nil
}

func (r *fakeAlertRepo) List(ctx context.Context, f repository.AlertFilter) ([]models.Alert, error) {
	return r.alerts, nil
}

func (r *fakeAlertRepo) FindActiveRecent(ctx context.Context, resourceID, subcategory string, since time.Time) (*models.Alert, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for i := len(r.alerts) - 1; i >= 0; i-- {
		a := r.alerts[i]
		if a.Status != models.AlertActive || a.Subcategory != subcategory || a.Timestamp.Before(since) {
			continue
		}
		if a.DeviceID == resourceID || a.ResourceData["tank_id"] == resourceID {
			return &a, nil
		}
	}
	return nil, nil
}

func (r *fakeAlertRepo) ActiveForTank(ctx context.Context, tankID string, subcategories []string) ([]models.Alert, error) {
	var out []models.Alert
	for _, a := range r.alerts {
		if a.Status != models.AlertActive || a.ResourceData["tank_id"] != tankID {
			continue
		}
		for _, s := range subcategories {
			if a.Subcategory == s {
				out = append(out, a)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) Acknowledge(ctx context.Context, alertID, by, notes string, at time.Time) error {
	for i := range r.alerts {
		if r.alerts[i].AlertID == alertID && r.alerts[i].Status == models.AlertActive {
			r.alerts[i].Status = models.AlertAcknowledged
			r.alerts[i].AcknowledgedBy = by
			r.acked = append(r.acked, alertID)
			return nil
		}
	}
	return repository.ErrAlertNotFound
}

func (r *fakeAlertRepo) Resolve(ctx context.Context, alertID, by, notes string, at time.Time) error {
	for i := range r.alerts {
		if r.alerts[i].AlertID == alertID && r.alerts[i].Status != models.AlertResolved {
			r.alerts[i].Status = models.AlertResolved
			r.resolved = append(r.resolved, alertID)
			return nil
		}
	}
	return repository.ErrAlertNotFound
}

// bySubcategory returns stored alerts with the given subcategory.
func (r *fakeAlertRepo) bySubcategory(sub string) []models.Alert {
	var out []models.Alert
	for _, a := range r.alerts {
		if a.Subcategory == sub {
			out = append(out, a)
		}
	}
	return out
}

type fakeContactRepo struct {
	contact *models.EmergencyContact
	getErr  error
}

func (r *fakeContactRepo) GetByZone(ctx context.Context, zone string) (*models.EmergencyContact, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	if r.contact != nil && r.contact.Zone == zone {
		c := *r.contact
		return &c, nil
	}
	return nil, nil
}

func (r *fakeContactRepo) List(ctx context.Context) ([]models.EmergencyContact, error) {
	if r.contact == nil {
		return nil, nil
	}
	return []models.EmergencyContact{*r.contact}, nil
}

func (r *fakeContactRepo) Upsert(ctx context.Context, c models.EmergencyContact) error {
	r.contact = &c
	return nil
}

func (r *fakeContactRepo) Delete(ctx context.Context, zone string) error {
	r.contact = nil
	return nil
}

type fakeAuditRepo struct {
	entries []models.AutomationLogEntry
}

func (r *fakeAuditRepo) Append(ctx context.Context, e models.AutomationLogEntry) error {
	r.entries = append(r.entries, e)
	return nil
}

func (r *fakeAuditRepo) List(ctx context.Context, deviceID string, limit int) ([]models.AutomationLogEntry, error) {
	return r.entries, nil
}

func (r *fakeAuditRepo) actions() []string {
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

// ---- boundary fakes ----

type fakeNotifier struct {
	notifyErr    error
	emergencyErr error

	notifyKinds     []string
	emergencyZones  []string
	emergencyEmails []string
}

func (n *fakeNotifier) Notify(ctx context.Context, kind, title, message, targetZone string) error {
	n.notifyKinds = append(n.notifyKinds, kind)
	return n.notifyErr
}

func (n *fakeNotifier) NotifyEmergencyContact(ctx context.Context, zone string, aqi float64, deviceID, contactEmail, contactName string) error {
	n.emergencyZones = append(n.emergencyZones, zone)
	n.emergencyEmails = append(n.emergencyEmails, contactEmail)
	return n.emergencyErr
}

type fakeActuator struct {
	droneErr error
	pumpErr  error
	ventErr  error

	droneZones []string
	pumpOn     []string
	pumpOff    []string
	ventOn     []string
	ventOff    []string
}

func (a *fakeActuator) DispatchDrone(ctx context.Context, zone, deviceID string) error {
	a.droneZones = append(a.droneZones, zone)
	return a.droneErr
}

func (a *fakeActuator) SetPumpRelay(ctx context.Context, deviceID string, on bool) error {
	if on {
		a.pumpOn = append(a.pumpOn, deviceID)
	} else {
		a.pumpOff = append(a.pumpOff, deviceID)
	}
	return a.pumpErr
}

func (a *fakeActuator) SetVentilation(ctx context.Context, deviceID string, on bool) error {
	if on {
		a.ventOn = append(a.ventOn, deviceID)
	} else {
		a.ventOff = append(a.ventOff, deviceID)
	}
	return a.ventErr
}

type fakeClassifierClient struct {
	resp    models.ClassificationResult
	err     error
	lastReq classifier.Request
	calls   int
}

func (c *fakeClassifierClient) Classify(ctx context.Context, req classifier.Request) (models.ClassificationResult, error) {
	c.calls++
	c.lastReq = req
	return c.resp, c.err
}

// makeWindow builds a sample window of n readings.
func makeWindow(n int) []models.SensorReading {
	base := time.Date(2026, 8, 1, 11, 59, 0, 0, time.UTC)
	out := make([]models.SensorReading, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.SensorReading{
			Timestamp:   base.Add(time.Duration(i) * time.Second),
			Smoke:       40,
			Humidity:    55,
			Temperature: 25,
		})
	}
	return out
}
