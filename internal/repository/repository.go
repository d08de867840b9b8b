package repository

import (
	"context"
	"database/sql"
	"time"

	"airguard/internal/models"
	"airguard/internal/repository/db"
)

// InitDB opens the SQLite file and ensures the schema exists.
func InitDB(path string) (*sql.DB, error) {
	return db.InitDB(path)
}

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// TankRepo persists water tanks and their append-only alert history.
type TankRepo interface {
	GetByID(ctx context.Context, tankID string) (*models.Tank, error)
	GetActiveByZone(ctx context.Context, zone string) (*models.Tank, error)
	List(ctx context.Context) ([]models.Tank, error)
	Save(ctx context.Context, t models.Tank) error
	AppendHistory(ctx context.Context, tankID string, rec models.TankAlertRecord) error
	History(ctx context.Context, tankID string) ([]models.TankAlertRecord, error)
}

// DeviceRepo persists field devices, their water restrictions and relay state.
type DeviceRepo interface {
	GetByID(ctx context.Context, deviceID string) (*models.Device, error)
	ListActiveByZone(ctx context.Context, zone string) ([]models.Device, error)
	SetWaterRestriction(ctx context.Context, deviceID, reason string, since time.Time) error
	ClearWaterRestriction(ctx context.Context, deviceID string) error
	SetPumpRelay(ctx context.Context, deviceID string, on bool, at time.Time) error
}

// AlertRepo persists alerts and supports the dedup and recovery queries.
type AlertRepo interface {
	Create(ctx context.Context, a models.Alert) error
	GetByID(ctx context.Context, alertID string) (*models.Alert, error)
	List(ctx context.Context, f AlertFilter) ([]models.Alert, error)
	// FindActiveRecent returns the newest active alert for (resourceID,
	// subcategory) with timestamp >= since, or nil if none exists. The
	// resource ID is a tank ID or a device ID.
	FindActiveRecent(ctx context.Context, resourceID, subcategory string, since time.Time) (*models.Alert, error)
	// ActiveForTank returns active alerts for a tank limited to the given
	// subcategories.
	ActiveForTank(ctx context.Context, tankID string, subcategories []string) ([]models.Alert, error)
	Acknowledge(ctx context.Context, alertID, by, notes string, at time.Time) error
	Resolve(ctx context.Context, alertID, by, notes string, at time.Time) error
}

// AlertFilter narrows List queries; zero values mean no constraint.
type AlertFilter struct {
	Category string
	Status   string
	Zone     string
	Limit    int
}

// ContactRepo persists per-zone emergency contacts.
type ContactRepo interface {
	GetByZone(ctx context.Context, zone string) (*models.EmergencyContact, error)
	List(ctx context.Context) ([]models.EmergencyContact, error)
	Upsert(ctx context.Context, c models.EmergencyContact) error
	Delete(ctx context.Context, zone string) error
}

// AutomationLogRepo is the append-only audit trail of attempted actions.
type AutomationLogRepo interface {
	Append(ctx context.Context, e models.AutomationLogEntry) error
	List(ctx context.Context, deviceID string, limit int) ([]models.AutomationLogEntry, error)
}

type Repository struct {
	Tanks         TankRepo
	Devices       DeviceRepo
	Alerts        AlertRepo
	Contacts      ContactRepo
	AutomationLog AutomationLogRepo
	Auth          Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Tanks:         NewTankSQLite(db),
		Devices:       NewDeviceSQLite(db),
		Alerts:        NewAlertSQLite(db),
		Contacts:      NewContactSQLite(db),
		AutomationLog: NewAutomationLogSQLite(db),
		Auth:          NewUserRepository(db),
	}
}
