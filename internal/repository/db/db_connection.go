package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens/creates a SQLite DB file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// Conservative pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is not great with many writers
	db.SetMaxIdleConns(1)

	// Pragmas to improve reliability
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA journal_mode=WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA foreign_keys=ON: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA busy_timeout=5000: %w", err)
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Fail fast if the DB cannot be reached
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const sqliteDriverName = "sqlite"

const schemaTanks = `
CREATE TABLE IF NOT EXISTS tanks (
    tank_id TEXT PRIMARY KEY,
    zone TEXT NOT NULL,
    capacity_l REAL NOT NULL,
    level REAL NOT NULL,
    status TEXT NOT NULL,
    sensor_device_id TEXT NOT NULL,
    active BOOLEAN NOT NULL DEFAULT 1,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaTankHistory = `
CREATE TABLE IF NOT EXISTS tank_alert_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    tank_id TEXT NOT NULL,
    alert_id TEXT NOT NULL,
    occurred_at TIMESTAMP NOT NULL,
    level REAL NOT NULL,
    alert_type TEXT NOT NULL
);
`

const schemaDevices = `
CREATE TABLE IF NOT EXISTS devices (
    device_id TEXT PRIMARY KEY,
    name TEXT,
    zone TEXT NOT NULL,
    active BOOLEAN NOT NULL DEFAULT 1,
    water_restriction BOOLEAN NOT NULL DEFAULT 0,
    water_restriction_reason TEXT,
    water_restriction_since TIMESTAMP,
    pump_relay BOOLEAN NOT NULL DEFAULT 0,
    fan_relay BOOLEAN NOT NULL DEFAULT 0,
    relay_updated_at TIMESTAMP
);
`

const schemaAlerts = `
CREATE TABLE IF NOT EXISTS alerts (
    alert_id TEXT PRIMARY KEY,
    category TEXT NOT NULL,
    subcategory TEXT NOT NULL,
    severity TEXT NOT NULL,
    status TEXT NOT NULL,
    device_id TEXT,
    zone TEXT,
    aqi REAL,
    message TEXT NOT NULL,
    resource_data TEXT,
    occurred_at TIMESTAMP NOT NULL,
    acknowledged_by TEXT,
    acknowledged_at TIMESTAMP,
    resolved_by TEXT,
    resolved_at TIMESTAMP,
    notes TEXT
);
`

const schemaAlertIndexes = `
CREATE INDEX IF NOT EXISTS idx_alerts_tank_status
    ON alerts (json_extract(resource_data, '$.tank_id'), subcategory, status);
`

const schemaContacts = `
CREATE TABLE IF NOT EXISTS emergency_contacts (
    zone TEXT PRIMARY KEY,
    zone_name TEXT NOT NULL,
    contact_person TEXT,
    email TEXT NOT NULL,
    phone TEXT,
    city TEXT,
    active BOOLEAN NOT NULL DEFAULT 1
);
`

const schemaAutomationLog = `
CREATE TABLE IF NOT EXISTS automation_log (
    entry_id TEXT PRIMARY KEY,
    occurred_at TIMESTAMP NOT NULL,
    device_id TEXT NOT NULL,
    zone TEXT NOT NULL,
    aqi REAL,
    trigger_source TEXT NOT NULL,
    action TEXT NOT NULL,
    outcome TEXT NOT NULL,
    details TEXT
);
`

const schemaUsers = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL
);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		// In case of panic, rollback to avoid leaving an open transaction
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaTanks,
		schemaTankHistory,
		schemaDevices,
		schemaAlerts,
		schemaAlertIndexes,
		schemaContacts,
		schemaAutomationLog,
		schemaUsers,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
