package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"airguard/internal/models"
)

type TankSQLite struct {
	db *sql.DB
}

func NewTankSQLite(db *sql.DB) *TankSQLite { return &TankSQLite{db: db} }

var _ TankRepo = (*TankSQLite)(nil)

const (
	upsertTankSQL = `
		INSERT INTO tanks (tank_id, zone, capacity_l, level, status, sensor_device_id, active, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tank_id) DO UPDATE SET
			zone=excluded.zone,
			capacity_l=excluded.capacity_l,
			level=excluded.level,
			status=excluded.status,
			sensor_device_id=excluded.sensor_device_id,
			active=excluded.active,
			updated_at=excluded.updated_at
	`

	selectTankSQL = `
		SELECT tank_id, zone, capacity_l, level, status, sensor_device_id, active, updated_at
		FROM tanks
	`
)

// Save upserts a tank row. UpdatedAt is normalized to UTC and defaulted to now.
func (r *TankSQLite) Save(ctx context.Context, t models.Tank) error {
	ts := t.LastUpdateTime
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	_, err := r.db.ExecContext(ctx, upsertTankSQL,
		t.TankID,
		t.Zone,
		t.CapacityLiters,
		t.CurrentLevel,
		string(t.Status),
		t.SensorDeviceID,
		t.IsActive,
		ts,
	)
	if err != nil {
		return fmt.Errorf("save tank %q: %w", t.TankID, err)
	}
	return nil
}

func (r *TankSQLite) GetByID(ctx context.Context, tankID string) (*models.Tank, error) {
	row := r.db.QueryRowContext(ctx, selectTankSQL+" WHERE tank_id=?", tankID)
	return scanTank(row, tankID)
}

// GetActiveByZone returns the monitored tank for a zone, or nil when the zone
// has no active tank.
func (r *TankSQLite) GetActiveByZone(ctx context.Context, zone string) (*models.Tank, error) {
	row := r.db.QueryRowContext(ctx, selectTankSQL+" WHERE zone=? AND active=1", zone)
	return scanTank(row, zone)
}

func (r *TankSQLite) List(ctx context.Context) ([]models.Tank, error) {
	rows, err := r.db.QueryContext(ctx, selectTankSQL+" ORDER BY tank_id ASC")
	if err != nil {
		return nil, fmt.Errorf("list tanks: %w", err)
	}
	defer rows.Close()

	out := make([]models.Tank, 0, 8)
	for rows.Next() {
		var t models.Tank
		var status string
		if err := rows.Scan(&t.TankID, &t.Zone, &t.CapacityLiters, &t.CurrentLevel,
			&status, &t.SensorDeviceID, &t.IsActive, &t.LastUpdateTime); err != nil {
			return nil, err
		}
		t.Status = models.TankStatus(status)
		t.LastUpdateTime = t.LastUpdateTime.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

// AppendHistory inserts one append-only alert-history record for a tank.
func (r *TankSQLite) AppendHistory(ctx context.Context, tankID string, rec models.TankAlertRecord) error {
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tank_alert_history (tank_id, alert_id, occurred_at, level, alert_type)
		VALUES (?, ?, ?, ?, ?)
	`, tankID, rec.AlertID, ts, rec.Level, rec.AlertType)
	if err != nil {
		return fmt.Errorf("append history for tank %q: %w", tankID, err)
	}
	return nil
}

func (r *TankSQLite) History(ctx context.Context, tankID string) ([]models.TankAlertRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT alert_id, occurred_at, level, alert_type
		FROM tank_alert_history WHERE tank_id=? ORDER BY occurred_at ASC
	`, tankID)
	if err != nil {
		return nil, fmt.Errorf("history for tank %q: %w", tankID, err)
	}
	defer rows.Close()

	out := make([]models.TankAlertRecord, 0, 16)
	for rows.Next() {
		var rec models.TankAlertRecord
		if err := rows.Scan(&rec.AlertID, &rec.Timestamp, &rec.Level, &rec.AlertType); err != nil {
			return nil, err
		}
		rec.Timestamp = rec.Timestamp.UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanTank(row *sql.Row, key string) (*models.Tank, error) {
	var t models.Tank
	var status string
	err := row.Scan(&t.TankID, &t.Zone, &t.CapacityLiters, &t.CurrentLevel,
		&status, &t.SensorDeviceID, &t.IsActive, &t.LastUpdateTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // not monitored
		}
		return nil, fmt.Errorf("select tank %q: %w", key, err)
	}
	t.Status = models.TankStatus(status)
	t.LastUpdateTime = t.LastUpdateTime.UTC()
	return &t, nil
}
