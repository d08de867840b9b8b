package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"airguard/internal/models"
)

type DeviceSQLite struct {
	db *sql.DB
}

func NewDeviceSQLite(db *sql.DB) *DeviceSQLite { return &DeviceSQLite{db: db} }

var _ DeviceRepo = (*DeviceSQLite)(nil)

const selectDeviceSQL = `
	SELECT device_id, name, zone, active,
	       water_restriction, water_restriction_reason, water_restriction_since,
	       pump_relay, fan_relay, relay_updated_at
	FROM devices
`

func (r *DeviceSQLite) GetByID(ctx context.Context, deviceID string) (*models.Device, error) {
	row := r.db.QueryRowContext(ctx, selectDeviceSQL+" WHERE device_id=?", deviceID)
	d, err := scanDevice(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select device %q: %w", deviceID, err)
	}
	return d, nil
}

func (r *DeviceSQLite) ListActiveByZone(ctx context.Context, zone string) ([]models.Device, error) {
	rows, err := r.db.QueryContext(ctx, selectDeviceSQL+" WHERE zone=? AND active=1", zone)
	if err != nil {
		return nil, fmt.Errorf("list devices in zone %q: %w", zone, err)
	}
	defer rows.Close()

	out := make([]models.Device, 0, 8)
	for rows.Next() {
		d, err := scanDevice(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// SetWaterRestriction marks a device as water-restricted with a reason.
func (r *DeviceSQLite) SetWaterRestriction(ctx context.Context, deviceID, reason string, since time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE devices
		SET water_restriction=1, water_restriction_reason=?, water_restriction_since=?
		WHERE device_id=?
	`, reason, since.UTC(), deviceID)
	if err != nil {
		return fmt.Errorf("restrict device %q: %w", deviceID, err)
	}
	return nil
}

func (r *DeviceSQLite) ClearWaterRestriction(ctx context.Context, deviceID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE devices
		SET water_restriction=0, water_restriction_reason=NULL, water_restriction_since=NULL
		WHERE device_id=?
	`, deviceID)
	if err != nil {
		return fmt.Errorf("clear restriction on device %q: %w", deviceID, err)
	}
	return nil
}

func (r *DeviceSQLite) SetPumpRelay(ctx context.Context, deviceID string, on bool, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE devices SET pump_relay=?, relay_updated_at=? WHERE device_id=?
	`, on, at.UTC(), deviceID)
	if err != nil {
		return fmt.Errorf("set pump relay on device %q: %w", deviceID, err)
	}
	return nil
}

func scanDevice(scan func(...any) error) (*models.Device, error) {
	var (
		d                models.Device
		name, reason     sql.NullString
		since, relayUpd  sql.NullTime
	)
	if err := scan(&d.DeviceID, &name, &d.Zone, &d.IsActive,
		&d.WaterRestriction, &reason, &since,
		&d.PumpRelayOn, &d.FanRelayOn, &relayUpd); err != nil {
		return nil, err
	}
	d.Name = name.String
	d.WaterRestrictionReason = reason.String
	if since.Valid {
		d.WaterRestrictionSince = since.Time.UTC()
	}
	if relayUpd.Valid {
		d.LastRelayUpdate = relayUpd.Time.UTC()
	}
	return &d, nil
}
