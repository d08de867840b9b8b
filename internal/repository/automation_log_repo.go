package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"airguard/internal/models"

	"github.com/google/uuid"
)

type AutomationLogSQLite struct {
	db *sql.DB
}

func NewAutomationLogSQLite(db *sql.DB) *AutomationLogSQLite {
	return &AutomationLogSQLite{db: db}
}

var _ AutomationLogRepo = (*AutomationLogSQLite)(nil)

// Append inserts a new audit entry. If EntryID or Timestamp are empty, they're set.
func (r *AutomationLogSQLite) Append(ctx context.Context, e models.AutomationLogEntry) error {
	if e.EntryID == "" {
		e.EntryID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	} else {
		e.Timestamp = e.Timestamp.UTC()
	}

	var detailsPtr *string
	if e.Details != nil {
		if b, err := json.Marshal(e.Details); err == nil {
			s := string(b)
			detailsPtr = &s
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO automation_log (entry_id, occurred_at, device_id, zone, aqi, trigger_source, action, outcome, details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.EntryID,
		e.Timestamp,
		e.DeviceID,
		e.Zone,
		e.AQI,
		e.Trigger,
		e.Action,
		e.Outcome,
		detailsPtr,
	)
	if err != nil {
		return fmt.Errorf("append automation log entry: %w", err)
	}
	return nil
}

// List returns newest-first audit entries, optionally filtered by device.
func (r *AutomationLogSQLite) List(ctx context.Context, deviceID string, limit int) ([]models.AutomationLogEntry, error) {
	q := `
		SELECT entry_id, occurred_at, device_id, zone, aqi, trigger_source, action, outcome, details
		FROM automation_log
	`
	var args []any
	if deviceID != "" {
		q += " WHERE device_id = ?"
		args = append(args, deviceID)
	}
	q += " ORDER BY occurred_at DESC"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list automation log: %w", err)
	}
	defer rows.Close()

	out := make([]models.AutomationLogEntry, 0, 32)
	for rows.Next() {
		var e models.AutomationLogEntry
		var aqi sql.NullFloat64
		var detailsStr sql.NullString
		if err := rows.Scan(&e.EntryID, &e.Timestamp, &e.DeviceID, &e.Zone,
			&aqi, &e.Trigger, &e.Action, &e.Outcome, &detailsStr); err != nil {
			return nil, err
		}
		e.AQI = aqi.Float64
		e.Timestamp = e.Timestamp.UTC()
		if detailsStr.Valid && detailsStr.String != "" {
			var v map[string]any
			if err := json.Unmarshal([]byte(detailsStr.String), &v); err == nil {
				e.Details = v
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
