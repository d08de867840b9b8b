package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"airguard/internal/models"

	"github.com/google/uuid"
)

type AlertSQLite struct {
	db *sql.DB
}

func NewAlertSQLite(db *sql.DB) *AlertSQLite { return &AlertSQLite{db: db} }

var _ AlertRepo = (*AlertSQLite)(nil)

const selectAlertSQL = `
	SELECT alert_id, category, subcategory, severity, status, device_id, zone, aqi,
	       message, resource_data, occurred_at,
	       acknowledged_by, acknowledged_at, resolved_by, resolved_at, notes
	FROM alerts
`

// Create inserts a new alert. Missing AlertID/Timestamp are filled in.
func (r *AlertSQLite) Create(ctx context.Context, a models.Alert) error {
	if a.AlertID == "" {
		a.AlertID = uuid.NewString()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	} else {
		a.Timestamp = a.Timestamp.UTC()
	}

	var resourcePtr *string
	if a.ResourceData != nil {
		if b, err := json.Marshal(a.ResourceData); err == nil {
			s := string(b)
			resourcePtr = &s
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO alerts (alert_id, category, subcategory, severity, status,
			device_id, zone, aqi, message, resource_data, occurred_at, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.AlertID,
		a.Category,
		strings.ToUpper(strings.TrimSpace(a.Subcategory)),
		a.Severity,
		a.Status,
		a.DeviceID,
		a.Zone,
		a.AQI,
		a.Message,
		resourcePtr,
		a.Timestamp,
		a.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert alert %q: %w", a.AlertID, err)
	}
	return nil
}

func (r *AlertSQLite) GetByID(ctx context.Context, alertID string) (*models.Alert, error) {
	row := r.db.QueryRowContext(ctx, selectAlertSQL+" WHERE alert_id=?", alertID)
	a, err := scanAlert(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select alert %q: %w", alertID, err)
	}
	return a, nil
}

func (r *AlertSQLite) List(ctx context.Context, f AlertFilter) ([]models.Alert, error) {
	var (
		conds []string
		args  []any
	)
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Zone != "" {
		conds = append(conds, "zone = ?")
		args = append(args, f.Zone)
	}

	q := selectAlertSQL
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	out := make([]models.Alert, 0, 32)
	for rows.Next() {
		a, err := scanAlert(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// FindActiveRecent implements the dedup lookup: newest active alert for the
// (resource, subcategory) pair at or after the window start. The resource key
// matches either the tank ID carried in resource data or the device column,
// so water and air alerts share one suppression path.
func (r *AlertSQLite) FindActiveRecent(ctx context.Context, resourceID, subcategory string, since time.Time) (*models.Alert, error) {
	row := r.db.QueryRowContext(ctx, selectAlertSQL+`
		WHERE (json_extract(resource_data, '$.tank_id') = ? OR device_id = ?)
		  AND subcategory = ?
		  AND status = 'active'
		  AND occurred_at >= ?
		ORDER BY occurred_at DESC LIMIT 1
	`, resourceID, resourceID, subcategory, since.UTC())

	a, err := scanAlert(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("dedup lookup resource %q sub %q: %w", resourceID, subcategory, err)
	}
	return a, nil
}

func (r *AlertSQLite) ActiveForTank(ctx context.Context, tankID string, subcategories []string) ([]models.Alert, error) {
	if len(subcategories) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(subcategories)), ",")
	args := []any{tankID}
	for _, s := range subcategories {
		args = append(args, s)
	}

	rows, err := r.db.QueryContext(ctx, selectAlertSQL+`
		WHERE json_extract(resource_data, '$.tank_id') = ?
		  AND subcategory IN (`+placeholders+`)
		  AND status = 'active'
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("active alerts for tank %q: %w", tankID, err)
	}
	defer rows.Close()

	out := make([]models.Alert, 0, 8)
	for rows.Next() {
		a, err := scanAlert(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *AlertSQLite) Acknowledge(ctx context.Context, alertID, by, notes string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE alerts SET status='acknowledged', acknowledged_by=?, acknowledged_at=?, notes=?
		WHERE alert_id=? AND status='active'
	`, by, at.UTC(), notes, alertID)
	if err != nil {
		return fmt.Errorf("acknowledge alert %q: %w", alertID, err)
	}
	return requireRowChanged(res, alertID)
}

func (r *AlertSQLite) Resolve(ctx context.Context, alertID, by, notes string, at time.Time) error {
	// Resolution does not require prior acknowledgement.
	res, err := r.db.ExecContext(ctx, `
		UPDATE alerts SET status='resolved', resolved_by=?, resolved_at=?, notes=?
		WHERE alert_id=? AND status IN ('active', 'acknowledged')
	`, by, at.UTC(), notes, alertID)
	if err != nil {
		return fmt.Errorf("resolve alert %q: %w", alertID, err)
	}
	return requireRowChanged(res, alertID)
}

// ErrAlertNotFound is returned when an acknowledge/resolve matched no open alert.
var ErrAlertNotFound = errors.New("alert not found or already closed")

func requireRowChanged(res sql.Result, alertID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for alert %q: %w", alertID, err)
	}
	if n == 0 {
		return ErrAlertNotFound
	}
	return nil
}

func scanAlert(scan func(...any) error) (*models.Alert, error) {
	var (
		a                    models.Alert
		deviceID, zone       sql.NullString
		aqi                  sql.NullFloat64
		resourceStr          sql.NullString
		ackBy, resBy, notes  sql.NullString
		ackAt, resAt         sql.NullTime
	)
	if err := scan(&a.AlertID, &a.Category, &a.Subcategory, &a.Severity, &a.Status,
		&deviceID, &zone, &aqi, &a.Message, &resourceStr, &a.Timestamp,
		&ackBy, &ackAt, &resBy, &resAt, &notes); err != nil {
		return nil, err
	}
	a.DeviceID = deviceID.String
	a.Zone = zone.String
	a.AQI = aqi.Float64
	a.Notes = notes.String
	a.AcknowledgedBy = ackBy.String
	a.ResolvedBy = resBy.String
	if ackAt.Valid {
		a.AcknowledgedAt = ackAt.Time.UTC()
	}
	if resAt.Valid {
		a.ResolvedAt = resAt.Time.UTC()
	}
	a.Timestamp = a.Timestamp.UTC()

	if resourceStr.Valid && resourceStr.String != "" {
		var v map[string]any
		if err := json.Unmarshal([]byte(resourceStr.String), &v); err == nil {
			a.ResourceData = v
		}
	}
	return &a, nil
}
