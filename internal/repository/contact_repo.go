package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"airguard/internal/models"
)

type ContactSQLite struct {
	db *sql.DB
}

func NewContactSQLite(db *sql.DB) *ContactSQLite { return &ContactSQLite{db: db} }

var _ ContactRepo = (*ContactSQLite)(nil)

const selectContactSQL = `
	SELECT zone, zone_name, contact_person, email, phone, city, active
	FROM emergency_contacts
`

// GetByZone returns the active emergency contact for a zone, or nil.
func (r *ContactSQLite) GetByZone(ctx context.Context, zone string) (*models.EmergencyContact, error) {
	row := r.db.QueryRowContext(ctx, selectContactSQL+" WHERE zone=? AND active=1", zone)
	c, err := scanContact(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select contact for zone %q: %w", zone, err)
	}
	return c, nil
}

func (r *ContactSQLite) List(ctx context.Context) ([]models.EmergencyContact, error) {
	rows, err := r.db.QueryContext(ctx, selectContactSQL+" ORDER BY zone ASC")
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	out := make([]models.EmergencyContact, 0, 8)
	for rows.Next() {
		c, err := scanContact(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *ContactSQLite) Upsert(ctx context.Context, c models.EmergencyContact) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO emergency_contacts (zone, zone_name, contact_person, email, phone, city, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(zone) DO UPDATE SET
			zone_name=excluded.zone_name,
			contact_person=excluded.contact_person,
			email=excluded.email,
			phone=excluded.phone,
			city=excluded.city,
			active=excluded.active
	`, c.Zone, c.ZoneName, c.ContactPerson, c.Email, c.Phone, c.City, c.IsActive)
	if err != nil {
		return fmt.Errorf("upsert contact for zone %q: %w", c.Zone, err)
	}
	return nil
}

func (r *ContactSQLite) Delete(ctx context.Context, zone string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM emergency_contacts WHERE zone=?`, zone)
	if err != nil {
		return fmt.Errorf("delete contact for zone %q: %w", zone, err)
	}
	return nil
}

func scanContact(scan func(...any) error) (*models.EmergencyContact, error) {
	var (
		c                    models.EmergencyContact
		person, phone, city  sql.NullString
	)
	if err := scan(&c.Zone, &c.ZoneName, &person, &c.Email, &phone, &city, &c.IsActive); err != nil {
		return nil, err
	}
	c.ContactPerson = person.String
	c.Phone = phone.String
	c.City = city.String
	return &c, nil
}
