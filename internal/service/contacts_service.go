package service

import (
	"context"
	"fmt"

	"airguard/internal/models"
	"airguard/internal/repository"
)

// ContactService manages the per-zone emergency contact registry used by the
// fire response path.
type ContactService struct {
	contacts repository.ContactRepo
}

func NewContactService(contacts repository.ContactRepo) *ContactService {
	return &ContactService{contacts: contacts}
}

func (s *ContactService) List(ctx context.Context) ([]models.EmergencyContact, error) {
	return s.contacts.List(ctx)
}

func (s *ContactService) GetByZone(ctx context.Context, zone string) (*models.EmergencyContact, error) {
	return s.contacts.GetByZone(ctx, zone)
}

func (s *ContactService) Upsert(ctx context.Context, c models.EmergencyContact) error {
	if c.Zone == "" {
		return fmt.Errorf("zone is required")
	}
	if c.Email == "" {
		return fmt.Errorf("email is required")
	}
	c.IsActive = true
	return s.contacts.Upsert(ctx, c)
}

func (s *ContactService) Delete(ctx context.Context, zone string) error {
	return s.contacts.Delete(ctx, zone)
}
