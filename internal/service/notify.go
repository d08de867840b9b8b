package service

import (
	"context"

	"airguard/internal/logger"
)

// Notifier is the fire-and-forget notification boundary. Transport (email,
// SMS) lives outside this module; failures are logged by callers and never
// block action flow or alert persistence.
type Notifier interface {
	Notify(ctx context.Context, kind, title, message, targetZone string) error
	NotifyEmergencyContact(ctx context.Context, zone string, aqi float64, deviceID, contactEmail, contactName string) error
}

// LogNotifier writes notifications to the structured log. It stands in for a
// real transport in development and in tests.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier { return &LogNotifier{log: log} }

var _ Notifier = (*LogNotifier)(nil)

func (n *LogNotifier) Notify(_ context.Context, kind, title, message, targetZone string) error {
	n.log.Infow("notification",
		"kind", kind,
		"title", title,
		"message", message,
		"zone", targetZone,
	)
	return nil
}

func (n *LogNotifier) NotifyEmergencyContact(_ context.Context, zone string, aqi float64, deviceID, contactEmail, contactName string) error {
	n.log.Infow("emergency_contact_notification",
		"zone", zone,
		"aqi", aqi,
		"device", deviceID,
		"recipient", contactEmail,
		"contact", contactName,
	)
	return nil
}
