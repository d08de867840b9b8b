package service

import (
	"context"
	"time"

	"airguard/internal/clock"
	"airguard/internal/logger"
	"airguard/internal/repository"
)

// DefaultDedupWindow is the rolling suppression window for repeated alerts on
// the same (resource, condition) pair.
const DefaultDedupWindow = 60 * time.Minute

// AlertDeduplicator suppresses redundant alert creation while a resource
// stays in the same degraded state across many updates.
type AlertDeduplicator struct {
	alerts repository.AlertRepo
	window time.Duration
	clk    clock.Clock
	log    *logger.Logger
}

func NewAlertDeduplicator(alerts repository.AlertRepo, window time.Duration, clk clock.Clock, log *logger.Logger) *AlertDeduplicator {
	if window <= 0 {
		window = DefaultDedupWindow
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &AlertDeduplicator{alerts: alerts, window: window, clk: clk, log: log}
}

// IsDuplicate reports whether an active alert for (resourceID, subcategory)
// already exists inside the rolling window. A lookup failure counts as "not
// duplicate": a spurious extra alert beats a silently swallowed one.
func (d *AlertDeduplicator) IsDuplicate(ctx context.Context, resourceID, subcategory string) bool {
	since := d.clk.Now().Add(-d.window)
	existing, err := d.alerts.FindActiveRecent(ctx, resourceID, subcategory, since)
	if err != nil {
		if d.log != nil {
			d.log.Errorw("dedup_lookup_failed", "err", err, "resource", resourceID, "subcategory", subcategory)
		}
		return false
	}
	if existing != nil {
		if d.log != nil {
			d.log.Infow("duplicate_alert_suppressed", "resource", resourceID, "subcategory", subcategory)
		}
		return true
	}
	return false
}
