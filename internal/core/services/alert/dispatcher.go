package alert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lcalzada-xor/cvewatch/internal/core/domain"
	"github.com/lcalzada-xor/cvewatch/internal/core/ports"
	"github.com/lcalzada-xor/cvewatch/internal/core/services/match"
	"github.com/lcalzada-xor/cvewatch/internal/telemetry"
)

// Broadcaster pushes a notification to connected live clients. Optional;
// delivery there is best-effort and never affects persistence.
type Broadcaster interface {
	BroadcastNotification(n domain.Notification)
}

// Dispatcher fans critical records out to subscribers whose watch lists
// match them. One notification per subscriber per run, regardless of how
// many records matched.
type Dispatcher struct {
	subs          ports.SubscriberRepository
	notifications ports.NotificationRepository
	audit         ports.AuditService
	broadcaster   Broadcaster
	now           func() time.Time
}

func NewDispatcher(subs ports.SubscriberRepository, notifications ports.NotificationRepository, audit ports.AuditService) *Dispatcher {
	return &Dispatcher{
		subs:          subs,
		notifications: notifications,
		audit:         audit,
		now:           time.Now,
	}
}

// SetBroadcaster wires a live-push sink. Must be called before Dispatch.
func (d *Dispatcher) SetBroadcaster(b Broadcaster) {
	d.broadcaster = b
}

// Dispatch writes one notification per matching notifiable subscriber and
// returns how many were written. A subscriber matches when any tier of
// match quality links any critical record to any of its watch entries.
// Per-subscriber failures are logged and skipped; one bad subscriber never
// blocks the rest of the fan-out.
func (d *Dispatcher) Dispatch(ctx context.Context, critical []domain.VulnerabilityRecord) (int, error) {
	if len(critical) == 0 {
		return 0, nil
	}

	subscribers, err := d.subs.ListNotifiable(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing notifiable subscribers: %w", err)
	}

	dispatched := 0
	for _, sub := range subscribers {
		entries, err := d.subs.WatchEntries(ctx, sub.ID)
		if err != nil {
			slog.Error("failed to load watch entries", "subscriber", sub.ID, "err", err)
			continue
		}
		if len(entries) == 0 {
			continue
		}

		var matched []string
		for _, rec := range critical {
			if match.Quality(rec, entries) != nil {
				matched = append(matched, rec.ID)
			}
		}
		if len(matched) == 0 {
			continue
		}

		n := domain.Notification{
			ID:           uuid.New().String(),
			SubscriberID: sub.ID,
			Type:         domain.NotificationTypeCriticalAlert,
			RecordIDs:    matched,
			Count:        len(matched),
			CreatedAt:    d.now().UTC(),
		}
		if err := d.notifications.SaveNotification(ctx, n); err != nil {
			slog.Error("failed to save notification", "subscriber", sub.ID, "err", err)
			continue
		}
		dispatched++
		telemetry.NotificationsDispatched.Inc()

		if err := d.audit.LogFor(ctx, sub.ID, domain.ActionAlert, n.ID,
			fmt.Sprintf("records=%d", len(matched))); err != nil {
			slog.Error("failed to write alert audit entry", "subscriber", sub.ID, "err", err)
		}

		if d.broadcaster != nil {
			d.broadcaster.BroadcastNotification(n)
		}

		slog.Info("critical alert dispatched", "subscriber", sub.ID, "records", len(matched))
	}

	return dispatched, nil
}

var _ ports.AlertDispatcher = (*Dispatcher)(nil)
