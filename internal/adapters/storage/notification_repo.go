package storage

import (
	"context"

	"github.com/lcalzada-xor/cvewatch/internal/core/domain"
	"github.com/lcalzada-xor/cvewatch/internal/core/ports"
)

// Ensure compliance
var _ ports.NotificationRepository = (*SQLiteAdapter)(nil)

func (a *SQLiteAdapter) SaveNotification(ctx context.Context, n domain.Notification) error {
	model := notificationToModel(n)
	return a.db.WithContext(ctx).Create(&model).Error
}

func (a *SQLiteAdapter) ListNotifications(ctx context.Context, subscriberID string, limit int) ([]domain.Notification, error) {
	var models []NotificationModel
	if err := a.db.WithContext(ctx).
		Where("subscriber_id = ?", subscriberID).
		Order("created_at desc").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}

	notifications := make([]domain.Notification, len(models))
	for i, m := range models {
		notifications[i] = notificationToDomain(m)
	}
	return notifications, nil
}
