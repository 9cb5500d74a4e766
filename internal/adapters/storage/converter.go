package storage

import (
	"encoding/json"

	"github.com/lcalzada-xor/cvewatch/internal/core/domain"
)

// subscriberToDomain converts a database model to a domain entity.
func subscriberToDomain(m SubscriberModel) *domain.Subscriber {
	return &domain.Subscriber{
		ID:                   m.ID,
		Email:                m.Email,
		NotificationsEnabled: m.NotificationsEnabled,
		APIKeyHash:           m.APIKeyHash,
		CreatedAt:            m.CreatedAt,
	}
}

func subscriberToModel(s domain.Subscriber) SubscriberModel {
	return SubscriberModel{
		ID:                   s.ID,
		Email:                s.Email,
		NotificationsEnabled: s.NotificationsEnabled,
		APIKeyHash:           s.APIKeyHash,
		CreatedAt:            s.CreatedAt,
	}
}

func watchEntryToDomain(m WatchEntryModel) domain.WatchEntry {
	return domain.WatchEntry{Vendor: m.Vendor, Product: m.Product}
}

func notificationToDomain(m NotificationModel) domain.Notification {
	var ids []string
	if m.RecordIDs != "" {
		_ = json.Unmarshal([]byte(m.RecordIDs), &ids)
	}
	return domain.Notification{
		ID:           m.ID,
		SubscriberID: m.SubscriberID,
		Type:         m.Type,
		RecordIDs:    ids,
		Count:        m.Count,
		Read:         m.Read,
		CreatedAt:    m.CreatedAt,
	}
}

func notificationToModel(n domain.Notification) NotificationModel {
	ids, _ := json.Marshal(n.RecordIDs)
	return NotificationModel{
		ID:           n.ID,
		SubscriberID: n.SubscriberID,
		Type:         n.Type,
		RecordIDs:    string(ids),
		Count:        n.Count,
		Read:         n.Read,
		CreatedAt:    n.CreatedAt,
	}
}

func auditToDomain(m AuditLogModel) domain.AuditLog {
	return domain.AuditLog{
		ID:           m.ID,
		SubscriberID: m.SubscriberID,
		Action:       domain.AuditAction(m.Action),
		Target:       m.Target,
		Details:      m.Details,
		Timestamp:    m.Timestamp,
	}
}

func auditToModel(l domain.AuditLog) AuditLogModel {
	return AuditLogModel{
		ID:           l.ID,
		SubscriberID: l.SubscriberID,
		Action:       string(l.Action),
		Target:       l.Target,
		Details:      l.Details,
		Timestamp:    l.Timestamp,
	}
}
