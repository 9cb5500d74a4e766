package domain

import "time"

// NotificationTypeCriticalAlert marks notifications produced by the alert
// dispatcher for critical records matching a subscriber's watch list.
const NotificationTypeCriticalAlert = "critical_cve_alert"

// Notification is one alert fan-out result for a subscriber.
// Delivery is at-least-once, deduplicated downstream by record identity.
type Notification struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriber_id"`
	Type         string    `json:"type"`
	RecordIDs    []string  `json:"cve_ids"`
	Count        int       `json:"count"`
	Read         bool      `json:"read"`
	CreatedAt    time.Time `json:"created_at"`
}
