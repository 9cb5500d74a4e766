package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/lcalzada-xor/cvewatch/internal/adapters/web/middleware"
	"github.com/lcalzada-xor/cvewatch/internal/core/ports"
)

const defaultNotificationLimit = 50

// NotificationHandler serves a subscriber's notifications.
type NotificationHandler struct {
	Notifications ports.NotificationRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifications ports.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{Notifications: notifications}
}

// HandleList returns the caller's notifications, newest first.
func (h *NotificationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	sub := middleware.SubscriberFromContext(r.Context())
	if sub == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	notifications, err := h.Notifications.ListNotifications(r.Context(), sub.ID, defaultNotificationLimit)
	if err != nil {
		log.Printf("Failed to fetch notifications: %v", err)
		http.Error(w, "Failed to fetch notifications", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"notifications": notifications,
	})
}
