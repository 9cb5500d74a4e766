package domain

import (
	"errors"
	"time"
)

// AuditAction represents a type-safe action identifier for the audit log.
type AuditAction string

// System Audit Actions
const (
	ActionCollection AuditAction = "CVE_COLLECTION_COMPLETED"
	ActionBackfill   AuditAction = "HISTORICAL_BACKFILL"
	ActionReprocess  AuditAction = "CVE_REPROCESSED"
	ActionAlert      AuditAction = "CRITICAL_ALERT_CREATED"
	ActionInfo       AuditAction = "INFO"
)

// Domain Errors
var (
	ErrInvalidAction = errors.New("invalid audit action")
)

// AuditLog records one completed system action (a collection run, an alert
// fan-out, a reprocessing pass). Informational only: losing an audit entry
// never invalidates the action it describes.
type AuditLog struct {
	ID           uint        `json:"id"`
	SubscriberID string      `json:"subscriber_id,omitempty"` // empty for scheduled/global runs
	Action       AuditAction `json:"action"`
	Target       string      `json:"target"` // the resource affected (record id, subscriber id)
	Details      string      `json:"details"`
	Timestamp    time.Time   `json:"timestamp"`
}

// NewAuditLog is the designated factory for creating valid AuditLog entities.
func NewAuditLog(subscriberID string, action AuditAction, target, details string) (*AuditLog, error) {
	if !isValidAction(action) {
		return nil, ErrInvalidAction
	}

	return &AuditLog{
		SubscriberID: subscriberID,
		Action:       action,
		Target:       target,
		Details:      details,
		Timestamp:    time.Now().UTC(),
	}, nil
}

func isValidAction(action AuditAction) bool {
	switch action {
	case ActionCollection, ActionBackfill, ActionReprocess, ActionAlert, ActionInfo:
		return true
	}
	return false
}
