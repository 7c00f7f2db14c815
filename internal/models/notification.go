package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType tags a user alert.
type NotificationType string

const (
	NotificationDeadlineApproaching   NotificationType = "deadline_approaching" // D-30, D-7
	NotificationDeadlineToday         NotificationType = "deadline_today"
	NotificationDeadlineOverdue       NotificationType = "deadline_overdue"
	NotificationTaskAssigned          NotificationType = "task_assigned"
	NotificationDocumentExpiring      NotificationType = "document_expiring"
	NotificationControlStatusChanged  NotificationType = "control_status_changed"
)

// Notification is a user alert produced by the deadline scanner or emitted
// inline on mutations, never authored directly by users.
type Notification struct {
	ID                uuid.UUID        `json:"id"`
	OrgID             uuid.UUID        `json:"organization_id"`
	UserID            uuid.UUID        `json:"user_id"`
	Type              NotificationType `json:"type"`
	Title             string           `json:"title"`
	Message           string           `json:"message"`
	IsRead            bool             `json:"is_read"`
	RelatedTaskID     *uuid.UUID       `json:"related_task_id,omitempty"`
	RelatedDocumentID *uuid.UUID       `json:"related_document_id,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// NewNotification creates an unread notification for a user.
func NewNotification(orgID, userID uuid.UUID, typ NotificationType, title, message string) *Notification {
	now := time.Now().UTC()
	return &Notification{
		ID:        uuid.New(),
		OrgID:     orgID,
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
