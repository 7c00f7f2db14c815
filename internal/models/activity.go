package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActivityType tags an audit trail entry.
type ActivityType string

const (
	ActivityTaskCreated          ActivityType = "task_created"
	ActivityTaskUpdated          ActivityType = "task_updated"
	ActivityTaskCompleted        ActivityType = "task_completed"
	ActivityTaskDeleted          ActivityType = "task_deleted"
	ActivityDocumentUploaded     ActivityType = "document_uploaded"
	ActivityDocumentDeleted      ActivityType = "document_deleted"
	ActivityControlStatusChanged ActivityType = "control_status_changed"
	ActivityUserInvited          ActivityType = "user_invited"
	ActivityUserRemoved          ActivityType = "user_removed"
)

// Activity is one append-only audit trail entry. Rows are never updated or
// deleted.
type Activity struct {
	ID          uuid.UUID      `json:"id"`
	OrgID       uuid.UUID      `json:"organization_id"`
	UserID      uuid.UUID      `json:"user_id"`
	Type        ActivityType   `json:"type"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NewActivity creates a new audit trail entry.
func NewActivity(orgID, userID uuid.UUID, typ ActivityType, description string, metadata map[string]any) *Activity {
	return &Activity{
		ID:          uuid.New(),
		OrgID:       orgID,
		UserID:      userID,
		Type:        typ,
		Description: description,
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
	}
}

// MetadataJSON marshals the metadata payload for storage. Returns nil for
// empty metadata so the column stays NULL.
func (a *Activity) MetadataJSON() ([]byte, error) {
	if len(a.Metadata) == 0 {
		return nil, nil
	}
	return json.Marshal(a.Metadata)
}

// ActivityFilter narrows audit feed listings.
type ActivityFilter struct {
	Type   *ActivityType
	UserID *uuid.UUID
	Since  *time.Time
	Limit  int
}
