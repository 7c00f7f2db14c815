package models

import (
	"time"

	"github.com/google/uuid"
)

// Document represents the metadata of an uploaded evidence file. The bytes
// themselves live in the blob store under FileKey.
type Document struct {
	ID           uuid.UUID  `json:"id"`
	OrgID        uuid.UUID  `json:"organization_id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	FileKey      string     `json:"file_key"`
	FileSize     int64      `json:"file_size"`
	MimeType     string     `json:"mime_type"`
	Version      int        `json:"version"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	ControlID    *uuid.UUID `json:"control_id,omitempty"`
	TaskID       *uuid.UUID `json:"task_id,omitempty"`
	UploadedByID *uuid.UUID `json:"uploaded_by_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewDocument creates a new Document record for an uploaded file.
func NewDocument(orgID, uploadedBy uuid.UUID, name, fileKey, mimeType string, size int64) *Document {
	now := time.Now().UTC()
	return &Document{
		ID:           uuid.New(),
		OrgID:        orgID,
		Name:         name,
		FileKey:      fileKey,
		FileSize:     size,
		MimeType:     mimeType,
		Version:      1,
		UploadedByID: &uploadedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// UpdateDocumentRequest is the request body for updating document metadata.
// Nil fields are left unchanged. File bytes are immutable; re-uploading
// creates a new document.
type UpdateDocumentRequest struct {
	Name        *string     `json:"name,omitempty" binding:"omitempty,min=1,max=255"`
	Description *string     `json:"description,omitempty"`
	ExpiresAt   *time.Time  `json:"expires_at,omitempty"`
	ControlID   *uuid.UUID  `json:"control_id,omitempty"`
	TaskID      *uuid.UUID  `json:"task_id,omitempty"`
}

// Apply copies the set fields onto d.
func (r *UpdateDocumentRequest) Apply(d *Document) {
	if r.Name != nil {
		d.Name = *r.Name
	}
	if r.Description != nil {
		d.Description = *r.Description
	}
	if r.ExpiresAt != nil {
		d.ExpiresAt = r.ExpiresAt
	}
	if r.ControlID != nil {
		d.ControlID = r.ControlID
	}
	if r.TaskID != nil {
		d.TaskID = r.TaskID
	}
	d.UpdatedAt = time.Now().UTC()
}

// DocumentFilter narrows document listings.
type DocumentFilter struct {
	ControlID *uuid.UUID
	TaskID    *uuid.UUID
	Search    *string
}
