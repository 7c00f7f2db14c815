package models

import (
	"time"

	"github.com/google/uuid"
)

// ControlStatus tracks how far an organization has taken a control.
// Transitions are unconstrained; any status may follow any other.
type ControlStatus string

const (
	ControlStatusNotStarted    ControlStatus = "not_started"
	ControlStatusInProgress    ControlStatus = "in_progress"
	ControlStatusReviewPending ControlStatus = "review_pending"
	ControlStatusCompleted     ControlStatus = "completed"
	ControlStatusNotApplicable ControlStatus = "not_applicable"
)

// ValidControlStatus reports whether s is a known control status.
func ValidControlStatus(s ControlStatus) bool {
	switch s {
	case ControlStatusNotStarted, ControlStatusInProgress, ControlStatusReviewPending,
		ControlStatusCompleted, ControlStatusNotApplicable:
		return true
	}
	return false
}

// Control is an immutable ISO 27001:2022 Annex A requirement definition,
// shared across all tenants. Per-tenant state lives on OrganizationControl.
type Control struct {
	ID             uuid.UUID `json:"id"`
	Code           string    `json:"code"` // e.g. "A.5.1"
	NameEN         string    `json:"name_en"`
	NameKO         string    `json:"name_ko"`
	DescriptionEN  string    `json:"description_en,omitempty"`
	DescriptionKO  string    `json:"description_ko,omitempty"`
	Category       string    `json:"category"` // e.g. "A.5"
	CategoryNameEN string    `json:"category_name_en"`
	CategoryNameKO string    `json:"category_name_ko"`
}

// OrganizationControl is an organization's adoption record for one catalog
// control. Exactly one row exists per (organization, control) pair; rows are
// seeded for the full catalog when the organization is registered.
type OrganizationControl struct {
	ID           uuid.UUID     `json:"id"`
	OrgID        uuid.UUID     `json:"organization_id"`
	ControlID    uuid.UUID     `json:"control_id"`
	Status       ControlStatus `json:"status"`
	IsApplicable bool          `json:"is_applicable"`
	Notes        string        `json:"notes,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`

	// Control is the joined catalog definition, populated on reads.
	Control *Control `json:"control,omitempty"`
}

// NewOrganizationControl creates an adoption record in its initial state.
func NewOrganizationControl(orgID, controlID uuid.UUID) *OrganizationControl {
	now := time.Now().UTC()
	return &OrganizationControl{
		ID:           uuid.New(),
		OrgID:        orgID,
		ControlID:    controlID,
		Status:       ControlStatusNotStarted,
		IsApplicable: true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// UpdateOrganizationControlRequest is the request body for updating an
// adoption record. Nil fields are left unchanged.
type UpdateOrganizationControlRequest struct {
	Status       *ControlStatus `json:"status,omitempty" binding:"omitempty,oneof=not_started in_progress review_pending completed not_applicable"`
	IsApplicable *bool          `json:"is_applicable,omitempty"`
	Notes        *string        `json:"notes,omitempty"`
}

// Apply copies the set fields onto oc.
func (r *UpdateOrganizationControlRequest) Apply(oc *OrganizationControl) {
	if r.Status != nil {
		oc.Status = *r.Status
	}
	if r.IsApplicable != nil {
		oc.IsApplicable = *r.IsApplicable
	}
	if r.Notes != nil {
		oc.Notes = *r.Notes
	}
	oc.UpdatedAt = time.Now().UTC()
}

// ControlFilter narrows adoption record listings. Search matches the control
// code or either language's name, case-insensitively.
type ControlFilter struct {
	Status   *ControlStatus
	Category *string
	Search   *string
}

// ControlCategoryGroup is one category bucket in the grouped catalog view.
type ControlCategoryGroup struct {
	Category       string                 `json:"category"`
	CategoryNameEN string                 `json:"category_name_en"`
	CategoryNameKO string                 `json:"category_name_ko"`
	Controls       []*OrganizationControl `json:"controls"`
	Total          int                    `json:"total"`
	Completed      int                    `json:"completed"`
}
