// Package models defines the domain models for ComplyHub.
package models

import (
	"time"

	"github.com/google/uuid"
)

// ProfileType classifies the size/maturity of an organization. It drives
// assistant task suggestions but has no effect on access control.
type ProfileType string

const (
	ProfileStartup    ProfileType = "startup"
	ProfileSME        ProfileType = "sme"
	ProfileMidsize    ProfileType = "midsize"
	ProfileEnterprise ProfileType = "enterprise"
)

// ValidProfileType reports whether p is a known profile type.
func ValidProfileType(p ProfileType) bool {
	switch p {
	case ProfileStartup, ProfileSME, ProfileMidsize, ProfileEnterprise:
		return true
	}
	return false
}

// Organization represents a tenant. Every tenant-scoped record carries its ID,
// and no data crosses organization boundaries.
type Organization struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	ProfileType ProfileType `json:"profile_type"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewOrganization creates a new Organization with the given name.
func NewOrganization(name string, profile ProfileType) *Organization {
	now := time.Now().UTC()
	if profile == "" {
		profile = ProfileStartup
	}
	return &Organization{
		ID:          uuid.New(),
		Name:        name,
		ProfileType: profile,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// UpdateOrganizationRequest is the request body for updating an organization.
// Nil fields are left unchanged.
type UpdateOrganizationRequest struct {
	Name        *string      `json:"name,omitempty"`
	ProfileType *ProfileType `json:"profile_type,omitempty" binding:"omitempty,oneof=startup sme midsize enterprise"`
}

// Apply copies the set fields onto org.
func (r *UpdateOrganizationRequest) Apply(org *Organization) {
	if r.Name != nil {
		org.Name = *r.Name
	}
	if r.ProfileType != nil {
		org.ProfileType = *r.ProfileType
	}
	org.UpdatedAt = time.Now().UTC()
}
