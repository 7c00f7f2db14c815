package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole defines the role of a user within an organization.
type UserRole string

const (
	// UserRoleAdmin manages organization settings and user roles.
	UserRoleAdmin UserRole = "admin"
	// UserRoleManager oversees controls and tasks for a department.
	UserRoleManager UserRole = "manager"
	// UserRoleMember is a standard contributor.
	UserRoleMember UserRole = "member"
)

// ValidUserRole reports whether r is a known role.
func ValidUserRole(r UserRole) bool {
	switch r {
	case UserRoleAdmin, UserRoleManager, UserRoleMember:
		return true
	}
	return false
}

// User represents a user of the platform. Email is unique across all
// organizations, not per tenant.
type User struct {
	ID           uuid.UUID `json:"id"`
	OrgID        uuid.UUID `json:"organization_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser creates a new User belonging to the given organization.
func NewUser(orgID uuid.UUID, email, name, passwordHash string, role UserRole) *User {
	now := time.Now().UTC()
	return &User{
		ID:           uuid.New(),
		OrgID:        orgID,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// UpdateUserRequest is the request body for updating a user.
// Nil fields are left unchanged.
type UpdateUserRequest struct {
	Name *string   `json:"name,omitempty"`
	Role *UserRole `json:"role,omitempty" binding:"omitempty,oneof=admin manager member"`
}

// Apply copies the set fields onto u.
func (r *UpdateUserRequest) Apply(u *User) {
	if r.Name != nil {
		u.Name = *r.Name
	}
	if r.Role != nil {
		u.Role = *r.Role
	}
	u.UpdatedAt = time.Now().UTC()
}
