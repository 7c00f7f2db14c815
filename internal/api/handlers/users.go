package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/haneul-labs/complyhub/internal/api/middleware"
	"github.com/haneul-labs/complyhub/internal/auth"
	"github.com/haneul-labs/complyhub/internal/models"
)

// UserStore defines the persistence operations for users.
type UserStore interface {
	GetUsersByOrgID(ctx context.Context, orgID uuid.UUID) ([]*models.User, error)
	GetOrgUserByID(ctx context.Context, orgID, id uuid.UUID) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, orgID, id uuid.UUID) error
}

// UsersHandler handles user-related HTTP endpoints.
type UsersHandler struct {
	store    UserStore
	recorder ActivityRecorder
	logger   zerolog.Logger
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(store UserStore, recorder ActivityRecorder, logger zerolog.Logger) *UsersHandler {
	return &UsersHandler{
		store:    store,
		recorder: recorder,
		logger:   logger.With().Str("component", "users_handler").Logger(),
	}
}

// RegisterRoutes registers user routes on the given router group.
func (h *UsersHandler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.GET("", h.List)
		users.GET("/me", h.Me)
		users.PATCH("/me", h.UpdateMe)
		users.GET("/:id", h.Get)
		users.POST("", middleware.RequireAdmin(), h.Invite)
		users.PATCH("/:id", middleware.RequireAdmin(), h.Update)
		users.DELETE("/:id", middleware.RequireAdmin(), h.Delete)
	}
}

// List returns all users in the caller's organization.
// GET /api/v1/users
func (h *UsersHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	users, err := h.store.GetUsersByOrgID(c.Request.Context(), p.OrgID)
	if err != nil {
		respondStoreError(c, h.logger, err, "users")
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// Me returns the caller's own user record.
// GET /api/v1/users/me
func (h *UsersHandler) Me(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	user, err := h.store.GetOrgUserByID(c.Request.Context(), p.OrgID, p.UserID)
	if err != nil {
		respondStoreError(c, h.logger, err, "user")
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateProfileRequest is the request body for a self-service profile edit.
// Role changes stay admin-only through PATCH /users/:id.
type UpdateProfileRequest struct {
	Name *string `json:"name,omitempty" binding:"omitempty,min=1,max=255"`
}

// UpdateMe lets the caller edit their own profile.
// PATCH /api/v1/users/me
func (h *UsersHandler) UpdateMe(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.store.GetOrgUserByID(c.Request.Context(), p.OrgID, p.UserID)
	if err != nil {
		respondStoreError(c, h.logger, err, "user")
		return
	}

	(&models.UpdateUserRequest{Name: req.Name}).Apply(user)
	if err := h.store.UpdateUser(c.Request.Context(), user); err != nil {
		respondStoreError(c, h.logger, err, "user")
		return
	}

	c.JSON(http.StatusOK, user)
}

// Get returns one user in the caller's organization.
// GET /api/v1/users/:id
func (h *UsersHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	user, err := h.store.GetOrgUserByID(c.Request.Context(), p.OrgID, id)
	if err != nil {
		respondStoreError(c, h.logger, err, "user")
		return
	}

	c.JSON(http.StatusOK, user)
}

// InviteUserRequest creates a user in the caller's organization. Admin only.
type InviteUserRequest struct {
	Email    string          `json:"email" binding:"required,email"`
	Name     string          `json:"name" binding:"required,min=1,max=255"`
	Password string          `json:"password" binding:"required,min=8,max=72"`
	Role     models.UserRole `json:"role"`
}

// Invite creates a new user in the caller's organization.
// POST /api/v1/users
func (h *UsersHandler) Invite(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req InviteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := req.Role
	if role == "" {
		role = models.UserRoleMember
	}
	if !models.ValidUserRole(role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	user := models.NewUser(p.OrgID, req.Email, req.Name, hash, role)
	if err := h.store.CreateUser(c.Request.Context(), user); err != nil {
		respondStoreError(c, h.logger, err, "user")
		return
	}

	h.record(c, models.NewActivity(p.OrgID, p.UserID, models.ActivityUserInvited,
		"invited "+user.Email, map[string]any{"invited_user_id": user.ID.String(), "role": string(role)}))

	c.JSON(http.StatusCreated, user)
}

// Update applies a partial update to a user in the caller's organization.
// PATCH /api/v1/users/:id
func (h *UsersHandler) Update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Role != nil && !models.ValidUserRole(*req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}

	user, err := h.store.GetOrgUserByID(c.Request.Context(), p.OrgID, id)
	if err != nil {
		respondStoreError(c, h.logger, err, "user")
		return
	}

	req.Apply(user)
	if err := h.store.UpdateUser(c.Request.Context(), user); err != nil {
		respondStoreError(c, h.logger, err, "user")
		return
	}

	c.JSON(http.StatusOK, user)
}

// Delete removes a user from the caller's organization. Self-removal is
// rejected so an organization always keeps at least one admin.
// DELETE /api/v1/users/:id
func (h *UsersHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if id == p.UserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot remove yourself"})
		return
	}

	user, err := h.store.GetOrgUserByID(c.Request.Context(), p.OrgID, id)
	if err != nil {
		respondStoreError(c, h.logger, err, "user")
		return
	}

	if err := h.store.DeleteUser(c.Request.Context(), p.OrgID, id); err != nil {
		respondStoreError(c, h.logger, err, "user")
		return
	}

	h.record(c, models.NewActivity(p.OrgID, p.UserID, models.ActivityUserRemoved,
		"removed "+user.Email, map[string]any{"removed_user_id": id.String()}))

	c.Status(http.StatusNoContent)
}

func (h *UsersHandler) record(c *gin.Context, activity *models.Activity) {
	if h.recorder == nil {
		return
	}
	if err := h.recorder.Record(c.Request.Context(), activity); err != nil {
		h.logger.Warn().Err(err).Str("type", string(activity.Type)).Msg("failed to record activity")
	}
}
