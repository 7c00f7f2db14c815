package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/haneul-labs/complyhub/internal/auth"
	"github.com/haneul-labs/complyhub/internal/db"
	"github.com/haneul-labs/complyhub/internal/models"
)

// AuthStore defines the persistence operations for signup and login.
type AuthStore interface {
	RegisterOrganization(ctx context.Context, org *models.Organization, admin *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AuthHandler handles registration, login, and token refresh.
type AuthHandler struct {
	store  AuthStore
	tokens *auth.TokenManager
	logger zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(store AuthStore, tokens *auth.TokenManager, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		store:  store,
		tokens: tokens,
		logger: logger.With().Str("component", "auth_handler").Logger(),
	}
}

// RegisterRoutes registers auth routes on the given router group. These are
// the only unauthenticated endpoints besides health checks.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
	}
}

// RegisterRequest creates an organization together with its first admin user.
type RegisterRequest struct {
	OrganizationName string             `json:"organization_name" binding:"required,min=1,max=255"`
	ProfileType      models.ProfileType `json:"profile_type"`
	Email            string             `json:"email" binding:"required,email"`
	Password         string             `json:"password" binding:"required,min=8,max=72"`
	Name             string             `json:"name" binding:"required,min=1,max=255"`
}

// LoginRequest authenticates by email and password.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest exchanges a refresh token for a new token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Register creates a new organization with its admin user and returns a
// token pair for the admin.
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile := req.ProfileType
	if profile == "" {
		profile = models.ProfileStartup
	}
	if !models.ValidProfileType(profile) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile type"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	org := models.NewOrganization(req.OrganizationName, profile)
	admin := models.NewUser(org.ID, req.Email, req.Name, hash, models.UserRoleAdmin)

	if err := h.store.RegisterOrganization(c.Request.Context(), org, admin); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		h.logger.Error().Err(err).Str("email", req.Email).Msg("failed to register organization")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	pair, err := h.tokens.IssuePair(admin)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to issue tokens")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"organization": org,
		"user":         admin,
		"tokens":       pair,
	})
}

// Login authenticates a user and returns a token pair.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.store.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		// Same response for unknown email and wrong password.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	pair, err := h.tokens.IssuePair(user)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to issue tokens")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   user,
		"tokens": pair,
	})
}

// Refresh exchanges a valid refresh token for a new token pair. The user is
// re-read so role changes take effect on the next refresh.
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := h.tokens.VerifyRefresh(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	user, err := h.store.GetUserByID(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	pair, err := h.tokens.IssuePair(user)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to issue tokens")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": pair})
}
