package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/haneul-labs/complyhub/internal/api/middleware"
	"github.com/haneul-labs/complyhub/internal/models"
)

// OrganizationStore defines the persistence operations for organizations.
type OrganizationStore interface {
	GetOrganizationByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	UpdateOrganization(ctx context.Context, org *models.Organization) error
	GetOrganizationStats(ctx context.Context, orgID uuid.UUID) (*models.OrganizationStats, error)
}

// OrganizationsHandler handles organization-related HTTP endpoints. The
// caller only ever sees their own organization; there is no cross-tenant
// listing.
type OrganizationsHandler struct {
	store  OrganizationStore
	logger zerolog.Logger
}

// NewOrganizationsHandler creates a new OrganizationsHandler.
func NewOrganizationsHandler(store OrganizationStore, logger zerolog.Logger) *OrganizationsHandler {
	return &OrganizationsHandler{
		store:  store,
		logger: logger.With().Str("component", "organizations_handler").Logger(),
	}
}

// RegisterRoutes registers organization routes on the given router group.
func (h *OrganizationsHandler) RegisterRoutes(r *gin.RouterGroup) {
	orgs := r.Group("/organizations")
	{
		orgs.GET("/current", h.GetCurrent)
		orgs.PATCH("/current", middleware.RequireAdmin(), h.UpdateCurrent)
		orgs.GET("/current/stats", h.GetStats)
	}
}

// GetCurrent returns the caller's organization.
// GET /api/v1/organizations/current
func (h *OrganizationsHandler) GetCurrent(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	org, err := h.store.GetOrganizationByID(c.Request.Context(), p.OrgID)
	if err != nil {
		respondStoreError(c, h.logger, err, "organization")
		return
	}

	c.JSON(http.StatusOK, org)
}

// UpdateCurrent applies a partial update to the caller's organization.
// Admin only.
// PATCH /api/v1/organizations/current
func (h *OrganizationsHandler) UpdateCurrent(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req models.UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ProfileType != nil && !models.ValidProfileType(*req.ProfileType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile type"})
		return
	}

	org, err := h.store.GetOrganizationByID(c.Request.Context(), p.OrgID)
	if err != nil {
		respondStoreError(c, h.logger, err, "organization")
		return
	}

	req.Apply(org)
	if err := h.store.UpdateOrganization(c.Request.Context(), org); err != nil {
		respondStoreError(c, h.logger, err, "organization")
		return
	}

	c.JSON(http.StatusOK, org)
}

// GetStats returns the organization's compliance summary, computed freshly
// on every call.
// GET /api/v1/organizations/current/stats
func (h *OrganizationsHandler) GetStats(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	stats, err := h.store.GetOrganizationStats(c.Request.Context(), p.OrgID)
	if err != nil {
		respondStoreError(c, h.logger, err, "organization stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}
