package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/haneul-labs/complyhub/internal/models"
)

// ControlStore defines the persistence operations for control adoption
// records.
type ControlStore interface {
	GetOrgControls(ctx context.Context, orgID uuid.UUID, filter models.ControlFilter) ([]*models.OrganizationControl, error)
	GetOrgControlByID(ctx context.Context, orgID, id uuid.UUID) (*models.OrganizationControl, error)
	UpdateOrgControl(ctx context.Context, oc *models.OrganizationControl) error
}

// ControlsHandler handles control adoption HTTP endpoints. The catalog
// itself is immutable; only per-organization adoption state changes.
type ControlsHandler struct {
	store    ControlStore
	recorder ActivityRecorder
	logger   zerolog.Logger
}

// NewControlsHandler creates a new ControlsHandler.
func NewControlsHandler(store ControlStore, recorder ActivityRecorder, logger zerolog.Logger) *ControlsHandler {
	return &ControlsHandler{
		store:    store,
		recorder: recorder,
		logger:   logger.With().Str("component", "controls_handler").Logger(),
	}
}

// RegisterRoutes registers control routes on the given router group.
func (h *ControlsHandler) RegisterRoutes(r *gin.RouterGroup) {
	controls := r.Group("/controls")
	{
		controls.GET("", h.List)
		controls.GET("/categories", h.Categories)
		controls.GET("/:id", h.Get)
		controls.PATCH("/:id", h.Update)
	}
}

// controlAggregates summarizes a filtered control listing. Counts are
// computed over the same filtered set the listing returns.
type controlAggregates struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByCategory map[string]int `json:"by_category"`
}

// List returns the organization's adoption records matching the query
// filters, with aggregates over the filtered set.
// GET /api/v1/controls
func (h *ControlsHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var filter models.ControlFilter
	if s := c.Query("status"); s != "" {
		status := models.ControlStatus(s)
		if !models.ValidControlStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		filter.Status = &status
	}
	if cat := c.Query("category"); cat != "" {
		filter.Category = &cat
	}
	if search := c.Query("search"); search != "" {
		filter.Search = &search
	}

	controls, err := h.store.GetOrgControls(c.Request.Context(), p.OrgID, filter)
	if err != nil {
		respondStoreError(c, h.logger, err, "controls")
		return
	}

	agg := controlAggregates{
		Total:      len(controls),
		ByStatus:   make(map[string]int),
		ByCategory: make(map[string]int),
	}
	for _, oc := range controls {
		agg.ByStatus[string(oc.Status)]++
		if oc.Control != nil {
			agg.ByCategory[oc.Control.Category]++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"controls":   controls,
		"aggregates": agg,
	})
}

// Categories returns the full catalog grouped by category with per-category
// completion counts.
// GET /api/v1/controls/categories
func (h *ControlsHandler) Categories(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	controls, err := h.store.GetOrgControls(c.Request.Context(), p.OrgID, models.ControlFilter{})
	if err != nil {
		respondStoreError(c, h.logger, err, "controls")
		return
	}

	// Controls arrive ordered by code, so categories come out in catalog
	// order.
	var groups []*models.ControlCategoryGroup
	byCategory := make(map[string]*models.ControlCategoryGroup)
	for _, oc := range controls {
		if oc.Control == nil {
			continue
		}
		group, ok := byCategory[oc.Control.Category]
		if !ok {
			group = &models.ControlCategoryGroup{
				Category:       oc.Control.Category,
				CategoryNameEN: oc.Control.CategoryNameEN,
				CategoryNameKO: oc.Control.CategoryNameKO,
			}
			byCategory[oc.Control.Category] = group
			groups = append(groups, group)
		}
		group.Controls = append(group.Controls, oc)
		group.Total++
		if oc.Status == models.ControlStatusCompleted {
			group.Completed++
		}
	}

	c.JSON(http.StatusOK, gin.H{"categories": groups})
}

// Get returns one adoption record.
// GET /api/v1/controls/:id
func (h *ControlsHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	oc, err := h.store.GetOrgControlByID(c.Request.Context(), p.OrgID, id)
	if err != nil {
		respondStoreError(c, h.logger, err, "control")
		return
	}

	c.JSON(http.StatusOK, oc)
}

// Update applies a partial update to an adoption record. A status change is
// recorded in the audit trail.
// PATCH /api/v1/controls/:id
func (h *ControlsHandler) Update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req models.UpdateOrganizationControlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	oc, err := h.store.GetOrgControlByID(c.Request.Context(), p.OrgID, id)
	if err != nil {
		respondStoreError(c, h.logger, err, "control")
		return
	}

	prevStatus := oc.Status
	req.Apply(oc)

	if err := h.store.UpdateOrgControl(c.Request.Context(), oc); err != nil {
		respondStoreError(c, h.logger, err, "control")
		return
	}

	if oc.Status != prevStatus {
		code := ""
		if oc.Control != nil {
			code = oc.Control.Code
		}
		h.record(c, models.NewActivity(p.OrgID, p.UserID, models.ActivityControlStatusChanged,
			"changed control "+code+" status to "+string(oc.Status), map[string]any{
				"control_id":  oc.ID.String(),
				"code":        code,
				"from_status": string(prevStatus),
				"to_status":   string(oc.Status),
			}))
	}

	c.JSON(http.StatusOK, oc)
}

func (h *ControlsHandler) record(c *gin.Context, activity *models.Activity) {
	if h.recorder == nil {
		return
	}
	if err := h.recorder.Record(c.Request.Context(), activity); err != nil {
		h.logger.Warn().Err(err).Str("type", string(activity.Type)).Msg("failed to record activity")
	}
}
