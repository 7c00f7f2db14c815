package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/haneul-labs/complyhub/internal/activity"
	"github.com/haneul-labs/complyhub/internal/models"
)

// ActivityReadStore defines the read operations for the audit feed.
type ActivityReadStore interface {
	GetActivities(ctx context.Context, orgID uuid.UUID, filter models.ActivityFilter) ([]*models.Activity, error)
}

// ActivityHandler serves the audit trail, both as a paged listing and as a
// live WebSocket stream.
type ActivityHandler struct {
	store  ActivityReadStore
	feed   *activity.Feed
	logger zerolog.Logger
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(store ActivityReadStore, feed *activity.Feed, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		store:  store,
		feed:   feed,
		logger: logger.With().Str("component", "activity_handler").Logger(),
	}
}

// RegisterRoutes registers activity routes on the given router group.
func (h *ActivityHandler) RegisterRoutes(r *gin.RouterGroup) {
	activities := r.Group("/activities")
	{
		activities.GET("", h.List)
		activities.GET("/stream", h.Stream)
	}
}

// List returns the organization's audit feed, newest first.
// GET /api/v1/activities
func (h *ActivityHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var filter models.ActivityFilter
	if s := c.Query("type"); s != "" {
		typ := models.ActivityType(s)
		filter.Type = &typ
	}
	if s := c.Query("user_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		filter.UserID = &id
	}
	if s := c.Query("since"); s != "" {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since, use RFC 3339"})
			return
		}
		filter.Since = &ts
	}
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		filter.Limit = n
	}

	activities, err := h.store.GetActivities(c.Request.Context(), p.OrgID, filter)
	if err != nil {
		respondStoreError(c, h.logger, err, "activities")
		return
	}

	c.JSON(http.StatusOK, gin.H{"activities": activities})
}

// Stream upgrades the connection to a WebSocket delivering the
// organization's new audit entries as they happen.
// GET /api/v1/activities/stream
func (h *ActivityHandler) Stream(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if h.feed == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live feed not available"})
		return
	}

	h.feed.HandleWebSocket(c.Writer, c.Request, p.OrgID, p.UserID)
}
