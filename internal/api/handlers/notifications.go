package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/haneul-labs/complyhub/internal/models"
)

// NotificationStore defines the persistence operations for notifications.
type NotificationStore interface {
	GetNotificationsByUser(ctx context.Context, orgID, userID uuid.UUID, unreadOnly bool) ([]*models.Notification, error)
	UnreadNotificationCount(ctx context.Context, orgID, userID uuid.UUID) (int, error)
	MarkNotificationRead(ctx context.Context, orgID, userID, id uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context, orgID, userID uuid.UUID) (int64, error)
}

// NotificationsHandler handles notification HTTP endpoints. Notifications
// are system-produced; users can only read them and mark them read.
type NotificationsHandler struct {
	store  NotificationStore
	logger zerolog.Logger
}

// NewNotificationsHandler creates a new NotificationsHandler.
func NewNotificationsHandler(store NotificationStore, logger zerolog.Logger) *NotificationsHandler {
	return &NotificationsHandler{
		store:  store,
		logger: logger.With().Str("component", "notifications_handler").Logger(),
	}
}

// RegisterRoutes registers notification routes on the given router group.
func (h *NotificationsHandler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.List)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.POST("/:id/read", h.MarkRead)
		notifications.POST("/read-all", h.MarkAllRead)
	}
}

// List returns the caller's notifications, newest first. Pass unread=true
// to exclude read ones.
// GET /api/v1/notifications
func (h *NotificationsHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	unreadOnly := c.Query("unread") == "true"
	notifications, err := h.store.GetNotificationsByUser(c.Request.Context(), p.OrgID, p.UserID, unreadOnly)
	if err != nil {
		respondStoreError(c, h.logger, err, "notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// UnreadCount returns the caller's unread notification count.
// GET /api/v1/notifications/unread-count
func (h *NotificationsHandler) UnreadCount(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	count, err := h.store.UnreadNotificationCount(c.Request.Context(), p.OrgID, p.UserID)
	if err != nil {
		respondStoreError(c, h.logger, err, "notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

// MarkRead marks one of the caller's notifications as read.
// POST /api/v1/notifications/:id/read
func (h *NotificationsHandler) MarkRead(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.store.MarkNotificationRead(c.Request.Context(), p.OrgID, p.UserID, id); err != nil {
		respondStoreError(c, h.logger, err, "notification")
		return
	}

	c.Status(http.StatusNoContent)
}

// MarkAllRead marks all of the caller's notifications as read.
// POST /api/v1/notifications/read-all
func (h *NotificationsHandler) MarkAllRead(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	updated, err := h.store.MarkAllNotificationsRead(c.Request.Context(), p.OrgID, p.UserID)
	if err != nil {
		respondStoreError(c, h.logger, err, "notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
