// Package handlers contains the Gin HTTP handlers for the ComplyHub API.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/haneul-labs/complyhub/internal/api/middleware"
	"github.com/haneul-labs/complyhub/internal/db"
	"github.com/haneul-labs/complyhub/internal/models"
)

// ActivityRecorder appends audit trail entries and fans them out to live
// feed subscribers. A recording failure is logged by the caller but never
// fails the mutation that produced the entry.
type ActivityRecorder interface {
	Record(ctx context.Context, activity *models.Activity) error
}

// principal returns the authenticated identity, aborting with 401 when the
// auth middleware did not run.
func principal(c *gin.Context) (middleware.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
	}
	return p, ok
}

// parseIDParam parses the :id path parameter as a UUID, responding 400 on
// failure.
func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ID"})
		return uuid.Nil, false
	}
	return id, true
}

// respondStoreError translates store errors into HTTP responses. Unexpected
// errors are logged and surfaced as a generic 500 without internal detail.
func respondStoreError(c *gin.Context, logger zerolog.Logger, err error, noun string) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": noun + " not found"})
	case errors.Is(err, db.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": noun + " already exists"})
	case errors.Is(err, db.ErrInvalidReference):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "referenced resource not found"})
	default:
		logger.Error().Err(err).Str("path", c.FullPath()).Msgf("failed to access %s", noun)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
