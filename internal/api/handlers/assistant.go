package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/haneul-labs/complyhub/internal/assistant"
	"github.com/haneul-labs/complyhub/internal/models"
)

// AssistantStore defines the read operations the assistant grounds its
// answers in.
type AssistantStore interface {
	GetOrganizationStats(ctx context.Context, orgID uuid.UUID) (*models.OrganizationStats, error)
	GetOrgControlByID(ctx context.Context, orgID, id uuid.UUID) (*models.OrganizationControl, error)
	GetDocumentByID(ctx context.Context, orgID, id uuid.UUID) (*models.Document, error)
}

// AssistantHandler exposes the AI compliance assistant. When the upstream
// model is unavailable the endpoints degrade to an explicit degraded
// response instead of failing.
type AssistantHandler struct {
	store  AssistantStore
	client *assistant.Client
	logger zerolog.Logger
}

// NewAssistantHandler creates a new AssistantHandler.
func NewAssistantHandler(store AssistantStore, client *assistant.Client, logger zerolog.Logger) *AssistantHandler {
	return &AssistantHandler{
		store:  store,
		client: client,
		logger: logger.With().Str("component", "assistant_handler").Logger(),
	}
}

// RegisterRoutes registers assistant routes on the given router group.
func (h *AssistantHandler) RegisterRoutes(r *gin.RouterGroup) {
	ai := r.Group("/assistant")
	{
		ai.POST("/chat", h.Chat)
		ai.POST("/analyze-document", h.AnalyzeDocument)
		ai.POST("/suggest-tasks", h.SuggestTasks)
	}
}

// ChatRequest is a free-form question for the assistant.
type ChatRequest struct {
	Message string `json:"message" binding:"required,min=1,max=4000"`
}

// Chat answers a compliance question grounded in the organization's current
// summary.
// POST /api/v1/assistant/chat
func (h *AssistantHandler) Chat(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orgContext := ""
	if stats, err := h.store.GetOrganizationStats(c.Request.Context(), p.OrgID); err == nil {
		orgContext = fmt.Sprintf(
			"Applicable controls: %d (completed %d, in progress %d, not started %d). Tasks: %d total, %d done, %d overdue. Documents: %d, %d expiring soon.",
			stats.TotalControls, stats.CompletedControls, stats.InProgressControls, stats.NotStartedControls,
			stats.TotalTasks, stats.CompletedTasks, stats.OverdueTasks,
			stats.TotalDocuments, stats.ExpiringDocuments,
		)
	}

	answer, err := h.client.Chat(c.Request.Context(), req.Message, orgContext)
	if err != nil {
		h.respondAssistantError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// AnalyzeDocumentRequest names the document to assess, optionally with a
// text excerpt the client extracted.
type AnalyzeDocumentRequest struct {
	DocumentID uuid.UUID `json:"document_id" binding:"required"`
	Excerpt    string    `json:"excerpt,omitempty" binding:"max=20000"`
}

// AnalyzeDocument assesses a document as audit evidence for its linked
// control.
// POST /api/v1/assistant/analyze-document
func (h *AssistantHandler) AnalyzeDocument(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req AnalyzeDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.store.GetDocumentByID(c.Request.Context(), p.OrgID, req.DocumentID)
	if err != nil {
		respondStoreError(c, h.logger, err, "document")
		return
	}

	controlCode, controlName := "", ""
	if doc.ControlID != nil {
		if oc, err := h.store.GetOrgControlByID(c.Request.Context(), p.OrgID, *doc.ControlID); err == nil && oc.Control != nil {
			controlCode = oc.Control.Code
			controlName = oc.Control.NameEN
		}
	}

	analysis, err := h.client.AnalyzeDocument(c.Request.Context(), doc.Name, controlCode, controlName, req.Excerpt)
	if err != nil {
		h.respondAssistantError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"analysis": analysis})
}

// SuggestTasksRequest names the control to suggest remediation tasks for.
type SuggestTasksRequest struct {
	ControlID uuid.UUID `json:"control_id" binding:"required"`
}

// SuggestTasks proposes remediation tasks for a control. Suggestions are
// plain text; nothing is created until the user does so explicitly.
// POST /api/v1/assistant/suggest-tasks
func (h *AssistantHandler) SuggestTasks(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req SuggestTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	oc, err := h.store.GetOrgControlByID(c.Request.Context(), p.OrgID, req.ControlID)
	if err != nil {
		respondStoreError(c, h.logger, err, "control")
		return
	}

	code, name, description := "", "", ""
	if oc.Control != nil {
		code = oc.Control.Code
		name = oc.Control.NameEN
		description = oc.Control.DescriptionEN
	}

	suggestions, err := h.client.SuggestTasks(c.Request.Context(), code, name, description, oc.Notes)
	if err != nil {
		h.respondAssistantError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

func (h *AssistantHandler) respondAssistantError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, assistant.ErrDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "assistant is not configured"})
	case errors.Is(err, assistant.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "assistant is temporarily unavailable, try again later"})
	default:
		h.logger.Error().Err(err).Msg("assistant call failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
