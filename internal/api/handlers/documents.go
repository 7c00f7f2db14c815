package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/haneul-labs/complyhub/internal/models"
	"github.com/haneul-labs/complyhub/internal/storage"
)

// maxUploadBytes caps direct uploads through the API. Larger files go
// through the presigned flow.
const maxUploadBytes = 50 << 20

// DocumentStore defines the persistence operations for document records.
type DocumentStore interface {
	GetDocuments(ctx context.Context, orgID uuid.UUID, filter models.DocumentFilter) ([]*models.Document, error)
	GetDocumentByID(ctx context.Context, orgID, id uuid.UUID) (*models.Document, error)
	CreateDocument(ctx context.Context, doc *models.Document) error
	UpdateDocument(ctx context.Context, doc *models.Document) error
	DeleteDocument(ctx context.Context, orgID, id uuid.UUID) (string, error)
}

// DocumentBlobStore defines the blob operations documents need.
type DocumentBlobStore interface {
	Put(ctx context.Context, key, mimeType string, body io.Reader, size int64) error
	PresignPut(ctx context.Context, key, mimeType string) (string, error)
	PresignGet(ctx context.Context, key, filename string) (string, error)
	Delete(ctx context.Context, key string) error
}

// DocumentsHandler handles document metadata and file transfer endpoints.
// Metadata lives in the database; bytes live in the blob store and move via
// presigned URLs where possible.
type DocumentsHandler struct {
	store    DocumentStore
	blobs    DocumentBlobStore
	recorder ActivityRecorder
	logger   zerolog.Logger
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(store DocumentStore, blobs DocumentBlobStore, recorder ActivityRecorder, logger zerolog.Logger) *DocumentsHandler {
	return &DocumentsHandler{
		store:    store,
		blobs:    blobs,
		recorder: recorder,
		logger:   logger.With().Str("component", "documents_handler").Logger(),
	}
}

// RegisterRoutes registers document routes on the given router group.
func (h *DocumentsHandler) RegisterRoutes(r *gin.RouterGroup) {
	docs := r.Group("/documents")
	{
		docs.GET("", h.List)
		docs.POST("", h.Upload)
		docs.POST("/presigned-upload", h.PresignedUpload)
		docs.GET("/:id", h.Get)
		docs.GET("/:id/download", h.Download)
		docs.PATCH("/:id", h.Update)
		docs.DELETE("/:id", h.Delete)
	}
}

// List returns the organization's document records matching the query
// filters, plus the total stored bytes of that same matching set.
// GET /api/v1/documents
func (h *DocumentsHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var filter models.DocumentFilter
	if s := c.Query("control_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid control_id"})
			return
		}
		filter.ControlID = &id
	}
	if s := c.Query("task_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task_id"})
			return
		}
		filter.TaskID = &id
	}
	if s := c.Query("search"); s != "" {
		filter.Search = &s
	}

	documents, err := h.store.GetDocuments(c.Request.Context(), p.OrgID, filter)
	if err != nil {
		respondStoreError(c, h.logger, err, "documents")
		return
	}

	var totalSize int64
	for _, doc := range documents {
		totalSize += doc.FileSize
	}

	c.JSON(http.StatusOK, gin.H{
		"documents":  documents,
		"total_size": totalSize,
	})
}

// Upload receives file bytes as multipart form data, stores them in the
// blob store, and creates the metadata record.
// POST /api/v1/documents
func (h *DocumentsHandler) Upload(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large, use the presigned upload flow"})
		return
	}

	doc, ok := h.buildDocumentFromForm(c, p.OrgID, p.UserID, fileHeader.Filename, fileHeader.Size,
		fileHeader.Header.Get("Content-Type"))
	if !ok {
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to open uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	defer file.Close()

	if err := h.blobs.Put(c.Request.Context(), doc.FileKey, doc.MimeType, file, doc.FileSize); err != nil {
		h.logger.Error().Err(err).Str("file_key", doc.FileKey).Msg("failed to store file")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to store file"})
		return
	}

	if err := h.store.CreateDocument(c.Request.Context(), doc); err != nil {
		// The blob exists but the record does not; remove the orphan.
		if cleanupErr := h.blobs.Delete(c.Request.Context(), doc.FileKey); cleanupErr != nil {
			h.logger.Warn().Err(cleanupErr).Str("file_key", doc.FileKey).Msg("failed to clean up orphaned blob")
		}
		respondStoreError(c, h.logger, err, "document")
		return
	}

	h.record(c, models.NewActivity(p.OrgID, p.UserID, models.ActivityDocumentUploaded,
		"uploaded document "+doc.Name, map[string]any{"document_id": doc.ID.String()}))

	c.JSON(http.StatusCreated, doc)
}

// PresignedUploadRequest registers a document and returns a URL the client
// PUTs the bytes to directly, bypassing the API server.
type PresignedUploadRequest struct {
	Filename    string     `json:"filename" binding:"required,min=1,max=255"`
	MimeType    string     `json:"mime_type" binding:"required"`
	Size        int64      `json:"size" binding:"required,min=1"`
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	ControlID   *uuid.UUID `json:"control_id,omitempty"`
	TaskID      *uuid.UUID `json:"task_id,omitempty"`
}

// PresignedUpload creates the metadata record and returns a presigned PUT
// URL for the bytes.
// POST /api/v1/documents/presigned-upload
func (h *DocumentsHandler) PresignedUpload(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req PresignedUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := req.Name
	if name == "" {
		name = req.Filename
	}

	key := storage.GenerateKey(p.OrgID, req.Filename)
	doc := models.NewDocument(p.OrgID, p.UserID, name, key, req.MimeType, req.Size)
	doc.Description = req.Description
	doc.ExpiresAt = req.ExpiresAt
	doc.ControlID = req.ControlID
	doc.TaskID = req.TaskID

	uploadURL, err := h.blobs.PresignPut(c.Request.Context(), key, req.MimeType)
	if err != nil {
		h.logger.Error().Err(err).Str("file_key", key).Msg("failed to presign upload")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to presign upload"})
		return
	}

	if err := h.store.CreateDocument(c.Request.Context(), doc); err != nil {
		respondStoreError(c, h.logger, err, "document")
		return
	}

	h.record(c, models.NewActivity(p.OrgID, p.UserID, models.ActivityDocumentUploaded,
		"uploaded document "+doc.Name, map[string]any{"document_id": doc.ID.String()}))

	c.JSON(http.StatusCreated, gin.H{
		"document":   doc,
		"upload_url": uploadURL,
	})
}

// Get returns one document record.
// GET /api/v1/documents/:id
func (h *DocumentsHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	doc, err := h.store.GetDocumentByID(c.Request.Context(), p.OrgID, id)
	if err != nil {
		respondStoreError(c, h.logger, err, "document")
		return
	}

	c.JSON(http.StatusOK, doc)
}

// Download returns a time-limited URL for the document's bytes.
// GET /api/v1/documents/:id/download
func (h *DocumentsHandler) Download(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	doc, err := h.store.GetDocumentByID(c.Request.Context(), p.OrgID, id)
	if err != nil {
		respondStoreError(c, h.logger, err, "document")
		return
	}

	url, err := h.blobs.PresignGet(c.Request.Context(), doc.FileKey, doc.Name)
	if err != nil {
		h.logger.Error().Err(err).Str("file_key", doc.FileKey).Msg("failed to presign download")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to presign download"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"download_url": url})
}

// Update applies a partial update to document metadata. The stored bytes
// never change; re-uploading creates a new document.
// PATCH /api/v1/documents/:id
func (h *DocumentsHandler) Update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req models.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.store.GetDocumentByID(c.Request.Context(), p.OrgID, id)
	if err != nil {
		respondStoreError(c, h.logger, err, "document")
		return
	}

	req.Apply(doc)
	if err := h.store.UpdateDocument(c.Request.Context(), doc); err != nil {
		respondStoreError(c, h.logger, err, "document")
		return
	}

	c.JSON(http.StatusOK, doc)
}

// Delete removes the metadata record first, then the blob. A blob deletion
// failure leaves an unreferenced object behind rather than a dangling
// record, so the API response is already final when cleanup runs.
// DELETE /api/v1/documents/:id
func (h *DocumentsHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	doc, err := h.store.GetDocumentByID(c.Request.Context(), p.OrgID, id)
	if err != nil {
		respondStoreError(c, h.logger, err, "document")
		return
	}

	fileKey, err := h.store.DeleteDocument(c.Request.Context(), p.OrgID, id)
	if err != nil {
		respondStoreError(c, h.logger, err, "document")
		return
	}

	h.deleteBlobWithRetry(c.Request.Context(), fileKey)

	h.record(c, models.NewActivity(p.OrgID, p.UserID, models.ActivityDocumentDeleted,
		"deleted document "+doc.Name, map[string]any{"document_id": id.String()}))

	c.Status(http.StatusNoContent)
}

// deleteBlobWithRetry removes the blob with exponential backoff. Exhausting
// the retries only logs; the metadata record is already gone.
func (h *DocumentsHandler) deleteBlobWithRetry(ctx context.Context, fileKey string) {
	operation := func() (struct{}, error) {
		return struct{}{}, h.blobs.Delete(ctx, fileKey)
	}
	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(4),
	)
	if err != nil {
		h.logger.Warn().Err(err).Str("file_key", fileKey).Msg("failed to delete blob, object orphaned")
	}
}

// buildDocumentFromForm reads the optional metadata fields of a multipart
// upload and assembles the document record.
func (h *DocumentsHandler) buildDocumentFromForm(c *gin.Context, orgID, userID uuid.UUID, filename string, size int64, mimeType string) (*models.Document, bool) {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	name := c.PostForm("name")
	if name == "" {
		name = filename
	}

	key := storage.GenerateKey(orgID, filename)
	doc := models.NewDocument(orgID, userID, name, key, mimeType, size)
	doc.Description = c.PostForm("description")

	if s := c.PostForm("control_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid control_id"})
			return nil, false
		}
		doc.ControlID = &id
	}
	if s := c.PostForm("task_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task_id"})
			return nil, false
		}
		doc.TaskID = &id
	}
	if s := c.PostForm("expires_at"); s != "" {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expires_at, use RFC 3339"})
			return nil, false
		}
		doc.ExpiresAt = &ts
	}

	return doc, true
}

func (h *DocumentsHandler) record(c *gin.Context, activity *models.Activity) {
	if h.recorder == nil {
		return
	}
	if err := h.recorder.Record(c.Request.Context(), activity); err != nil {
		h.logger.Warn().Err(err).Str("type", string(activity.Type)).Msg("failed to record activity")
	}
}
