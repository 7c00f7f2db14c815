package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/haneul-labs/complyhub/internal/db"
	"github.com/haneul-labs/complyhub/internal/models"
)

type mockDocumentStore struct {
	docs      []*models.Document
	createErr error
	deleteErr error
}

func (m *mockDocumentStore) GetDocuments(_ context.Context, orgID uuid.UUID, filter models.DocumentFilter) ([]*models.Document, error) {
	var result []*models.Document
	for _, d := range m.docs {
		if d.OrgID != orgID {
			continue
		}
		if filter.ControlID != nil && (d.ControlID == nil || *d.ControlID != *filter.ControlID) {
			continue
		}
		if filter.TaskID != nil && (d.TaskID == nil || *d.TaskID != *filter.TaskID) {
			continue
		}
		if filter.Search != nil && !strings.Contains(strings.ToLower(d.Name), strings.ToLower(*filter.Search)) {
			continue
		}
		result = append(result, d)
	}
	return result, nil
}

func (m *mockDocumentStore) GetDocumentByID(_ context.Context, orgID, id uuid.UUID) (*models.Document, error) {
	for _, d := range m.docs {
		if d.ID == id && d.OrgID == orgID {
			return d, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *mockDocumentStore) CreateDocument(_ context.Context, doc *models.Document) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.docs = append(m.docs, doc)
	return nil
}

func (m *mockDocumentStore) UpdateDocument(_ context.Context, _ *models.Document) error {
	return nil
}

func (m *mockDocumentStore) DeleteDocument(_ context.Context, orgID, id uuid.UUID) (string, error) {
	if m.deleteErr != nil {
		return "", m.deleteErr
	}
	for i, d := range m.docs {
		if d.ID == id && d.OrgID == orgID {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			return d.FileKey, nil
		}
	}
	return "", db.ErrNotFound
}

type mockBlobStore struct {
	puts      map[string]int64
	deleted   []string
	putErr    error
	deleteErr error
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{puts: map[string]int64{}}
}

func (m *mockBlobStore) Put(_ context.Context, key, _ string, body io.Reader, size int64) error {
	if m.putErr != nil {
		return m.putErr
	}
	n, _ := io.Copy(io.Discard, body)
	m.puts[key] = n
	return nil
}

func (m *mockBlobStore) PresignPut(_ context.Context, key, _ string) (string, error) {
	return "https://blobs.example.com/upload/" + key, nil
}

func (m *mockBlobStore) PresignGet(_ context.Context, key, _ string) (string, error) {
	return "https://blobs.example.com/download/" + key, nil
}

func (m *mockBlobStore) Delete(_ context.Context, key string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, key)
	return nil
}

func multipartUpload(t *testing.T, fields map[string]string, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write file: %v", err)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestListDocuments(t *testing.T) {
	orgID := uuid.New()
	p := memberPrincipal(orgID)
	taskID := uuid.New()

	doc1 := models.NewDocument(orgID, p.UserID, "isms-policy.pdf", "k1", "application/pdf", 2048)
	doc2 := models.NewDocument(orgID, p.UserID, "risk-register.xlsx", "k2", "application/vnd.ms-excel", 4096)
	doc2.TaskID = &taskID
	other := models.NewDocument(uuid.New(), uuid.New(), "other.pdf", "k3", "application/pdf", 9999)

	store := &mockDocumentStore{docs: []*models.Document{doc1, doc2, other}}
	h := NewDocumentsHandler(store, newMockBlobStore(), &mockRecorder{}, zerolog.Nop())
	r := newTestRouter(h, p)

	listDocuments := func(t *testing.T, path string) (docs []*models.Document, totalSize int64) {
		t.Helper()
		w := doJSON(r, "GET", path, "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var resp struct {
			Documents []*models.Document `json:"documents"`
			TotalSize int64              `json:"total_size"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		return resp.Documents, resp.TotalSize
	}

	t.Run("all documents", func(t *testing.T) {
		docs, totalSize := listDocuments(t, "/api/v1/documents")
		if len(docs) != 2 {
			t.Errorf("expected 2 documents, got %d", len(docs))
		}
		if totalSize != 6144 {
			t.Errorf("total_size = %d, want 6144", totalSize)
		}
	})

	t.Run("task filter narrows the byte total", func(t *testing.T) {
		docs, totalSize := listDocuments(t, "/api/v1/documents?task_id="+taskID.String())
		if len(docs) != 1 {
			t.Fatalf("expected 1 document, got %d", len(docs))
		}
		if totalSize != 4096 {
			t.Errorf("total_size = %d, want 4096 (sum of the filtered set)", totalSize)
		}
	})

	t.Run("search filter narrows the byte total", func(t *testing.T) {
		docs, totalSize := listDocuments(t, "/api/v1/documents?search=policy")
		if len(docs) != 1 {
			t.Fatalf("expected 1 document, got %d", len(docs))
		}
		if totalSize != 2048 {
			t.Errorf("total_size = %d, want 2048 (sum of the filtered set)", totalSize)
		}
	})
}

func TestUploadDocument(t *testing.T) {
	orgID := uuid.New()
	p := memberPrincipal(orgID)

	t.Run("success", func(t *testing.T) {
		store := &mockDocumentStore{}
		blobs := newMockBlobStore()
		recorder := &mockRecorder{}
		h := NewDocumentsHandler(store, blobs, recorder, zerolog.Nop())
		r := newTestRouter(h, p)

		body, contentType := multipartUpload(t, map[string]string{
			"name":        "Access Control Policy",
			"description": "v2 signed copy",
		}, "policy.pdf", "pdf bytes")

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/documents", body)
		req.Header.Set("Content-Type", contentType)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}
		if len(store.docs) != 1 {
			t.Fatalf("expected 1 document record, got %d", len(store.docs))
		}
		doc := store.docs[0]
		if doc.Name != "Access Control Policy" || doc.Description != "v2 signed copy" {
			t.Errorf("metadata not applied: %+v", doc)
		}
		if _, ok := blobs.puts[doc.FileKey]; !ok {
			t.Errorf("blob not stored under %s", doc.FileKey)
		}
		if recorder.lastType() != models.ActivityDocumentUploaded {
			t.Errorf("activity = %s", recorder.lastType())
		}
	})

	t.Run("record failure cleans up the blob", func(t *testing.T) {
		store := &mockDocumentStore{createErr: db.ErrInvalidReference}
		blobs := newMockBlobStore()
		h := NewDocumentsHandler(store, blobs, &mockRecorder{}, zerolog.Nop())
		r := newTestRouter(h, p)

		body, contentType := multipartUpload(t, nil, "policy.pdf", "pdf bytes")
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/documents", body)
		req.Header.Set("Content-Type", contentType)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", w.Code)
		}
		if len(blobs.deleted) != 1 {
			t.Errorf("orphaned blob not cleaned up, deleted=%v", blobs.deleted)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		h := NewDocumentsHandler(&mockDocumentStore{}, newMockBlobStore(), &mockRecorder{}, zerolog.Nop())
		w := doJSON(newTestRouter(h, p), "POST", "/api/v1/documents", "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})
}

func TestPresignedUpload(t *testing.T) {
	orgID := uuid.New()
	p := memberPrincipal(orgID)

	t.Run("success", func(t *testing.T) {
		store := &mockDocumentStore{}
		h := NewDocumentsHandler(store, newMockBlobStore(), &mockRecorder{}, zerolog.Nop())

		w := doJSON(newTestRouter(h, p), "POST", "/api/v1/documents/presigned-upload",
			`{"filename":"audit-report.pdf","mime_type":"application/pdf","size":123456}`)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}

		var resp struct {
			Document  *models.Document `json:"document"`
			UploadURL string           `json:"upload_url"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if resp.UploadURL == "" {
			t.Error("missing upload_url")
		}
		if resp.Document.Name != "audit-report.pdf" {
			t.Errorf("name defaulted wrong: %s", resp.Document.Name)
		}
		if len(store.docs) != 1 {
			t.Errorf("expected 1 record, got %d", len(store.docs))
		}
	})

	t.Run("missing size", func(t *testing.T) {
		h := NewDocumentsHandler(&mockDocumentStore{}, newMockBlobStore(), &mockRecorder{}, zerolog.Nop())
		w := doJSON(newTestRouter(h, p), "POST", "/api/v1/documents/presigned-upload",
			`{"filename":"x.pdf","mime_type":"application/pdf"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})
}

func TestDownloadDocument(t *testing.T) {
	orgID := uuid.New()
	p := memberPrincipal(orgID)
	doc := models.NewDocument(orgID, p.UserID, "evidence.pdf", "org/documents/evidence.pdf", "application/pdf", 100)
	store := &mockDocumentStore{docs: []*models.Document{doc}}
	h := NewDocumentsHandler(store, newMockBlobStore(), &mockRecorder{}, zerolog.Nop())

	t.Run("success", func(t *testing.T) {
		w := doJSON(newTestRouter(h, p), "GET", "/api/v1/documents/"+doc.ID.String()+"/download", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var resp struct {
			DownloadURL string `json:"download_url"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if resp.DownloadURL != "https://blobs.example.com/download/"+doc.FileKey {
			t.Errorf("download_url = %s", resp.DownloadURL)
		}
	})

	t.Run("wrong org", func(t *testing.T) {
		w := doJSON(newTestRouter(h, memberPrincipal(uuid.New())), "GET",
			"/api/v1/documents/"+doc.ID.String()+"/download", "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})
}

func TestDeleteDocument(t *testing.T) {
	orgID := uuid.New()
	p := memberPrincipal(orgID)

	t.Run("record first, then blob", func(t *testing.T) {
		doc := models.NewDocument(orgID, p.UserID, "old-policy.pdf", "org/documents/old.pdf", "application/pdf", 100)
		store := &mockDocumentStore{docs: []*models.Document{doc}}
		blobs := newMockBlobStore()
		recorder := &mockRecorder{}
		h := NewDocumentsHandler(store, blobs, recorder, zerolog.Nop())

		w := doJSON(newTestRouter(h, p), "DELETE", "/api/v1/documents/"+doc.ID.String(), "")
		if w.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
		}
		if len(store.docs) != 0 {
			t.Error("record not deleted")
		}
		if len(blobs.deleted) != 1 || blobs.deleted[0] != doc.FileKey {
			t.Errorf("blob deletion: %v", blobs.deleted)
		}
		if recorder.lastType() != models.ActivityDocumentDeleted {
			t.Errorf("activity = %s", recorder.lastType())
		}
	})

	t.Run("not found", func(t *testing.T) {
		h := NewDocumentsHandler(&mockDocumentStore{}, newMockBlobStore(), &mockRecorder{}, zerolog.Nop())
		w := doJSON(newTestRouter(h, p), "DELETE", "/api/v1/documents/"+uuid.New().String(), "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})
}

func TestUpdateDocument(t *testing.T) {
	orgID := uuid.New()
	p := memberPrincipal(orgID)
	doc := models.NewDocument(orgID, p.UserID, "policy.pdf", "k", "application/pdf", 100)
	store := &mockDocumentStore{docs: []*models.Document{doc}}
	h := NewDocumentsHandler(store, newMockBlobStore(), &mockRecorder{}, zerolog.Nop())

	w := doJSON(newTestRouter(h, p), "PATCH", "/api/v1/documents/"+doc.ID.String(),
		`{"name":"Information Security Policy","description":"renamed"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if doc.Name != "Information Security Policy" || doc.Description != "renamed" {
		t.Errorf("update not applied: %+v", doc)
	}
	if doc.FileKey != "k" {
		t.Error("file key must never change on metadata update")
	}
}
