package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
	"docvault/internal/domain/services"
	"docvault/internal/httputil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubDocumentService returns canned values so handler tests exercise
// only parsing, routing and the error envelope.
type stubDocumentService struct {
	uploadFn func(req *services.UploadDocumentRequest) (*models.Document, error)
	getErr   error
	doc      *models.Document
	openBody string
}

func (s *stubDocumentService) Upload(_ context.Context, _ *models.Actor, req *services.UploadDocumentRequest) (*models.Document, error) {
	if s.uploadFn != nil {
		return s.uploadFn(req)
	}
	return s.doc, nil
}

func (s *stubDocumentService) List(_ context.Context, _ *models.Actor, _ uuid.UUID, _ *uuid.UUID, page, limit int) (*models.PaginatedDocuments, error) {
	return &models.PaginatedDocuments{Data: []*models.Document{}, Page: page, Limit: limit}, nil
}

func (s *stubDocumentService) Get(_ context.Context, _ *models.Actor, _ int64) (*models.Document, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.doc, nil
}

func (s *stubDocumentService) Open(_ context.Context, _ *models.Actor, _ int64) (*models.Document, io.ReadCloser, int64, error) {
	if s.getErr != nil {
		return nil, nil, 0, s.getErr
	}
	return s.doc, io.NopCloser(strings.NewReader(s.openBody)), int64(len(s.openBody)), nil
}

func (s *stubDocumentService) Delete(_ context.Context, _ *models.Actor, _ int64) error {
	return s.getErr
}

func (s *stubDocumentService) UpdateStatus(_ context.Context, _ *models.Actor, _ int64, status models.DocumentStatus, _ *string) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status", domain.ErrValidation)
	}
	return nil
}

func (s *stubDocumentService) JobStatus(_ context.Context, _ *models.Actor, id int64) (*models.Job, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &models.Job{DocumentID: id, Status: models.DocumentStatusProcessing}, nil
}

func (s *stubDocumentService) Jobs(_ context.Context, _ *models.Actor) []*models.Job {
	return []*models.Job{}
}

func withActor(r *http.Request) *http.Request {
	org := uuid.New()
	return httputil.WithActor(r, &models.Actor{UserID: uuid.New(), OrgID: &org})
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) httputil.ErrorResponse {
	t.Helper()
	var envelope httputil.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v (body %q)", err, rec.Body.String())
	}
	return envelope
}

func TestDocumentGetReturnsMetadata(t *testing.T) {
	mime := "application/pdf"
	stub := &stubDocumentService{doc: &models.Document{
		ID:      7,
		Name:    "q3.pdf",
		Status:  models.DocumentStatusCompleted,
		Content: models.DocumentContent{MimeType: &mime},
	}}
	h := NewDocumentHandler(stub, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/documents/7?download=false", nil)
	req.SetPathValue("id", "7")
	rec := httptest.NewRecorder()
	h.Get(rec, withActor(req))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var doc models.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.ID != 7 || doc.Name != "q3.pdf" {
		t.Errorf("decoded doc = %+v", doc)
	}
}

// The file itself is the default response; JSON metadata requires an
// explicit download=false.
func TestDocumentGetDefaultsToStreaming(t *testing.T) {
	mime := "application/pdf"
	stub := &stubDocumentService{
		doc:      &models.Document{ID: 7, Name: "q3.pdf", Content: models.DocumentContent{MimeType: &mime}},
		openBody: "%PDF-1.7 bytes",
	}
	h := NewDocumentHandler(stub, testLogger())

	for _, query := range []string{"", "?download=", "?download=1", "?download=yes"} {
		req := httptest.NewRequest(http.MethodGet, "/api/documents/7"+query, nil)
		req.SetPathValue("id", "7")
		rec := httptest.NewRecorder()
		h.Get(rec, withActor(req))

		if rec.Code != http.StatusOK {
			t.Fatalf("query %q: status = %d", query, rec.Code)
		}
		if rec.Body.String() != "%PDF-1.7 bytes" {
			t.Errorf("query %q: body = %q, want the stored bytes", query, rec.Body.String())
		}
		if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
			t.Errorf("query %q: Content-Type = %q", query, got)
		}
	}
}

func TestDocumentGetDownloadStreams(t *testing.T) {
	mime := "application/pdf"
	stub := &stubDocumentService{
		doc:      &models.Document{ID: 7, Name: "q3.pdf", Content: models.DocumentContent{MimeType: &mime}},
		openBody: "%PDF-1.7 bytes",
	}
	h := NewDocumentHandler(stub, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/documents/7?download=true", nil)
	req.SetPathValue("id", "7")
	rec := httptest.NewRecorder()
	h.Get(rec, withActor(req))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `inline; filename="q3.pdf"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if rec.Body.String() != "%PDF-1.7 bytes" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestDocumentErrorEnvelope(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", fmt.Errorf("document 7: %w", domain.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"forbidden", fmt.Errorf("%w: nope", domain.ErrForbidden), http.StatusForbidden, "FORBIDDEN"},
		{"internal hides detail", fmt.Errorf("pq: connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewDocumentHandler(&stubDocumentService{getErr: tt.err}, testLogger())
			req := httptest.NewRequest(http.MethodGet, "/api/documents/7", nil)
			req.SetPathValue("id", "7")
			rec := httptest.NewRecorder()
			h.Get(rec, withActor(req))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			envelope := decodeEnvelope(t, rec)
			if envelope.Error != tt.wantCode {
				t.Errorf("code = %q, want %q", envelope.Error, tt.wantCode)
			}
			if tt.wantStatus == http.StatusInternalServerError &&
				strings.Contains(envelope.Message, "connection reset") {
				t.Error("internal error detail leaked to the client")
			}
		})
	}
}

func TestDocumentGetInvalidID(t *testing.T) {
	h := NewDocumentHandler(&stubDocumentService{}, testLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/documents/abc", nil)
	req.SetPathValue("id", "abc")
	rec := httptest.NewRecorder()
	h.Get(rec, withActor(req))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if envelope := decodeEnvelope(t, rec); envelope.Error != "VALIDATION_ERROR" {
		t.Errorf("code = %q", envelope.Error)
	}
}

func TestDocumentUploadMultipart(t *testing.T) {
	var captured *services.UploadDocumentRequest
	stub := &stubDocumentService{
		uploadFn: func(req *services.UploadDocumentRequest) (*models.Document, error) {
			captured = req
			return &models.Document{ID: 1, Name: req.Filename}, nil
		},
	}
	h := NewDocumentHandler(stub, testLogger())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "report.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte("%PDF-1.7")); err != nil {
		t.Fatal(err)
	}
	folderID := uuid.New()
	if err := mw.WriteField("folder_id", folderID.String()); err != nil {
		t.Fatal(err)
	}
	if err := mw.WriteField("metadata", `{"source":"scanner"}`); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Upload(rec, withActor(req))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if captured == nil {
		t.Fatal("service never invoked")
	}
	if captured.Filename != "report.pdf" {
		t.Errorf("Filename = %q", captured.Filename)
	}
	if captured.FolderID == nil || *captured.FolderID != folderID {
		t.Errorf("FolderID = %v, want %s", captured.FolderID, folderID)
	}
	if captured.Metadata["source"] != "scanner" {
		t.Errorf("Metadata = %v", captured.Metadata)
	}
	if captured.DeclaredSize != int64(len("%PDF-1.7")) {
		t.Errorf("DeclaredSize = %d", captured.DeclaredSize)
	}
}

func TestDocumentUploadMissingFilePart(t *testing.T) {
	h := NewDocumentHandler(&stubDocumentService{}, testLogger())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("org_id", uuid.NewString())
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Upload(rec, withActor(req))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDocumentListRequiresOrg(t *testing.T) {
	h := NewDocumentHandler(&stubDocumentService{}, testLogger())

	// No org_id query parameter and no org on the actor.
	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req = httputil.WithActor(req, &models.Actor{UserID: uuid.New(), IsSuperAdmin: true})
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDocumentUpdateStatus(t *testing.T) {
	h := NewDocumentHandler(&stubDocumentService{}, testLogger())

	body := strings.NewReader(`{"status":"processing"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/documents/7/status", body)
	req.SetPathValue("id", "7")
	rec := httptest.NewRecorder()
	h.UpdateStatus(rec, withActor(req))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	bad := strings.NewReader(`{"status":"sideways"}`)
	req = httptest.NewRequest(http.MethodPut, "/api/documents/7/status", bad)
	req.SetPathValue("id", "7")
	rec = httptest.NewRecorder()
	h.UpdateStatus(rec, withActor(req))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid status = %d, want 400", rec.Code)
	}
}
