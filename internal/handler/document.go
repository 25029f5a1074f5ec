package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"docvault/internal/domain/models"
	"docvault/internal/domain/services"
	"docvault/internal/httputil"
)

// maxUploadBytes caps a multipart upload body.
const maxUploadBytes = 100 << 20

// DocumentHandler serves the document lifecycle endpoints.
type DocumentHandler struct {
	documents services.DocumentService
	logger    *slog.Logger
}

func NewDocumentHandler(documents services.DocumentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{documents: documents, logger: logger}
}

// Upload handles POST /api/documents/upload (multipart/form-data with a
// "file" part plus optional org_id, folder_id and metadata fields).
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "missing file part")
		return
	}
	defer file.Close()

	req := services.UploadDocumentRequest{
		Filename:     header.Filename,
		DeclaredSize: header.Size,
		Body:         file,
	}
	orgID, ok := formUUID(w, r, "org_id")
	if !ok {
		return
	}
	req.OrgID = orgID
	folderID, ok := formUUID(w, r, "folder_id")
	if !ok {
		return
	}
	req.FolderID = folderID
	if raw := r.FormValue("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Metadata); err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "metadata must be a JSON object")
			return
		}
	}

	doc, err := h.documents.Upload(r.Context(), httputil.GetActor(r), &req)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// List handles GET /api/documents?org_id=&folder_id=&page=&limit=
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID, ok := queryUUID(w, r, "org_id")
	if !ok {
		return
	}
	if orgID == nil {
		actor := httputil.GetActor(r)
		if actor != nil {
			orgID = actor.OrgID
		}
	}
	if orgID == nil {
		httputil.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "org_id is required")
		return
	}
	folderID, ok := queryUUID(w, r, "folder_id")
	if !ok {
		return
	}
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)

	result, err := h.documents.List(r.Context(), httputil.GetActor(r), *orgID, folderID, page, limit)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, result)
}

// Get handles GET /api/documents/{id}. The bytes stream back inline by
// default; only an explicit ?download=false returns the metadata row
// as JSON.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}
	actor := httputil.GetActor(r)

	if r.URL.Query().Get("download") == "false" {
		doc, err := h.documents.Get(r.Context(), actor, id)
		if err != nil {
			respondDomainError(w, h.logger, err)
			return
		}
		httputil.RespondJSON(w, http.StatusOK, doc)
		return
	}

	doc, rc, size, err := h.documents.Open(r.Context(), actor, id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	defer rc.Close()

	contentType := "application/octet-stream"
	if doc.Content.MimeType != nil {
		contentType = *doc.Content.MimeType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.Name))
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("document stream interrupted", "document_id", id, "error", err)
	}
}

// Delete handles DELETE /api/documents/{id}
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}

	if err := h.documents.Delete(r.Context(), httputil.GetActor(r), id); err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"message": "document deleted"})
}

// UpdateStatus handles PUT /api/documents/{id}/status, the callback the
// ingestion pipeline uses to report progress.
func (h *DocumentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Status       models.DocumentStatus `json:"status"`
		ErrorMessage *string               `json:"error_message,omitempty"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if err := h.documents.UpdateStatus(r.Context(), httputil.GetActor(r), id, req.Status, req.ErrorMessage); err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"message": "status updated"})
}

// JobStatus handles GET /api/documents/jobs/{id}
func (h *DocumentHandler) JobStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}

	job, err := h.documents.JobStatus(r.Context(), httputil.GetActor(r), id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, job)
}

// Jobs handles GET /api/documents/jobs
func (h *DocumentHandler) Jobs(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.documents.Jobs(r.Context(), httputil.GetActor(r)))
}

// formUUID parses an optional uuid form field. A present but malformed
// value is reported, an absent one yields nil.
func formUUID(w http.ResponseWriter, r *http.Request, name string) (*uuid.UUID, bool) {
	raw := r.FormValue(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid "+name)
		return nil, false
	}
	return &id, true
}
