package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"docvault/internal/domain/models"
	"docvault/internal/domain/services"
	"docvault/internal/httputil"
)

// FolderHandler serves the folder hierarchy endpoints.
type FolderHandler struct {
	folders services.FolderService
	logger  *slog.Logger
}

func NewFolderHandler(folders services.FolderService, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{folders: folders, logger: logger}
}

// Create handles POST /api/folders
func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	folder, err := h.folders.Create(r.Context(), httputil.GetActor(r), &req)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// Get handles GET /api/folders/{id}
func (h *FolderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	folder, err := h.folders.Get(r.Context(), httputil.GetActor(r), id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, folder)
}

// List handles GET /api/folders?org_id=&parent_id=
func (h *FolderHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.resolveOrgParam(w, r)
	if !ok {
		return
	}
	parentID, ok := queryUUID(w, r, "parent_id")
	if !ok {
		return
	}

	folders, err := h.folders.List(r.Context(), httputil.GetActor(r), *orgID, parentID)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, folders)
}

// Tree handles GET /api/folders/tree?org_id=
func (h *FolderHandler) Tree(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.resolveOrgParam(w, r)
	if !ok {
		return
	}

	tree, err := h.folders.Tree(r.Context(), httputil.GetActor(r), *orgID)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, tree)
}

// Update handles PATCH /api/folders/{id}
func (h *FolderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req services.UpdateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	folder, err := h.folders.Update(r.Context(), httputil.GetActor(r), id, &req)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, folder)
}

// Delete handles DELETE /api/folders/{id}
func (h *FolderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.folders.Delete(r.Context(), httputil.GetActor(r), id); err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"message": "folder deleted"})
}

// Permissions handles GET /api/folders/{id}/permissions
func (h *FolderHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	perms, err := h.folders.Permissions(r.Context(), httputil.GetActor(r), id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	if perms == nil {
		perms = []models.FolderPermission{}
	}
	httputil.RespondJSON(w, http.StatusOK, perms)
}

// resolveOrgParam reads org_id from the query, falling back to the
// actor's own org so regular users can omit it.
func (h *FolderHandler) resolveOrgParam(w http.ResponseWriter, r *http.Request) (*uuid.UUID, bool) {
	orgID, ok := queryUUID(w, r, "org_id")
	if !ok {
		return nil, false
	}
	if orgID == nil {
		actor := httputil.GetActor(r)
		if actor != nil && actor.OrgID != nil {
			orgID = actor.OrgID
		}
	}
	if orgID == nil {
		httputil.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "org_id is required")
		return nil, false
	}
	return orgID, true
}
