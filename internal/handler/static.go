package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"docvault/internal/domain/services"
	"docvault/internal/httputil"
)

// StaticHandler serves stored files by path through the fallback chain.
type StaticHandler struct {
	static services.StaticService
	logger *slog.Logger
}

func NewStaticHandler(static services.StaticService, logger *slog.Logger) *StaticHandler {
	return &StaticHandler{static: static, logger: logger}
}

// Serve handles GET /static/resources/folder/file/{path...}
func (h *StaticHandler) Serve(w http.ResponseWriter, r *http.Request) {
	requested := r.PathValue("path")

	resolved, err := h.static.Resolve(r.Context(), httputil.GetActor(r), requested)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	f, err := os.Open(resolved.DiskPath)
	if err != nil {
		h.logger.Error("resolved file vanished before open",
			"disk_path", resolved.DiskPath,
			"error", err)
		httputil.RespondError(w, http.StatusNotFound, "NOT_FOUND", "file not found")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", resolved.ContentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", resolved.Size))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", resolved.Name))
	if _, err := io.Copy(w, f); err != nil {
		h.logger.Warn("static stream interrupted", "path", requested, "error", err)
	}
}
