// Package handler exposes the storage core over HTTP. Handlers parse
// and validate the wire shape, delegate to services, and translate
// domain errors to the stable error envelope.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"docvault/internal/domain"
	"docvault/internal/httputil"
)

// respondDomainError maps a service error onto the error envelope using
// the domain taxonomy. Internal errors are logged with detail but leave
// the wire with a generic message.
func respondDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := domain.Status(err)
	code := domain.Code(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
		message = "an internal error occurred"
	}
	httputil.RespondError(w, status, code, message)
}

// pathUUID parses a uuid path value, returning false after writing a
// validation error response.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// pathInt64 parses an integer path value the same way.
func pathInt64(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid "+name)
		return 0, false
	}
	return id, true
}

// queryUUID parses an optional uuid query parameter. A present but
// malformed value is reported, an absent one yields nil.
func queryUUID(w http.ResponseWriter, r *http.Request, name string) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get(name)
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

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
