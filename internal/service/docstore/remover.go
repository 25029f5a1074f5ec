package docstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"docvault/internal/domain/models"
	"docvault/internal/domain/repositories"
	"docvault/internal/search"
)

// Remover performs the three-step document removal shared by direct
// deletes and folder cascade deletes: physical file, database row,
// search index. Only the database step is authoritative; the other two
// are best-effort so a missing file or unreachable index never leaves
// a visible row behind.
type Remover struct {
	docRepo repositories.DocumentRepository
	storage *Storage
	index   search.Notifier
	logger  *slog.Logger
}

func NewRemover(docRepo repositories.DocumentRepository, storage *Storage, index search.Notifier, logger *slog.Logger) *Remover {
	return &Remover{docRepo: docRepo, storage: storage, index: index, logger: logger}
}

// Remove deletes one document. The returned error reflects only the
// soft-delete of the row; file and index failures are logged and
// swallowed.
func (rm *Remover) Remove(ctx context.Context, doc *models.Document, deletedBy *models.Actor) error {
	if doc.FilePath != nil && *doc.FilePath != "" {
		if err := rm.storage.Remove(*doc.FilePath); err != nil {
			rm.logger.Warn("failed to remove document file",
				"document_id", doc.ID,
				"file_path", *doc.FilePath,
				"error", err)
		}
	}

	var by *uuid.UUID
	if deletedBy != nil {
		id := deletedBy.UserID
		by = &id
	}
	if err := rm.docRepo.SoftDelete(ctx, doc.ID, by); err != nil {
		return fmt.Errorf("delete document record: %w", err)
	}

	filePath := ""
	if doc.FilePath != nil {
		filePath = *doc.FilePath
	}
	if err := rm.index.RemoveDocument(ctx, doc.ID, filePath); err != nil {
		rm.logger.Warn("failed to remove document from search index",
			"document_id", doc.ID,
			"error", err)
	}
	return nil
}
