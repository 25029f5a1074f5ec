package repositories

import (
	"context"

	"github.com/google/uuid"

	"docvault/internal/domain/models"
)

// DocumentRepository defines data access operations for document
// metadata. Every read excludes soft-deleted rows.
type DocumentRepository interface {
	// Create inserts a document and fills in the generated id
	Create(ctx context.Context, doc *models.Document) error

	// GetByID retrieves a document by ID
	GetByID(ctx context.Context, id int64) (*models.Document, error)

	// ListByFolder pages through an org's documents, optionally
	// narrowed to one folder (nil = whole org)
	ListByFolder(ctx context.Context, orgID uuid.UUID, folderID *uuid.UUID, page, limit int) ([]*models.Document, int64, error)

	// ListByFolderID retrieves all documents directly inside a folder
	ListByFolderID(ctx context.Context, folderID uuid.UUID) ([]*models.Document, error)

	// ListByOrg retrieves all live documents in an org (tree building)
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Document, error)

	// Update persists mutable fields (name, folder, content, metadata)
	Update(ctx context.Context, doc *models.Document) error

	// UpdateStatus applies an ingestion-pipeline status transition
	UpdateStatus(ctx context.Context, id int64, status models.DocumentStatus, errorMessage *string) error

	// SoftDelete marks a document deleted, hiding it from all reads
	SoftDelete(ctx context.Context, id int64, deletedBy *uuid.UUID) error

	// HardDelete removes the row entirely (upload rollback, cascades)
	HardDelete(ctx context.Context, id int64) error

	// GetByStorageKeyPattern finds the best match for a requested
	// relative path against stored file_path values
	GetByStorageKeyPattern(ctx context.Context, pattern string) (*models.Document, error)

	// GetByFilenameAndPath finds a document by exact filename plus
	// fuzzy path-segment match, optionally narrowed to one org
	GetByFilenameAndPath(ctx context.Context, orgID *uuid.UUID, filename string, pathSegments []string) (*models.Document, error)
}
