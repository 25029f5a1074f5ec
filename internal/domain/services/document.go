package services

import (
	"context"
	"io"

	"github.com/google/uuid"

	"docvault/internal/domain/models"
)

// DocumentService handles document metadata lifecycle and the physical
// bytes behind it.
type DocumentService interface {
	// Upload writes the bytes to disk, verifies them against the
	// declared size (and the %PDF magic for PDFs), then records the
	// metadata row. Verification failure leaves no file and no row.
	Upload(ctx context.Context, actor *models.Actor, req *UploadDocumentRequest) (*models.Document, error)

	// List pages through an org's live documents
	List(ctx context.Context, actor *models.Actor, orgID uuid.UUID, folderID *uuid.UUID, page, limit int) (*models.PaginatedDocuments, error)

	// Get retrieves document metadata
	Get(ctx context.Context, actor *models.Actor, id int64) (*models.Document, error)

	// Open returns the document plus a reader over its bytes for
	// download/preview. The caller closes the reader.
	Open(ctx context.Context, actor *models.Actor, id int64) (*models.Document, io.ReadCloser, int64, error)

	// Delete runs the three independent removal steps: disk file
	// (best effort), metadata row (authoritative), external index
	// (best effort)
	Delete(ctx context.Context, actor *models.Actor, id int64) error

	// UpdateStatus applies a pipeline-reported status transition. The
	// acting principal must be allowed to write the document's org.
	UpdateStatus(ctx context.Context, actor *models.Actor, id int64, status models.DocumentStatus, errorMessage *string) error

	// JobStatus relays the ingestion state of one document the actor
	// may read
	JobStatus(ctx context.Context, actor *models.Actor, id int64) (*models.Job, error)

	// Jobs relays the tracked ingestion jobs visible to the actor
	Jobs(ctx context.Context, actor *models.Actor) []*models.Job
}

// UploadDocumentRequest carries one multipart upload. DeclaredSize is
// the size the client declared for the part; the written byte count is
// verified against it after the disk write.
type UploadDocumentRequest struct {
	OrgID        *uuid.UUID
	FolderID     *uuid.UUID
	Filename     string
	DeclaredSize int64
	Body         io.Reader
	Metadata     map[string]interface{}
}
