package docstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"docvault/internal/contenttype"
	"docvault/internal/domain"
	"docvault/internal/domain/models"
	"docvault/internal/domain/repositories"
	"docvault/internal/domain/services"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type documentService struct {
	docRepo    repositories.DocumentRepository
	folderRepo repositories.FolderRepository
	resolver   *PathResolver
	storage    *Storage
	remover    *Remover
	jobs       *JobRegistry
	types      *contenttype.Registry
	logger     *slog.Logger
}

// NewDocumentService creates the document lifecycle service.
func NewDocumentService(
	docRepo repositories.DocumentRepository,
	folderRepo repositories.FolderRepository,
	storage *Storage,
	remover *Remover,
	jobs *JobRegistry,
	types *contenttype.Registry,
	logger *slog.Logger,
) services.DocumentService {
	return &documentService{
		docRepo:    docRepo,
		folderRepo: folderRepo,
		resolver:   NewPathResolver(),
		storage:    storage,
		remover:    remover,
		jobs:       jobs,
		types:      types,
		logger:     logger,
	}
}

// resolveOrg picks the effective org for a write: the explicit request
// org when present, otherwise the actor's own. Only super admins may
// end up with no org (platform/legacy area).
func resolveOrg(actor *models.Actor, requested *uuid.UUID) (*uuid.UUID, error) {
	org := requested
	if org == nil {
		org = actor.OrgID
	}
	if org == nil && !actor.IsSuperAdmin {
		return nil, fmt.Errorf("%w: org_id is required", domain.ErrValidation)
	}
	if !Allow(actor, org) {
		return nil, fmt.Errorf("%w: access denied for org", domain.ErrForbidden)
	}
	return org, nil
}

func (s *documentService) Upload(ctx context.Context, actor *models.Actor, req *services.UploadDocumentRequest) (*models.Document, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Filename, validation.Required, validation.Length(1, 255)),
		validation.Field(&req.DeclaredSize, validation.Min(int64(1))),
	); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}

	org, err := resolveOrg(actor, req.OrgID)
	if err != nil {
		return nil, err
	}

	filename, err := SanitizeFilename(req.Filename)
	if err != nil {
		return nil, err
	}

	// A missing target folder degrades to the org root instead of
	// failing the upload; the pipeline retries are not idempotent.
	folderPath := ""
	folderID := req.FolderID
	if folderID != nil {
		folder, ferr := s.folderRepo.GetByID(ctx, *folderID)
		switch {
		case errors.Is(ferr, domain.ErrNotFound):
			s.logger.Warn("upload target folder not found, storing at org root",
				"folder_id", *folderID)
			folderID = nil
		case ferr != nil:
			return nil, fmt.Errorf("resolve target folder: %w", ferr)
		case !Allow(actor, &folder.OrgID):
			return nil, fmt.Errorf("%w: folder belongs to another org", domain.ErrForbidden)
		default:
			folderPath = folder.Path
		}
	}

	key, err := s.resolver.Resolve(org, folderPath, filename)
	if err != nil {
		return nil, err
	}

	// The exclusive create in Write is the uniqueness point: of two
	// concurrent uploads resolving to the same key, exactly one wins.
	// On conflict the existing file belongs to the winner, so there is
	// nothing of ours to roll back.
	written, err := s.storage.Write(key, req.Body)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		s.rollbackFile(key)
		return nil, fmt.Errorf("store uploaded file: %w", err)
	}
	if req.DeclaredSize > 0 && written != req.DeclaredSize {
		s.rollbackFile(key)
		return nil, fmt.Errorf("file size mismatch after write: declared %d, wrote %d", req.DeclaredSize, written)
	}
	if strings.EqualFold(strings.TrimPrefix(extOf(filename), "."), "pdf") {
		if err := s.storage.VerifyPDFHeader(key); err != nil {
			s.rollbackFile(key)
			return nil, err
		}
	}

	mimeType := s.types.ByFilename(filename)
	version := 1
	isFolder := false
	doc := &models.Document{
		OrgID:    org,
		FolderID: folderID,
		Name:     filename,
		FilePath: &key,
		Status:   models.DocumentStatusCompleted,
		Content: models.DocumentContent{
			MimeType:  &mimeType,
			SizeBytes: &written,
			Version:   &version,
			IsFolder:  &isFolder,
		},
		Metadata:  req.Metadata,
		CreatedBy: &actor.UserID,
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		s.rollbackFile(key)
		return nil, fmt.Errorf("record uploaded document: %w", err)
	}

	s.jobs.Track(doc)
	s.logger.Info("document uploaded",
		"document_id", doc.ID,
		"file_path", key,
		"size_bytes", written)
	return doc, nil
}

// rollbackFile removes a partially-uploaded file so a failed upload
// leaves no trace on disk.
func (s *documentService) rollbackFile(key string) {
	if err := s.storage.Remove(key); err != nil {
		s.logger.Warn("failed to roll back uploaded file", "file_path", key, "error", err)
	}
}

func extOf(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}

func (s *documentService) List(ctx context.Context, actor *models.Actor, orgID uuid.UUID, folderID *uuid.UUID, page, limit int) (*models.PaginatedDocuments, error) {
	if !Allow(actor, &orgID) {
		return nil, fmt.Errorf("%w: access denied for org", domain.ErrForbidden)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	docs, total, err := s.docRepo.ListByFolder(ctx, orgID, folderID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &models.PaginatedDocuments{
		Data:       docs,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

func (s *documentService) Get(ctx context.Context, actor *models.Actor, id int64) (*models.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Allow(actor, doc.OrgID) {
		return nil, fmt.Errorf("%w: access denied for document", domain.ErrForbidden)
	}
	return doc, nil
}

func (s *documentService) Open(ctx context.Context, actor *models.Actor, id int64) (*models.Document, io.ReadCloser, int64, error) {
	doc, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, nil, 0, err
	}
	key := doc.StorageKey()
	if key == "" {
		return nil, nil, 0, fmt.Errorf("%w: document has no stored file", domain.ErrNotFound)
	}
	rc, size, err := s.storage.Open(key)
	if err != nil {
		return nil, nil, 0, err
	}
	return doc, rc, size, nil
}

func (s *documentService) Delete(ctx context.Context, actor *models.Actor, id int64) error {
	doc, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.remover.Remove(ctx, doc, actor); err != nil {
		return err
	}
	s.jobs.Drop(id)
	s.logger.Info("document deleted", "document_id", id)
	return nil
}

func (s *documentService) UpdateStatus(ctx context.Context, actor *models.Actor, id int64, status models.DocumentStatus, errorMessage *string) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
	// Get applies the tenant gate before any write happens.
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.docRepo.UpdateStatus(ctx, id, status, errorMessage); err != nil {
		return err
	}
	s.jobs.SetStatus(id, status, errorMessage)
	return nil
}

func (s *documentService) JobStatus(ctx context.Context, actor *models.Actor, id int64) (*models.Job, error) {
	if job, ok := s.jobs.Get(id); ok {
		if !Allow(actor, job.OrgID) {
			return nil, fmt.Errorf("%w: access denied for document", domain.ErrForbidden)
		}
		return job, nil
	}
	// Registry entries are volatile; fall back to the durable row,
	// which Get gates the same way.
	doc, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return &models.Job{
		DocumentID:   doc.ID,
		OrgID:        doc.OrgID,
		Name:         doc.Name,
		FilePath:     doc.StorageKey(),
		Status:       doc.Status,
		ErrorMessage: doc.Content.ErrorMessage,
		SubmittedAt:  doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}

func (s *documentService) Jobs(_ context.Context, actor *models.Actor) []*models.Job {
	all := s.jobs.All()
	visible := all[:0]
	for _, job := range all {
		if Allow(actor, job.OrgID) {
			visible = append(visible, job)
		}
	}
	return visible
}
