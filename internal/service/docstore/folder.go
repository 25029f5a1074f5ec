package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
	"docvault/internal/domain/repositories"
	"docvault/internal/domain/services"
)

type folderService struct {
	folderRepo repositories.FolderRepository
	docRepo    repositories.DocumentRepository
	remover    *Remover
	txManager  repositories.TransactionManager
	logger     *slog.Logger
}

// NewFolderService creates the folder hierarchy service.
func NewFolderService(
	folderRepo repositories.FolderRepository,
	docRepo repositories.DocumentRepository,
	remover *Remover,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.FolderService {
	return &folderService{
		folderRepo: folderRepo,
		docRepo:    docRepo,
		remover:    remover,
		txManager:  txManager,
		logger:     logger,
	}
}

func validateFolderName(name string) error {
	return validation.Validate(name,
		validation.Required.Error("folder name is required"),
		validation.Length(1, 255),
		validation.By(func(value interface{}) error {
			if strings.ContainsAny(value.(string), "/\\") {
				return fmt.Errorf("must not contain path separators")
			}
			return nil
		}),
	)
}

func (s *folderService) Create(ctx context.Context, actor *models.Actor, req *services.CreateFolderRequest) (*models.Folder, error) {
	if err := validateFolderName(req.Name); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}

	org, err := resolveOrg(actor, req.OrgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, fmt.Errorf("%w: org_id is required for folders", domain.ErrValidation)
	}

	path := models.RootPath(req.Name)
	if req.ParentID != nil {
		parent, perr := s.folderRepo.GetByID(ctx, *req.ParentID)
		if perr != nil {
			return nil, fmt.Errorf("resolve parent folder: %w", perr)
		}
		if parent.OrgID != *org {
			return nil, fmt.Errorf("%w: parent folder belongs to another org", domain.ErrForbidden)
		}
		path = parent.ChildPath(req.Name)
	}

	folder := &models.Folder{
		ID:        uuid.New(),
		OrgID:     *org,
		ParentID:  req.ParentID,
		Name:      req.Name,
		Path:      path,
		CreatedBy: &actor.UserID,
	}
	if err := s.folderRepo.Create(ctx, folder); err != nil {
		return nil, err
	}

	s.logger.Info("folder created", "folder_id", folder.ID, "path", folder.Path)
	return folder, nil
}

func (s *folderService) Get(ctx context.Context, actor *models.Actor, id uuid.UUID) (*models.Folder, error) {
	folder, err := s.folderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Allow(actor, &folder.OrgID) {
		return nil, fmt.Errorf("%w: access denied for folder", domain.ErrForbidden)
	}
	return folder, nil
}

func (s *folderService) List(ctx context.Context, actor *models.Actor, orgID uuid.UUID, parentID *uuid.UUID) ([]*models.Folder, error) {
	if !Allow(actor, &orgID) {
		return nil, fmt.Errorf("%w: access denied for org", domain.ErrForbidden)
	}
	return s.folderRepo.List(ctx, orgID, parentID)
}

// Tree assembles the full nested hierarchy for an org in three passes:
// index folders by id, attach documents to their folders, then link
// children to parents. Documents without a folder and folders whose
// parent is missing surface at the root rather than disappearing.
func (s *folderService) Tree(ctx context.Context, actor *models.Actor, orgID uuid.UUID) ([]*models.Folder, error) {
	if !Allow(actor, &orgID) {
		return nil, fmt.Errorf("%w: access denied for org", domain.ErrForbidden)
	}

	folders, err := s.folderRepo.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	docs, err := s.docRepo.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	byID := make(map[uuid.UUID]*models.Folder, len(folders))
	for _, f := range folders {
		f.Children = []*models.Folder{}
		f.Files = []*models.Document{}
		byID[f.ID] = f
	}

	rootDocs := make([]*models.Document, 0)
	for _, d := range docs {
		if d.FolderID != nil {
			if f, ok := byID[*d.FolderID]; ok {
				f.Files = append(f.Files, d)
				continue
			}
		}
		rootDocs = append(rootDocs, d)
	}

	roots := make([]*models.Folder, 0)
	for _, f := range folders {
		if f.ParentID != nil {
			if parent, ok := byID[*f.ParentID]; ok {
				parent.Children = append(parent.Children, f)
				continue
			}
		}
		roots = append(roots, f)
	}

	if len(rootDocs) > 0 {
		roots = append(roots, &models.Folder{
			OrgID: orgID,
			Name:  "/",
			Path:  "/",
			Files: rootDocs,
		})
	}
	return roots, nil
}

func (s *folderService) Update(ctx context.Context, actor *models.Actor, id uuid.UUID, req *services.UpdateFolderRequest) (*models.Folder, error) {
	folder, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := validateFolderName(*req.Name); err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
		}
		folder.Name = *req.Name
	}

	switch {
	case req.MoveToRoot:
		folder.ParentID = nil
	case req.ParentID != nil:
		if *req.ParentID == folder.ID {
			return nil, fmt.Errorf("%w: folder cannot be its own parent", domain.ErrValidation)
		}
		parent, perr := s.folderRepo.GetByID(ctx, *req.ParentID)
		if perr != nil {
			return nil, fmt.Errorf("resolve new parent: %w", perr)
		}
		if parent.OrgID != folder.OrgID {
			return nil, fmt.Errorf("%w: new parent belongs to another org", domain.ErrForbidden)
		}
		if parent.Path == folder.Path || strings.HasPrefix(parent.Path, folder.Path+"/") {
			return nil, fmt.Errorf("%w: cannot move a folder under its own descendant", domain.ErrValidation)
		}
		folder.ParentID = req.ParentID
	}

	oldPath := folder.Path
	newPath := models.RootPath(folder.Name)
	if folder.ParentID != nil {
		parent, perr := s.folderRepo.GetByID(ctx, *folder.ParentID)
		if perr != nil {
			return nil, fmt.Errorf("resolve parent: %w", perr)
		}
		newPath = parent.ChildPath(folder.Name)
	}
	folder.Path = newPath

	// The folder row and every descendant path move in one transaction
	// so a reader never observes a half-renamed subtree.
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.folderRepo.Update(txCtx, folder); err != nil {
			return err
		}
		if oldPath == newPath {
			return nil
		}
		descendants, err := s.folderRepo.ListDescendants(txCtx, folder.ID)
		if err != nil {
			return fmt.Errorf("list descendants: %w", err)
		}
		for _, d := range descendants {
			rewritten := newPath + strings.TrimPrefix(d.Path, oldPath)
			if err := s.folderRepo.UpdatePath(txCtx, d.ID, rewritten); err != nil {
				return fmt.Errorf("rewrite descendant path %s: %w", d.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder updated", "folder_id", folder.ID, "path", folder.Path)
	return folder, nil
}

// Delete removes a folder subtree. Document removal is best-effort and
// happens first (files on disk cannot join a transaction); the folder
// rows then go in one transaction, deepest first so no child outlives
// its parent.
func (s *folderService) Delete(ctx context.Context, actor *models.Actor, id uuid.UUID) error {
	folder, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}

	descendants, err := s.folderRepo.ListDescendants(ctx, folder.ID)
	if err != nil {
		return fmt.Errorf("list descendants: %w", err)
	}
	subtree := append([]*models.Folder{folder}, descendants...)

	for _, f := range subtree {
		docs, derr := s.docRepo.ListByFolderID(ctx, f.ID)
		if derr != nil {
			return fmt.Errorf("list folder documents: %w", derr)
		}
		for _, doc := range docs {
			if rerr := s.remover.Remove(ctx, doc, actor); rerr != nil {
				s.logger.Warn("failed to remove document during folder delete",
					"document_id", doc.ID,
					"folder_id", f.ID,
					"error", rerr)
			}
		}
	}

	sort.Slice(subtree, func(i, j int) bool {
		return strings.Count(subtree[i].Path, "/") > strings.Count(subtree[j].Path, "/")
	})

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		for _, f := range subtree {
			if err := s.folderRepo.Delete(txCtx, f.ID); err != nil {
				return fmt.Errorf("delete folder %s: %w", f.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("folder deleted", "folder_id", id, "subtree_size", len(subtree))
	return nil
}

func (s *folderService) Permissions(ctx context.Context, actor *models.Actor, id uuid.UUID) ([]models.FolderPermission, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.folderRepo.Permissions(ctx, id)
}
