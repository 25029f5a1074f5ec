package services

import (
	"context"

	"github.com/google/uuid"

	"docvault/internal/domain/models"
)

// FolderService handles folder hierarchy business logic. Every read is
// gated on the acting principal's tenant scope.
type FolderService interface {
	// Create creates a folder under parent (nil = org root)
	Create(ctx context.Context, actor *models.Actor, req *CreateFolderRequest) (*models.Folder, error)

	// Get retrieves one folder
	Get(ctx context.Context, actor *models.Actor, id uuid.UUID) (*models.Folder, error)

	// List lists direct children, org-scoped
	List(ctx context.Context, actor *models.Actor, orgID uuid.UUID, parentID *uuid.UUID) ([]*models.Folder, error)

	// Tree returns the nested folder tree with documents attached to
	// every node
	Tree(ctx context.Context, actor *models.Actor, orgID uuid.UUID) ([]*models.Folder, error)

	// Update renames and/or moves a folder, recomputing descendant
	// paths
	Update(ctx context.Context, actor *models.Actor, id uuid.UUID, req *UpdateFolderRequest) (*models.Folder, error)

	// Delete removes the folder, its descendant folders and their
	// documents
	Delete(ctx context.Context, actor *models.Actor, id uuid.UUID) error

	// Permissions lists the role grants on a folder. Read-only; grant
	// administration lives in a separate service.
	Permissions(ctx context.Context, actor *models.Actor, id uuid.UUID) ([]models.FolderPermission, error)
}

// CreateFolderRequest represents a folder creation request
type CreateFolderRequest struct {
	OrgID    *uuid.UUID `json:"org_id,omitempty"`
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

// UpdateFolderRequest represents a rename and/or move. MoveToRoot
// distinguishes "move to org root" from "leave parent unchanged".
type UpdateFolderRequest struct {
	Name       *string    `json:"name,omitempty"`
	ParentID   *uuid.UUID `json:"parent_id,omitempty"`
	MoveToRoot bool       `json:"move_to_root,omitempty"`
}
