package repositories

import (
	"context"

	"github.com/google/uuid"

	"docvault/internal/domain/models"
)

// FolderRepository defines data access operations for folders
type FolderRepository interface {
	// Create inserts a folder. The folder's Path must already be
	// computed. Duplicate (org_id, parent_id, name) maps to
	// domain.ErrConflict via the unique constraint.
	Create(ctx context.Context, folder *models.Folder) error

	// GetByID retrieves a folder by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Folder, error)

	// List lists immediate children of parentID (nil = org root),
	// org-scoped
	List(ctx context.Context, orgID uuid.UUID, parentID *uuid.UUID) ([]*models.Folder, error)

	// ListByOrg retrieves all folders in an org as a flat list
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Folder, error)

	// ListDescendants retrieves every folder strictly below the given
	// folder, any depth
	ListDescendants(ctx context.Context, id uuid.UUID) ([]*models.Folder, error)

	// Update persists name, parent and path changes
	Update(ctx context.Context, folder *models.Folder) error

	// UpdatePath rewrites only the stored path of one folder
	UpdatePath(ctx context.Context, id uuid.UUID, path string) error

	// Delete removes a single folder row
	Delete(ctx context.Context, id uuid.UUID) error

	// Permissions lists the role grants attached to a folder. The
	// storage core only reads these.
	Permissions(ctx context.Context, folderID uuid.UUID) ([]models.FolderPermission, error)
}
