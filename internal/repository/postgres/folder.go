package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
	"docvault/internal/domain/repositories"
)

// PostgresFolderRepository implements the FolderRepository interface
type PostgresFolderRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(config *RepositoryConfig) repositories.FolderRepository {
	return &PostgresFolderRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const folderColumns = "id, org_id, parent_id, name, path, created_by, created_at, updated_at"

func scanFolder(row interface{ Scan(dest ...any) error }) (*models.Folder, error) {
	var folder models.Folder
	err := row.Scan(
		&folder.ID,
		&folder.OrgID,
		&folder.ParentID,
		&folder.Name,
		&folder.Path,
		&folder.CreatedBy,
		&folder.CreatedAt,
		&folder.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

// Create inserts a folder. The unique index on (org_id, parent_id,
// name) decides concurrent create races; the loser gets ErrConflict.
func (r *PostgresFolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, org_id, parent_id, name, path, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, r.tables.Folders)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		folder.ID,
		folder.OrgID,
		folder.ParentID,
		folder.Name,
		folder.Path,
		folder.CreatedBy,
	).Scan(&folder.CreatedAt, &folder.UpdatedAt)

	if err != nil {
		if isPgDuplicateError(err) {
			return domain.NewConflict("folder", folder.ID.String(),
				"folder %q already exists in this location", folder.Name)
		}
		return fmt.Errorf("create folder: %w", err)
	}

	return nil
}

// GetByID retrieves a folder by ID
func (r *PostgresFolderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE id = $1
	`, folderColumns, r.tables.Folders)

	folder, err := scanFolder(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}

	return folder, nil
}

// List lists immediate child folders, org-scoped
func (r *PostgresFolderRepository) List(ctx context.Context, orgID uuid.UUID, parentID *uuid.UUID) ([]*models.Folder, error) {
	var query string
	var args []interface{}

	if parentID == nil {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE org_id = $1 AND parent_id IS NULL
			ORDER BY name ASC
		`, folderColumns, r.tables.Folders)
		args = append(args, orgID)
	} else {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE org_id = $1 AND parent_id = $2
			ORDER BY name ASC
		`, folderColumns, r.tables.Folders)
		args = append(args, orgID, *parentID)
	}

	return r.queryFolders(ctx, query, args...)
}

// ListByOrg retrieves all folders in an org as a flat list
func (r *PostgresFolderRepository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE org_id = $1
		ORDER BY path ASC
	`, folderColumns, r.tables.Folders)

	return r.queryFolders(ctx, query, orgID)
}

// ListDescendants retrieves every folder strictly below the given one
// using a recursive CTE.
func (r *PostgresFolderRepository) ListDescendants(ctx context.Context, id uuid.UUID) ([]*models.Folder, error) {
	query := fmt.Sprintf(`
		WITH RECURSIVE descendants AS (
			SELECT %s FROM %s WHERE parent_id = $1
			UNION ALL
			SELECT f.id, f.org_id, f.parent_id, f.name, f.path, f.created_by, f.created_at, f.updated_at
			FROM %s f
			JOIN descendants d ON f.parent_id = d.id
		)
		SELECT * FROM descendants ORDER BY path ASC
	`, folderColumns, r.tables.Folders, r.tables.Folders)

	return r.queryFolders(ctx, query, id)
}

// Update persists name, parent and path changes
func (r *PostgresFolderRepository) Update(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, parent_id = $2, path = $3, updated_at = now()
		WHERE id = $4
		RETURNING updated_at
	`, r.tables.Folders)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		folder.Name,
		folder.ParentID,
		folder.Path,
		folder.ID,
	).Scan(&folder.UpdatedAt)

	if err != nil {
		if isPgNoRowsError(err) {
			return fmt.Errorf("folder %s: %w", folder.ID, domain.ErrNotFound)
		}
		if isPgDuplicateError(err) {
			return domain.NewConflict("folder", folder.ID.String(),
				"folder %q already exists in this location", folder.Name)
		}
		return fmt.Errorf("update folder: %w", err)
	}

	return nil
}

// UpdatePath rewrites only the stored path of one folder
func (r *PostgresFolderRepository) UpdatePath(ctx context.Context, id uuid.UUID, path string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET path = $1, updated_at = now() WHERE id = $2
	`, r.tables.Folders)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, path, id)
	if err != nil {
		return fmt.Errorf("update folder path: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a single folder row
func (r *PostgresFolderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Folders)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		if isPgForeignKeyError(err) {
			return domain.NewConflict("folder", id.String(), "folder still has children")
		}
		return fmt.Errorf("delete folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Permissions lists the role grants attached to a folder
func (r *PostgresFolderRepository) Permissions(ctx context.Context, folderID uuid.UUID) ([]models.FolderPermission, error) {
	query := fmt.Sprintf(`
		SELECT fp.id, fp.folder_id, fp.role_id, fp.permission, fp.created_at,
			r.name AS role_name
		FROM %s fp
		LEFT JOIN roles r ON fp.role_id = r.id
		WHERE fp.folder_id = $1
		ORDER BY r.name ASC
	`, r.tables.FolderPermissions)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, folderID)
	if err != nil {
		return nil, fmt.Errorf("list folder permissions: %w", err)
	}
	defer rows.Close()

	var permissions []models.FolderPermission
	for rows.Next() {
		var perm models.FolderPermission
		err := rows.Scan(
			&perm.ID,
			&perm.FolderID,
			&perm.RoleID,
			&perm.Permission,
			&perm.CreatedAt,
			&perm.RoleName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan folder permission: %w", err)
		}
		permissions = append(permissions, perm)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folder permissions: %w", err)
	}

	return permissions, nil
}

func (r *PostgresFolderRepository) queryFolders(ctx context.Context, query string, args ...interface{}) ([]*models.Folder, error) {
	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	var folders []*models.Folder
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}

	return folders, nil
}
