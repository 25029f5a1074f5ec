package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
	"docvault/internal/domain/repositories"
)

// PostgresDocumentRepository implements the DocumentRepository
// interface. Soft-deleted rows are invisible to every read here.
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *RepositoryConfig) repositories.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

func (r *PostgresDocumentRepository) selectColumns() string {
	return fmt.Sprintf(`
		d.id, d.org_id, d.folder_id, d.parent_id, d.name, d.file_path,
		d.status, d.content, d.metadata, d.created_by, d.created_at,
		d.updated_at, d.deleted_by, d.deleted_at,
		f.name AS folder_name
	FROM %s d
	LEFT JOIN %s f ON d.folder_id = f.id`, r.tables.Documents, r.tables.Folders)
}

func scanDocument(row interface{ Scan(dest ...any) error }) (*models.Document, error) {
	var doc models.Document
	var contentJSON, metadataJSON []byte

	err := row.Scan(
		&doc.ID,
		&doc.OrgID,
		&doc.FolderID,
		&doc.ParentID,
		&doc.Name,
		&doc.FilePath,
		&doc.Status,
		&contentJSON,
		&metadataJSON,
		&doc.CreatedBy,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&doc.DeletedBy,
		&doc.DeletedAt,
		&doc.FolderName,
	)
	if err != nil {
		return nil, err
	}

	if len(contentJSON) > 0 {
		if err := json.Unmarshal(contentJSON, &doc.Content); err != nil {
			return nil, fmt.Errorf("decode document content: %w", err)
		}
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &doc.Metadata); err != nil {
			return nil, fmt.Errorf("decode document metadata: %w", err)
		}
	}

	return &doc, nil
}

// Create inserts a document and fills in the generated id
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	contentJSON, err := json.Marshal(doc.Content)
	if err != nil {
		return fmt.Errorf("encode document content: %w", err)
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]interface{})
	}
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("encode document metadata: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (org_id, folder_id, parent_id, name, file_path, status, content, metadata, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, r.tables.Documents)

	err = GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		doc.OrgID,
		doc.FolderID,
		doc.ParentID,
		doc.Name,
		doc.FilePath,
		doc.Status,
		contentJSON,
		metadataJSON,
		doc.CreatedBy,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by ID
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		WHERE d.id = $1 AND d.deleted_at IS NULL
	`, r.selectColumns())

	doc, err := scanDocument(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("document %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return doc, nil
}

// ListByFolder pages through an org's documents, optionally narrowed to
// one folder
func (r *PostgresDocumentRepository) ListByFolder(ctx context.Context, orgID uuid.UUID, folderID *uuid.UUID, page, limit int) ([]*models.Document, int64, error) {
	where := "d.org_id = $1 AND d.deleted_at IS NULL"
	args := []interface{}{orgID}
	if folderID != nil {
		where += " AND d.folder_id = $2"
		args = append(args, *folderID)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s d WHERE %s`, r.tables.Documents, where)

	var total int64
	if err := GetExecutor(ctx, r.pool).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	offset := (page - 1) * limit
	listQuery := fmt.Sprintf(`
		SELECT %s
		WHERE %s
		ORDER BY d.created_at DESC
		LIMIT $%d OFFSET $%d
	`, r.selectColumns(), where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	docs, err := r.queryDocuments(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}

// ListByFolderID retrieves all documents directly inside a folder
func (r *PostgresDocumentRepository) ListByFolderID(ctx context.Context, folderID uuid.UUID) ([]*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		WHERE d.folder_id = $1 AND d.deleted_at IS NULL
		ORDER BY d.name ASC
	`, r.selectColumns())

	return r.queryDocuments(ctx, query, folderID)
}

// ListByOrg retrieves all live documents in an org
func (r *PostgresDocumentRepository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		WHERE d.org_id = $1 AND d.deleted_at IS NULL
		ORDER BY d.name ASC
	`, r.selectColumns())

	return r.queryDocuments(ctx, query, orgID)
}

// Update persists mutable fields
func (r *PostgresDocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	contentJSON, err := json.Marshal(doc.Content)
	if err != nil {
		return fmt.Errorf("encode document content: %w", err)
	}
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("encode document metadata: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, folder_id = $2, file_path = $3, status = $4,
			content = $5, metadata = $6, updated_at = now()
		WHERE id = $7 AND deleted_at IS NULL
		RETURNING updated_at
	`, r.tables.Documents)

	err = GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		doc.Name,
		doc.FolderID,
		doc.FilePath,
		doc.Status,
		contentJSON,
		metadataJSON,
		doc.ID,
	).Scan(&doc.UpdatedAt)

	if err != nil {
		if isPgNoRowsError(err) {
			return fmt.Errorf("document %d: %w", doc.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update document: %w", err)
	}

	return nil
}

// UpdateStatus applies an ingestion-pipeline status transition. The
// error message lands inside the content JSONB.
func (r *PostgresDocumentRepository) UpdateStatus(ctx context.Context, id int64, status models.DocumentStatus, errorMessage *string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1,
			content = jsonb_set(content, '{error_message}', to_jsonb($2::text), true),
			updated_at = now()
		WHERE id = $3 AND deleted_at IS NULL
	`, r.tables.Documents)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, status, errorMessage, id)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

// SoftDelete marks a document deleted, hiding it from all reads
func (r *PostgresDocumentRepository) SoftDelete(ctx context.Context, id int64, deletedBy *uuid.UUID) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = now(), deleted_by = $1, updated_at = now()
		WHERE id = $2 AND deleted_at IS NULL
	`, r.tables.Documents)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, deletedBy, id)
	if err != nil {
		return fmt.Errorf("soft delete document: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

// HardDelete removes the row entirely
func (r *PostgresDocumentRepository) HardDelete(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Documents)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

// GetByStorageKeyPattern finds the closest stored file_path for a
// requested relative path. Exact matches sort before prefix and suffix
// matches so legacy rows with extra prefixes still resolve.
func (r *PostgresDocumentRepository) GetByStorageKeyPattern(ctx context.Context, pattern string) (*models.Document, error) {
	normalized := strings.ReplaceAll(pattern, "\\", "/")

	query := fmt.Sprintf(`
		SELECT %s
		WHERE d.deleted_at IS NULL
		AND (d.file_path = $1
			OR REPLACE(d.file_path, '\', '/') = $1
			OR REPLACE(d.file_path, '\', '/') LIKE $1 || '%%'
			OR REPLACE(d.file_path, '\', '/') LIKE '%%' || $1)
		ORDER BY
			CASE
				WHEN d.file_path = $1 THEN 1
				WHEN REPLACE(d.file_path, '\', '/') = $1 THEN 2
				WHEN REPLACE(d.file_path, '\', '/') LIKE $1 || '%%' THEN 3
				ELSE 4
			END
		LIMIT 1
	`, r.selectColumns())

	doc, err := scanDocument(GetExecutor(ctx, r.pool).QueryRow(ctx, query, normalized))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("document for path %q: %w", pattern, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document by path pattern: %w", err)
	}

	return doc, nil
}

// GetByFilenameAndPath finds a document by exact filename plus fuzzy
// path-segment match, optionally narrowed to one org.
func (r *PostgresDocumentRepository) GetByFilenameAndPath(ctx context.Context, orgID *uuid.UUID, filename string, pathSegments []string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		WHERE d.name = $1 AND d.deleted_at IS NULL
	`, r.selectColumns())

	args := []interface{}{filename}
	argIndex := 2

	if orgID != nil {
		query += fmt.Sprintf(" AND d.org_id = $%d", argIndex)
		args = append(args, *orgID)
		argIndex++
	}

	if len(pathSegments) > 0 {
		pathPattern := "%" + strings.Join(pathSegments, "%") + "%"
		query += fmt.Sprintf(" AND REPLACE(d.file_path, '\\', '/') LIKE $%d", argIndex)
		args = append(args, pathPattern)
	}

	query += " LIMIT 1"

	doc, err := scanDocument(GetExecutor(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("document %q: %w", filename, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document by filename: %w", err)
	}

	return doc, nil
}

func (r *PostgresDocumentRepository) queryDocuments(ctx context.Context, query string, args ...interface{}) ([]*models.Document, error) {
	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}
