package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentStatus tracks a document through the external ingestion
// pipeline. The storage core stores and relays it, it never computes it.
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusEmbedding  DocumentStatus = "embedding"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// Valid reports whether s is one of the known pipeline states.
func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentStatusPending, DocumentStatusProcessing, DocumentStatusEmbedding,
		DocumentStatusCompleted, DocumentStatusFailed:
		return true
	}
	return false
}

// DocumentContent is the typed portion of the content JSONB column.
// Fields this core does not interpret go into Extra instead of growing
// the struct.
type DocumentContent struct {
	MimeType     *string                `json:"mime_type,omitempty"`
	SizeBytes    *int64                 `json:"size_bytes,omitempty"`
	Version      *int                   `json:"version,omitempty"`
	Checksum     *string                `json:"checksum,omitempty"`
	IsFolder     *bool                  `json:"is_folder,omitempty"`
	ErrorMessage *string                `json:"error_message,omitempty"`
	Extra        map[string]interface{} `json:"extra,omitempty"`
}

// Document is the metadata record for a stored file. FilePath is the
// storage key: relative to the storage root, never absolute. A document
// belongs to exactly one folder or to the org root (FolderID nil).
// OrgID nil marks a platform/super-admin resource. Soft-deleted rows
// (DeletedAt set) are excluded from every default query.
type Document struct {
	ID        int64                  `json:"id"`
	OrgID     *uuid.UUID             `json:"org_id,omitempty"`
	FolderID  *uuid.UUID             `json:"folder_id,omitempty"`
	ParentID  *int64                 `json:"parent_id,omitempty"`
	Name      string                 `json:"name"`
	FilePath  *string                `json:"file_path,omitempty"`
	Status    DocumentStatus         `json:"status"`
	Content   DocumentContent        `json:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedBy *uuid.UUID             `json:"created_by,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
	DeletedBy *uuid.UUID             `json:"deleted_by,omitempty"`
	DeletedAt *time.Time             `json:"deleted_at,omitempty"`

	// Joined fields, populated by list queries
	FolderName *string `json:"folder_name,omitempty"`
}

// StorageKey returns the persisted relative path, or "" when the row
// has no file on disk.
func (d *Document) StorageKey() string {
	if d.FilePath != nil {
		return *d.FilePath
	}
	return ""
}

// PaginatedDocuments is the envelope for org-scoped document listings.
type PaginatedDocuments struct {
	Data       []*Document `json:"data"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"total_pages"`
}
