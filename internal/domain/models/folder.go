package models

import (
	"time"

	"github.com/google/uuid"
)

// Folder is a named hierarchical container scoped to one organization.
// Path is the canonical slash-delimited path from the org root, always
// with a leading slash ("/reports/2025"). The (org_id, parent_id, name)
// triple is unique, enforced by a database constraint rather than
// application locking so concurrent creates race safely.
type Folder struct {
	ID        uuid.UUID  `json:"id"`
	OrgID     uuid.UUID  `json:"org_id"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	Name      string     `json:"name"`
	Path      string     `json:"path"`
	CreatedBy *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Populated only by tree queries
	Children []*Folder   `json:"children,omitempty"`
	Files    []*Document `json:"files,omitempty"`
}

// ChildPath computes the canonical path of a child named name under
// this folder.
func (f *Folder) ChildPath(name string) string {
	return f.Path + "/" + name
}

// RootPath computes the canonical path of a root-level folder.
func RootPath(name string) string {
	return "/" + name
}

// FolderPermission maps a role to a permission on a folder. The storage
// core reads these as inputs to access decisions; granting and revoking
// is owned by the role administration service.
type FolderPermission struct {
	ID         uuid.UUID `json:"id"`
	FolderID   uuid.UUID `json:"folder_id"`
	RoleID     uuid.UUID `json:"role_id"`
	Permission string    `json:"permission"` // read, write, delete, move, share
	CreatedAt  time.Time `json:"created_at"`
	RoleName   *string   `json:"role_name,omitempty"`
}
