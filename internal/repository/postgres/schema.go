package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the storage tables and constraints if they do
// not exist. The folders unique index uses NULLS NOT DISTINCT so two
// root folders with the same name still collide; without it NULL
// parent_id values never compare equal and duplicates slip through.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY,
				org_id UUID NOT NULL,
				parent_id UUID REFERENCES %s(id),
				name TEXT NOT NULL,
				path TEXT NOT NULL,
				created_by UUID,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, tables.Folders, tables.Folders),
		fmt.Sprintf(`
			CREATE UNIQUE INDEX IF NOT EXISTS %s_org_parent_name_idx
			ON %s (org_id, parent_id, name) NULLS NOT DISTINCT`,
			tables.Folders, tables.Folders),
		fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s_org_path_idx
			ON %s (org_id, path)`, tables.Folders, tables.Folders),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				org_id UUID,
				folder_id UUID REFERENCES %s(id),
				parent_id BIGINT REFERENCES %s(id),
				name TEXT NOT NULL,
				file_path TEXT,
				status TEXT NOT NULL DEFAULT 'pending',
				content JSONB NOT NULL DEFAULT '{}',
				metadata JSONB NOT NULL DEFAULT '{}',
				created_by UUID,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				deleted_by UUID,
				deleted_at TIMESTAMPTZ
			)`, tables.Documents, tables.Folders, tables.Documents),
		fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s_org_folder_idx
			ON %s (org_id, folder_id) WHERE deleted_at IS NULL`,
			tables.Documents, tables.Documents),
		fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s_file_path_idx
			ON %s (file_path) WHERE deleted_at IS NULL`,
			tables.Documents, tables.Documents),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY,
				folder_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				role_id UUID NOT NULL,
				permission TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				UNIQUE (folder_id, role_id, permission)
			)`, tables.FolderPermissions, tables.Folders),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
