package docstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
	"docvault/internal/domain/repositories"
)

var nowStub = time.Now()

// fakeDocumentRepo is an in-memory DocumentRepository for service
// tests. Soft-deleted rows stay in the map but vanish from reads, the
// same contract the SQL implementation honors.
type fakeDocumentRepo struct {
	mu     sync.Mutex
	docs   map[int64]*models.Document
	nextID int64

	createErr     error
	softDeleteErr error
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{docs: make(map[int64]*models.Document)}
}

func (f *fakeDocumentRepo) Create(_ context.Context, doc *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	doc.ID = f.nextID
	copied := *doc
	f.docs[doc.ID] = &copied
	return nil
}

func (f *fakeDocumentRepo) GetByID(_ context.Context, id int64) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok || doc.DeletedAt != nil {
		return nil, fmt.Errorf("document %d: %w", id, domain.ErrNotFound)
	}
	copied := *doc
	return &copied, nil
}

func (f *fakeDocumentRepo) ListByFolder(_ context.Context, orgID uuid.UUID, folderID *uuid.UUID, page, limit int) ([]*models.Document, int64, error) {
	live := f.liveByOrg(orgID)
	if folderID != nil {
		filtered := live[:0]
		for _, d := range live {
			if d.FolderID != nil && *d.FolderID == *folderID {
				filtered = append(filtered, d)
			}
		}
		live = filtered
	}
	total := int64(len(live))
	start := (page - 1) * limit
	if start >= len(live) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(live) {
		end = len(live)
	}
	return live[start:end], total, nil
}

func (f *fakeDocumentRepo) ListByFolderID(_ context.Context, folderID uuid.UUID) ([]*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Document
	for _, d := range f.docs {
		if d.DeletedAt == nil && d.FolderID != nil && *d.FolderID == folderID {
			copied := *d
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeDocumentRepo) ListByOrg(_ context.Context, orgID uuid.UUID) ([]*models.Document, error) {
	return f.liveByOrg(orgID), nil
}

func (f *fakeDocumentRepo) liveByOrg(orgID uuid.UUID) []*models.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Document
	for _, d := range f.docs {
		if d.DeletedAt == nil && d.OrgID != nil && *d.OrgID == orgID {
			copied := *d
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeDocumentRepo) Update(_ context.Context, doc *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.docs[doc.ID]
	if !ok || existing.DeletedAt != nil {
		return fmt.Errorf("document %d: %w", doc.ID, domain.ErrNotFound)
	}
	copied := *doc
	f.docs[doc.ID] = &copied
	return nil
}

func (f *fakeDocumentRepo) UpdateStatus(_ context.Context, id int64, status models.DocumentStatus, errorMessage *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok || doc.DeletedAt != nil {
		return fmt.Errorf("document %d: %w", id, domain.ErrNotFound)
	}
	doc.Status = status
	doc.Content.ErrorMessage = errorMessage
	return nil
}

func (f *fakeDocumentRepo) SoftDelete(_ context.Context, id int64, deletedBy *uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.softDeleteErr != nil {
		return f.softDeleteErr
	}
	doc, ok := f.docs[id]
	if !ok || doc.DeletedAt != nil {
		return fmt.Errorf("document %d: %w", id, domain.ErrNotFound)
	}
	now := nowStub
	doc.DeletedAt = &now
	doc.DeletedBy = deletedBy
	return nil
}

func (f *fakeDocumentRepo) HardDelete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

func (f *fakeDocumentRepo) GetByStorageKeyPattern(_ context.Context, pattern string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pattern = strings.ReplaceAll(pattern, "\\", "/")
	for _, d := range f.docs {
		if d.DeletedAt != nil || d.FilePath == nil {
			continue
		}
		fp := *d.FilePath
		if fp == pattern || strings.HasSuffix(fp, pattern) || strings.HasPrefix(fp, pattern) {
			copied := *d
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("document for %q: %w", pattern, domain.ErrNotFound)
}

func (f *fakeDocumentRepo) GetByFilenameAndPath(_ context.Context, orgID *uuid.UUID, filename string, pathSegments []string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.docs {
		if d.DeletedAt != nil || d.Name != filename {
			continue
		}
		if orgID != nil && (d.OrgID == nil || *d.OrgID != *orgID) {
			continue
		}
		if d.FilePath == nil {
			continue
		}
		matched := true
		for _, seg := range pathSegments {
			if !strings.Contains(*d.FilePath, seg) {
				matched = false
				break
			}
		}
		if matched {
			copied := *d
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("document %q: %w", filename, domain.ErrNotFound)
}

// fakeFolderRepo is an in-memory FolderRepository.
type fakeFolderRepo struct {
	mu      sync.Mutex
	folders map[uuid.UUID]*models.Folder
}

func newFakeFolderRepo() *fakeFolderRepo {
	return &fakeFolderRepo{folders: make(map[uuid.UUID]*models.Folder)}
}

func (f *fakeFolderRepo) Create(_ context.Context, folder *models.Folder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.folders {
		if existing.OrgID == folder.OrgID && existing.Name == folder.Name &&
			sameParent(existing.ParentID, folder.ParentID) {
			return domain.NewConflict("folder", folder.Name, "folder %q already exists", folder.Name)
		}
	}
	copied := *folder
	f.folders[folder.ID] = &copied
	return nil
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (f *fakeFolderRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Folder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	folder, ok := f.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	copied := *folder
	return &copied, nil
}

func (f *fakeFolderRepo) List(_ context.Context, orgID uuid.UUID, parentID *uuid.UUID) ([]*models.Folder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Folder
	for _, folder := range f.folders {
		if folder.OrgID == orgID && sameParent(folder.ParentID, parentID) {
			copied := *folder
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeFolderRepo) ListByOrg(_ context.Context, orgID uuid.UUID) ([]*models.Folder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Folder
	for _, folder := range f.folders {
		if folder.OrgID == orgID {
			copied := *folder
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (f *fakeFolderRepo) ListDescendants(_ context.Context, id uuid.UUID) ([]*models.Folder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	root, ok := f.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	var out []*models.Folder
	for _, folder := range f.folders {
		if folder.ID != id && strings.HasPrefix(folder.Path, root.Path+"/") {
			copied := *folder
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeFolderRepo) Update(_ context.Context, folder *models.Folder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.folders[folder.ID]; !ok {
		return fmt.Errorf("folder %s: %w", folder.ID, domain.ErrNotFound)
	}
	copied := *folder
	f.folders[folder.ID] = &copied
	return nil
}

func (f *fakeFolderRepo) UpdatePath(_ context.Context, id uuid.UUID, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	folder, ok := f.folders[id]
	if !ok {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	folder.Path = path
	return nil
}

func (f *fakeFolderRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	root, ok := f.folders[id]
	if !ok {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	for _, folder := range f.folders {
		if folder.ParentID != nil && *folder.ParentID == id {
			return domain.NewConflict("folder", root.Name, "folder still has children")
		}
	}
	delete(f.folders, id)
	return nil
}

func (f *fakeFolderRepo) Permissions(_ context.Context, _ uuid.UUID) ([]models.FolderPermission, error) {
	return nil, nil
}

// fakeTxManager runs the function directly; the fakes have no
// transaction semantics to enforce.
type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

// fakeNotifier records index removal calls.
type fakeNotifier struct {
	mu      sync.Mutex
	removed []int64
	err     error
}

func (n *fakeNotifier) RemoveDocument(_ context.Context, documentID int64, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.removed = append(n.removed, documentID)
	return nil
}
