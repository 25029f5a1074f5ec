package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"docvault/internal/contenttype"
	"docvault/internal/domain"
	"docvault/internal/domain/models"
	"docvault/internal/domain/repositories"
	"docvault/internal/domain/services"
)

// resolveStep is one strategy in the static fallback chain. It maps the
// cleaned request path to a candidate disk path, or reports no
// candidate. Steps never decide access; the gate already ran on the
// original request path.
type resolveStep struct {
	name string
	fn   func(ctx context.Context, requestPath string) (string, bool)
}

type staticService struct {
	docRepo repositories.DocumentRepository
	storage *Storage
	types   *contenttype.Registry
	logger  *slog.Logger
	steps   []resolveStep
}

// NewStaticService creates the static file resolver with its ordered
// fallback chain: exact path, root-prefix-stripped path, stored-path
// pattern match, filename plus path-segment match.
func NewStaticService(
	docRepo repositories.DocumentRepository,
	storage *Storage,
	types *contenttype.Registry,
	logger *slog.Logger,
) services.StaticService {
	s := &staticService{
		docRepo: docRepo,
		storage: storage,
		types:   types,
		logger:  logger,
	}
	s.steps = []resolveStep{
		{name: "direct", fn: s.resolveDirect},
		{name: "strip_root", fn: s.resolveStripRoot},
		{name: "stored_pattern", fn: s.resolveStoredPattern},
		{name: "filename_segments", fn: s.resolveByFilename},
	}
	return s
}

func (s *staticService) Resolve(ctx context.Context, actor *models.Actor, requestPath string) (*services.ResolvedFile, error) {
	cleaned, err := cleanRequestPath(requestPath)
	if err != nil {
		return nil, err
	}

	// Access is decided on the path the client asked for, before any
	// fallback rewriting, so a matching database row for another org
	// can never widen what this actor may read.
	if !AllowPath(actor, cleaned) {
		return nil, fmt.Errorf("%w: access denied for path", domain.ErrForbidden)
	}

	for _, step := range s.steps {
		candidate, ok := step.fn(ctx, cleaned)
		if !ok {
			continue
		}
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			s.logger.Debug("static resolve step missed",
				"step", step.name,
				"candidate", candidate)
			continue
		}
		name := filepath.Base(candidate)
		return &services.ResolvedFile{
			DiskPath:    candidate,
			Name:        name,
			Size:        info.Size(),
			ContentType: s.types.ByFilename(name),
		}, nil
	}
	return nil, fmt.Errorf("%w: no file found for path", domain.ErrNotFound)
}

// cleanRequestPath normalizes the wildcard tail of a static request and
// rejects anything that would climb out of the storage root.
func cleanRequestPath(requestPath string) (string, error) {
	p := strings.ReplaceAll(requestPath, "\\", "/")
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if p == "" || p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("%w: invalid file path", domain.ErrValidation)
	}
	return p, nil
}

func (s *staticService) resolveDirect(_ context.Context, requestPath string) (string, bool) {
	return s.storage.DiskPath(requestPath), true
}

func (s *staticService) resolveStripRoot(_ context.Context, requestPath string) (string, bool) {
	rootSlash := filepath.ToSlash(s.storage.Root())
	trimmed, ok := strings.CutPrefix(requestPath, rootSlash+"/")
	if !ok {
		return "", false
	}
	return s.storage.DiskPath(trimmed), true
}

func (s *staticService) resolveStoredPattern(ctx context.Context, requestPath string) (string, bool) {
	doc, err := s.docRepo.GetByStorageKeyPattern(ctx, requestPath)
	if err != nil || doc.FilePath == nil {
		return "", false
	}
	return s.storage.DiskPath(*doc.FilePath), true
}

// resolveByFilename is the last resort: exact filename plus fuzzy match
// on the remaining path segments, org-scoped when the first segment is
// an org id.
func (s *staticService) resolveByFilename(ctx context.Context, requestPath string) (string, bool) {
	segments := strings.Split(requestPath, "/")
	if len(segments) == 0 {
		return "", false
	}
	filename := segments[len(segments)-1]
	middle := segments[:len(segments)-1]

	var orgID *uuid.UUID
	if len(middle) > 0 {
		if id, err := uuid.Parse(middle[0]); err == nil {
			orgID = &id
			middle = middle[1:]
		}
	}

	doc, err := s.docRepo.GetByFilenameAndPath(ctx, orgID, filename, middle)
	if err != nil || doc.FilePath == nil {
		return "", false
	}
	return s.storage.DiskPath(*doc.FilePath), true
}
