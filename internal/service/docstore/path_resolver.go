package docstore

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"docvault/internal/domain"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// SanitizeFilename normalizes a client-supplied filename into a safe
// path segment. Whitespace runs collapse to a single underscore, single
// quotes are stripped, and any directory components are discarded.
func SanitizeFilename(name string) (string, error) {
	name = whitespaceRun.ReplaceAllString(strings.TrimSpace(name), "_")
	name = strings.ReplaceAll(name, "'", "")
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(path.Clean(name))
	if name == "" || name == "." || name == ".." || name == "/" {
		return "", fmt.Errorf("%w: invalid filename", domain.ErrValidation)
	}
	return name, nil
}

// PathResolver maps (org, folder path, filename) triples onto storage
// keys. Keys are forward-slash relative paths under the storage root,
// identical on every platform so the database stays portable.
type PathResolver struct{}

func NewPathResolver() *PathResolver { return &PathResolver{} }

// Resolve builds the canonical storage key {org}/{folder path}/{file}.
// The folder path loses its leading slash, and the whole key is cleaned
// so no "."/".." segments survive. A key that would escape the org
// prefix is rejected rather than clamped.
func (r *PathResolver) Resolve(orgID *uuid.UUID, folderPath, filename string) (string, error) {
	name, err := SanitizeFilename(filename)
	if err != nil {
		return "", err
	}

	folderPath = strings.ReplaceAll(folderPath, "\\", "/")
	folderPath = strings.TrimPrefix(path.Clean("/"+folderPath), "/")
	if folderPath == ".." || strings.HasPrefix(folderPath, "../") {
		return "", fmt.Errorf("%w: folder path escapes storage root", domain.ErrValidation)
	}

	segments := make([]string, 0, 3)
	if orgID != nil {
		segments = append(segments, orgID.String())
	}
	if folderPath != "" && folderPath != "." {
		segments = append(segments, folderPath)
	}
	segments = append(segments, name)

	key := path.Clean(strings.Join(segments, "/"))
	if key == "." || strings.HasPrefix(key, "../") {
		return "", fmt.Errorf("%w: invalid storage key", domain.ErrValidation)
	}
	return key, nil
}
