// Package contenttype maps file extensions to served content types.
// The table is fixed at build time; responses never content-sniff.
package contenttype

import (
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed types.yaml
var typesFile []byte

// Registry resolves extensions to MIME types from the embedded table.
type Registry struct {
	types    map[string]string
	fallback string
}

type registryFile struct {
	Default string            `yaml:"default"`
	Types   map[string]string `yaml:"types"`
}

// NewRegistry loads the embedded extension table.
func NewRegistry() (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(typesFile, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal content-type table: %w", err)
	}
	if file.Default == "" || len(file.Types) == 0 {
		return nil, fmt.Errorf("content-type table is incomplete")
	}

	return &Registry{
		types:    file.Types,
		fallback: file.Default,
	}, nil
}

// ByExtension returns the content type for an extension ("pdf" or
// ".pdf", case-insensitive). Unknown extensions get the fallback.
func (r *Registry) ByExtension(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if mime, ok := r.types[ext]; ok {
		return mime
	}
	return r.fallback
}

// ByFilename returns the content type for a file name or path.
func (r *Registry) ByFilename(name string) string {
	return r.ByExtension(filepath.Ext(name))
}
