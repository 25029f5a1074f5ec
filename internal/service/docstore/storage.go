package docstore

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"docvault/internal/domain"
)

var pdfMagic = []byte("%PDF")

// Storage owns the on-disk file tree under a single root directory.
// All methods speak storage keys (forward-slash relative paths); only
// this type translates them to OS paths.
type Storage struct {
	root string
}

func NewStorage(root string) *Storage {
	return &Storage{root: root}
}

func (s *Storage) Root() string { return s.root }

// DiskPath converts a storage key to an absolute-or-root-relative OS
// path. Keys that already carry the root prefix (legacy rows stored
// full paths) are not double-prefixed.
func (s *Storage) DiskPath(key string) string {
	key = strings.ReplaceAll(key, "\\", "/")
	rootSlash := filepath.ToSlash(s.root)
	if key == rootSlash || strings.HasPrefix(key, rootSlash+"/") {
		return filepath.FromSlash(key)
	}
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Exists reports whether a regular file is present at key.
func (s *Storage) Exists(key string) bool {
	info, err := os.Stat(s.DiskPath(key))
	return err == nil && !info.IsDir()
}

// Write streams r to a new file at key, creating parent directories as
// needed, and fsyncs before close. Creation is exclusive: the file
// system, not the caller, decides which of two concurrent writers for
// the same key wins, and the loser gets ErrConflict with the existing
// bytes untouched. The returned byte count comes from a fresh stat of
// the written file, not the copy counter, so a short write surfaces as
// a size mismatch rather than silent loss.
func (s *Storage) Write(key string, r io.Reader) (int64, error) {
	diskPath := s.DiskPath(key)
	if err := os.MkdirAll(filepath.Dir(diskPath), 0o755); err != nil {
		return 0, fmt.Errorf("create storage directory: %w", err)
	}

	f, err := os.OpenFile(diskPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return 0, fmt.Errorf("%w: a file already exists at %s", domain.ErrConflict, key)
		}
		return 0, fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return 0, fmt.Errorf("write file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return 0, fmt.Errorf("sync file: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close file: %w", err)
	}

	info, err := os.Stat(diskPath)
	if err != nil {
		return 0, fmt.Errorf("stat written file: %w", err)
	}
	return info.Size(), nil
}

// VerifyPDFHeader checks that the file at key starts with the %PDF
// magic bytes.
func (s *Storage) VerifyPDFHeader(key string) error {
	f, err := os.Open(s.DiskPath(key))
	if err != nil {
		return fmt.Errorf("open for verification: %w", err)
	}
	defer f.Close()

	header := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("%w: file too short to be a PDF", domain.ErrValidation)
	}
	if !bytes.Equal(header, pdfMagic) {
		return fmt.Errorf("%w: file does not start with %%PDF", domain.ErrValidation)
	}
	return nil
}

// Open returns a reader for the file at key along with its size.
func (s *Storage) Open(key string) (io.ReadCloser, int64, error) {
	diskPath := s.DiskPath(key)
	info, err := os.Stat(diskPath)
	if err != nil || info.IsDir() {
		return nil, 0, fmt.Errorf("%w: file not found in storage", domain.ErrNotFound)
	}
	f, err := os.Open(diskPath)
	if err != nil {
		return nil, 0, fmt.Errorf("open file: %w", err)
	}
	return f, info.Size(), nil
}

// Remove deletes the file at key. A missing file is not an error.
func (s *Storage) Remove(key string) error {
	if err := os.Remove(s.DiskPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}
