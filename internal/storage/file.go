package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FileStore writes to a filesystem. Save goes through a sibling temp file
// and a rename, so a failed write never clobbers an existing file.
type FileStore struct {
	fs afero.Fs
}

func NewFileStore(fs afero.Fs) *FileStore {
	return &FileStore{fs: fs}
}

func (s *FileStore) Save(ctx context.Context, dest string, r io.Reader, size int64) error {
	dir := filepath.Dir(dest)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	n, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil && size >= 0 && n != size {
		err = fmt.Errorf("short write: %d of %d bytes", n, size)
	}
	if err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("write %s: %w", dest, err)
	}

	if err := s.fs.Chmod(tmpName, 0644); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", dest, err)
	}
	if err := s.fs.Rename(tmpName, dest); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("rename into %s: %w", dest, err)
	}
	return nil
}

// Create opens dest for direct, incremental writing. Unlike Save, a failure
// part-way leaves a partial file behind.
func (s *FileStore) Create(dest string) (afero.File, error) {
	dir := filepath.Dir(dest)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", dir, err)
	}
	f, err := s.fs.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", dest, err)
	}
	return f, nil
}

// Size returns the size of a stored file, for reporting.
func (s *FileStore) Size(path string) (int64, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
