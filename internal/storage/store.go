// Package storage keeps the raw bytes of uploaded files on a
// filesystem, addressed by report identity.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Store writes and removes uploaded files. The filesystem is abstracted
// so tests can run against an in-memory one.
type Store struct {
	fs     afero.Fs
	dir    string
	logger *zap.Logger
}

// NewStore creates a Store rooted at dir, creating it if needed.
func NewStore(fs afero.Fs, dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory %s: %w", dir, err)
	}
	return &Store{fs: fs, dir: dir, logger: logger.Named("storage")}, nil
}

// Save writes the file under the report's identity and returns the
// stored path.
func (s *Store) Save(reportID string, data []byte) (string, error) {
	path := filepath.Join(s.dir, reportID+".csv")
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("write uploaded file: %w", err)
	}
	s.logger.Debug("stored uploaded file", zap.String("path", path), zap.Int("bytes", len(data)))
	return path, nil
}

// Remove deletes a stored file. A file that is already absent is not
// an error.
func (s *Store) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stored file: %w", err)
	}
	return nil
}

// Exists reports whether a stored path still resolves to a file.
func (s *Store) Exists(path string) bool {
	ok, err := afero.Exists(s.fs, path)
	return err == nil && ok
}
