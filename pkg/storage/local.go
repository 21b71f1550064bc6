package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/quotehub/quotehub-backend/pkg/config"
	"github.com/quotehub/quotehub-backend/pkg/logger"
)

// Store resolves quote file paths against a local root directory. Uploaded
// documents are written by an external process; the backend only reads them.
type Store struct {
	root string
}

func NewStore(ctx context.Context, cfg config.StorageConfig, logg *logger.Logger) (*Store, error) {
	root := strings.TrimSpace(cfg.RootDir)
	if root == "" {
		return nil, errors.New("storage root dir is required")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving storage root: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage root %q: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage root %q is not a directory", abs)
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"root": abs}), "storage initialized")
	}

	return &Store{root: abs}, nil
}

// Resolve maps a stored relative path to an absolute path under the root.
// Paths escaping the root are rejected.
func (s *Store) Resolve(relative string) (string, error) {
	if s == nil {
		return "", errors.New("store not initialized")
	}
	rel := strings.TrimSpace(relative)
	if rel == "" {
		return "", errors.New("file path is required")
	}

	full := filepath.Join(s.root, filepath.FromSlash(rel))
	clean := filepath.Clean(full)
	if clean != s.root && !strings.HasPrefix(clean, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("file path %q escapes storage root", relative)
	}
	return clean, nil
}

// Exists reports whether the stored file is present and readable.
func (s *Store) Exists(relative string) (bool, error) {
	full, err := s.Resolve(relative)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// Open opens the stored file for reading. The caller owns the returned handle.
func (s *Store) Open(relative string) (io.ReadCloser, error) {
	full, err := s.Resolve(relative)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", relative, err)
	}
	return f, nil
}
