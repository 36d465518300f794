// Package local archives photos on the local filesystem
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	"go.uber.org/zap"
)

// Name identifies the store in logs and metrics
const Name = "local"

// Store writes photos below a root directory
type Store struct {
	root   string
	logger *zap.Logger
}

var _ outbound.PhotoStore = (*Store)(nil)

// NewStore creates the root directory if needed
func NewStore(root string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create photo directory: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Store{root: abs, logger: logger.Named("photos-local")}, nil
}

// Name returns "local"
func (s *Store) Name() string {
	return Name
}

// Upload writes data to root/key atomically and returns the file path
func (s *Store) Upload(ctx context.Context, key string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write photo: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move photo into place: %w", err)
	}

	s.logger.Debug("Photo archived", zap.String("path", path), zap.Int("bytes", len(data)))
	return path, nil
}

// Delete removes the file for key; a missing file is not an error
func (s *Store) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// resolve maps key below root, rejecting keys that escape it
func (s *Store) resolve(key string) (string, error) {
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if path != s.root && !strings.HasPrefix(path, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("photo key %q escapes the archive root", key)
	}
	return path, nil
}
