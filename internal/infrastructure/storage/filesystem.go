package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// FilesystemStrategy stores artifacts on the local file system under a
// single base directory. It is the fallback when object storage is down
// or unconfigured.
type FilesystemStrategy struct {
	basePath string
	baseURL  string
	logger   *zap.Logger
}

// NewFilesystemStrategy creates the local file system backend
func NewFilesystemStrategy(basePath, baseURL string, logger *zap.Logger) (*FilesystemStrategy, error) {
	if basePath == "" {
		basePath = "/data/artifacts"
	}
	if baseURL == "" {
		baseURL = "/api/v1/artifacts"
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, NewStorageError(StrategyLocal, "failed to create storage directory", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FilesystemStrategy{
		basePath: basePath,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		logger:   logger,
	}, nil
}

// Name identifies the strategy
func (s *FilesystemStrategy) Name() string {
	return StrategyLocal
}

// Store writes the data under basePath/key and returns the serving URL
func (s *FilesystemStrategy) Store(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	select {
	case <-ctx.Done():
		return "", NewStorageError(StrategyLocal, "operation cancelled", ctx.Err())
	default:
	}

	if len(data) == 0 {
		return "", NewStorageError(StrategyLocal, "data is empty", nil)
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", NewStorageError(StrategyLocal, "failed to create directory", err)
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", NewStorageError(StrategyLocal, "failed to write file", err)
	}

	locator := s.baseURL + "/" + filepath.ToSlash(filepath.Clean(key))
	s.logger.Info("artifact stored locally",
		zap.String("path", fullPath),
		zap.Int("size", len(data)))
	return locator, nil
}

// Open streams a stored file
func (s *FilesystemStrategy) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, NewStorageError(StrategyLocal, "operation cancelled", ctx.Err())
	default:
	}

	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewStorageError(StrategyLocal, "artifact not found", err)
		}
		return nil, NewStorageError(StrategyLocal, "failed to open file", err)
	}
	return file, nil
}

// Delete removes a stored file; a missing file is not an error
func (s *FilesystemStrategy) Delete(ctx context.Context, key string) error {
	select {
	case <-ctx.Done():
		return NewStorageError(StrategyLocal, "operation cancelled", ctx.Err())
	default:
	}

	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return NewStorageError(StrategyLocal, "failed to delete file", err)
	}
	return nil
}

// resolve sanitizes the key and maps it under the base path. Absolute keys
// and ".." components are rejected before any normalization so traversal
// attempts cannot escape the base directory.
func (s *FilesystemStrategy) resolve(key string) (string, error) {
	if key == "" {
		return "", NewStorageError(StrategyLocal, "storage key is required", nil)
	}
	cleanKey := filepath.Clean(key)
	if filepath.IsAbs(cleanKey) || containsDotDot(key) {
		s.logger.Warn("blocked potentially malicious storage key", zap.String("key", key))
		return "", NewStorageError(StrategyLocal, "invalid storage key", nil)
	}

	fullPath := filepath.Join(s.basePath, cleanKey)

	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", NewStorageError(StrategyLocal, "failed to resolve base path", err)
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", NewStorageError(StrategyLocal, "failed to resolve file path", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		s.logger.Warn("storage key escape attempt blocked", zap.String("key", key))
		return "", NewStorageError(StrategyLocal, "invalid storage key", nil)
	}
	return fullPath, nil
}

// containsDotDot checks if a raw path contains ".." components
func containsDotDot(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	})
	return slices.Contains(parts, "..")
}

// Ensure FilesystemStrategy implements Strategy
var _ Strategy = (*FilesystemStrategy)(nil)
