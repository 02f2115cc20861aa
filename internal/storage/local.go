package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/mem-analysis/pkg/errors"
)

// LocalStorage keeps objects as files under a base directory. Keys map
// to relative paths; keys that escape the base directory are rejected.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates the base directory if needed.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if basePath == "" {
		basePath = "./storage"
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageError, "create storage directory", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// Upload stores the reader's bytes under key.
func (s *LocalStorage) Upload(ctx context.Context, key string, reader io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	return writeStream(path, reader)
}

// UploadFile stores a local file under key.
func (s *LocalStorage) UploadFile(ctx context.Context, key string, localPath string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorageError, "open source file", err)
	}
	defer src.Close()

	return s.Upload(ctx, key, src)
}

// Download streams the object at key. The caller closes the reader.
func (s *LocalStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "object not found: %s", key)
		}
		return nil, apperrors.Wrap(apperrors.CodeStorageError, "open object", err)
	}
	return file, nil
}

// DownloadFile copies the object at key into a local file.
func (s *LocalStorage) DownloadFile(ctx context.Context, key string, localPath string) error {
	src, err := s.Download(ctx, key)
	if err != nil {
		return err
	}
	defer src.Close()

	return writeStream(localPath, src)
}

// Delete removes the object at key. Missing objects are ignored.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return apperrors.Wrap(apperrors.CodeStorageError, "delete object", err)
	}
	return nil
}

// Exists reports whether an object is stored under key.
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	path, err := s.resolve(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, apperrors.Wrap(apperrors.CodeStorageError, "stat object", err)
	}
	return true, nil
}

// GetURL returns the filesystem path an object would live at.
func (s *LocalStorage) GetURL(key string) string {
	return filepath.Join(s.basePath, filepath.Clean("/"+key))
}

// GetBasePath returns the storage root.
func (s *LocalStorage) GetBasePath() string {
	return s.basePath
}

// resolve maps a key to its path under the base directory.
func (s *LocalStorage) resolve(key string) (string, error) {
	if key == "" {
		return "", apperrors.New(apperrors.CodeInvalidInput, "object key is empty")
	}
	cleaned := filepath.Clean(filepath.Join(s.basePath, key))
	rel, err := filepath.Rel(s.basePath, cleaned)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", apperrors.Newf(apperrors.CodeInvalidInput, "object key escapes storage root: %s", key)
	}
	return cleaned, nil
}

// writeStream writes reader contents to path, creating parent
// directories as needed.
func writeStream(path string, reader io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageError, "create directory", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorageError, "create file", err)
	}

	if _, err := io.Copy(file, reader); err != nil {
		file.Close()
		return apperrors.Wrap(apperrors.CodeStorageError, "write file", err)
	}
	if err := file.Close(); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageError, "close file", err)
	}
	return nil
}
