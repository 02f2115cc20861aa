// Package storage keeps measurement artifacts (packed report JSON, raw
// inputs) in an object store. Local filesystem and Tencent COS backends
// share one interface so the service does not care where bytes land.
package storage

import (
	"context"
	"io"

	"github.com/mem-analysis/pkg/config"
	apperrors "github.com/mem-analysis/pkg/errors"
)

// Storage is the object store seen by the measurement service.
type Storage interface {
	// Upload stores the reader's bytes under key.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// UploadFile stores a local file under key.
	UploadFile(ctx context.Context, key string, localPath string) error

	// Download streams the object at key.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// DownloadFile copies the object at key into a local file.
	DownloadFile(ctx context.Context, key string, localPath string) error

	// Delete removes the object at key. Deleting a missing object is
	// not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns where the object at key can be fetched from. For
	// the local backend this is a filesystem path.
	GetURL(key string) string
}

// StorageType identifies a storage backend.
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeCOS   StorageType = "cos"
)

// NewStorage builds the backend named by the configuration. An empty
// type falls back to local storage.
func NewStorage(cfg *config.StorageConfig) (Storage, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	switch StorageType(cfg.Type) {
	case StorageTypeCOS:
		return NewCOSStorage(&COSConfig{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
			Domain:    cfg.Domain,
			Scheme:    cfg.Scheme,
		})
	default:
		return NewLocalStorage(cfg.LocalPath)
	}
}

// ValidateConfig checks that the configuration names a usable backend.
func ValidateConfig(cfg *config.StorageConfig) error {
	if cfg == nil {
		return apperrors.New(apperrors.CodeConfigError, "storage config is nil")
	}

	storageType := StorageType(cfg.Type)
	if storageType == "" {
		storageType = StorageTypeLocal
	}

	switch storageType {
	case StorageTypeCOS:
		if cfg.Bucket == "" {
			return apperrors.New(apperrors.CodeConfigError, "cos bucket is required")
		}
		if cfg.Region == "" {
			return apperrors.New(apperrors.CodeConfigError, "cos region is required")
		}
		if cfg.SecretID == "" || cfg.SecretKey == "" {
			return apperrors.New(apperrors.CodeConfigError, "cos credentials are required")
		}
	case StorageTypeLocal:
		if cfg.LocalPath == "" {
			return apperrors.New(apperrors.CodeConfigError, "local storage path is required")
		}
	default:
		return apperrors.Newf(apperrors.CodeConfigError, "unsupported storage type: %s", cfg.Type)
	}

	return nil
}
