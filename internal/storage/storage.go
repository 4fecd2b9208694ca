package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrNotExist is returned by Get when no object is stored at the path.
var ErrNotExist = errors.New("object does not exist")

// Storage stores uploaded picture files under slash-separated relative paths.
type Storage interface {
	// Save stores the contents of r at path, replacing any existing object.
	Save(ctx context.Context, path string, r io.Reader, contentType string) error

	// Get opens the object at path. The caller must close it.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object at path. Missing objects are not an error.
	Delete(ctx context.Context, path string) error

	// Exists reports whether an object is stored at path.
	Exists(ctx context.Context, path string) (bool, error)
}

// Storage backends.
const (
	TypeLocal = "local"
	TypeS3    = "s3"
)

// Config holds storage configuration.
type Config struct {
	Type      string `yaml:"type"`       // local or s3
	BasePath  string `yaml:"base_path"`  // local only
	Bucket    string `yaml:"bucket"`     // s3 only
	Region    string `yaml:"region"`     // s3 only
	Endpoint  string `yaml:"endpoint"`   // custom S3-compatible endpoint
	AccessKey string `yaml:"access_key"` // static credentials, optional
	SecretKey string `yaml:"secret_key"`
}

// New creates a storage backend based on configuration.
func New(cfg Config) (Storage, error) {
	switch cfg.Type {
	case TypeLocal, "":
		return NewLocalStorage(cfg.BasePath)
	case TypeS3:
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
