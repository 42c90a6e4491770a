package storage

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"taskmanager/internal/config"
)

// ErrObjectNotFound is returned by Reader implementations for unknown keys.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore persists raw objects and returns the URL they are reachable at.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Close() error
}

// Reader is implemented by stores that can serve their own objects back.
type Reader interface {
	Get(ctx context.Context, key string) (data []byte, contentType string, err error)
}

// New opens the store selected by cfg.Storage.Driver.
func New(ctx context.Context, cfg *config.Config) (ObjectStore, error) {
	switch cfg.Storage.Driver {
	case "s3":
		return NewS3Store(ctx, cfg.Storage)
	case "blob":
		return NewBlobStore(ctx, cfg.Storage.BlobURL, cfg.Storage.PublicBaseURL)
	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func publicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
