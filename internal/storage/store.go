// Package storage uploads published regression artifacts to an object store.
package storage

import (
	"context"
	"fmt"

	"cicompare/internal/config"
)

// Store is a flat key/value object store addressed by slash-separated keys.
type Store interface {
	// Name identifies the backend in logs and events.
	Name() string

	// Put uploads body under key. When public is true the object is made
	// world-readable.
	Put(ctx context.Context, key string, body []byte, contentType string, public bool) error

	// IndexURL returns the browsable URL of the index page under dir.
	IndexURL(dir string) string
}

// New returns the Store selected by cfg.Backend. Callers should close the
// returned store if it implements io.Closer.
func New(ctx context.Context, cfg config.Publish) (Store, error) {
	switch cfg.Backend {
	case config.BackendS3, "":
		return NewS3Store(ctx, cfg.Bucket, cfg.Region)
	case config.BackendGCS:
		return NewGCSStore(ctx, cfg.Bucket, cfg.CredentialsFile)
	case config.BackendDir:
		return NewDirStore(cfg.Root)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}
