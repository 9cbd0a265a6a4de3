package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// DirStore writes objects under a local directory. Used for offline previews
// of a publication and in tests.
type DirStore struct {
	root string
}

func NewDirStore(root string) (*DirStore, error) {
	if root == "" {
		return nil, fmt.Errorf("root directory required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root directory: %w", err)
	}
	return &DirStore{root: abs}, nil
}

func (s *DirStore) Name() string { return "dir" }

func (s *DirStore) Put(ctx context.Context, key string, body []byte, contentType string, public bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel := filepath.FromSlash(key)
	if !filepath.IsLocal(rel) {
		return fmt.Errorf("key escapes store root: %q", key)
	}
	path := filepath.Join(s.root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}
	perm := os.FileMode(0o600)
	if public {
		perm = 0o644
	}
	if err := os.WriteFile(path, body, perm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (s *DirStore) IndexURL(dir string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(s.root, filepath.FromSlash(dir), "index.html"))}
	return u.String()
}
