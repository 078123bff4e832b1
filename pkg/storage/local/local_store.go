package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ai-mediagen-be/pkg/storage"
)

// Store implements storage.ObjectStore on the local filesystem. Files land
// under Dir and are served statically from /uploads by the HTTP server.
type Store struct {
	Dir     string
	BaseURL string
}

func NewStore(dir, baseURL string) *Store {
	return &Store{
		Dir:     dir,
		BaseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *Store) Name() string {
	return "local:" + s.Dir
}

func (s *Store) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if _, err := os.Stat(s.Dir); os.IsNotExist(err) {
		return "", storage.ErrBucketNotFound
	}

	fullPath := filepath.Join(s.Dir, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", err
	}

	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/uploads/%s", s.BaseURL, path), nil
}
